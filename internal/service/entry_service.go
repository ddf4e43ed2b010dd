package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/hackhub-dev/judging-api/internal/dto"
	"github.com/hackhub-dev/judging-api/internal/models"
	"github.com/hackhub-dev/judging-api/internal/repository"
)

// ErrEntryNotFound indicates no entry exists for the requested triple.
var ErrEntryNotFound = errors.New("judging entry not found")

// ErrEntryExists indicates an entry already exists for the triple.
var ErrEntryExists = errors.New("judging entry already exists")

// ErrEntryLocked indicates the entry's AI-judged baseline is populated and
// no longer accepts human edits to its score or feedback fields.
var ErrEntryLocked = errors.New("judging entry is locked")

// ErrEntryFlagged indicates a status transition was attempted on a flagged
// entry; flagged entries leave that state only through unflag.
var ErrEntryFlagged = errors.New("judging entry is flagged")

// ErrFlagReasonRequired indicates the flag reason was empty, or contained
// nothing but markup stripped by sanitization.
var ErrFlagReasonRequired = errors.New("flag reason is required")

// EntryService governs the lifecycle of a single judging entry.
type EntryService interface {
	Submit(ctx context.Context, judgingID uint, payload dto.EntrySubmitRequest, actor ActivityActor) (dto.EntryResponse, error)
	Update(ctx context.Context, judgingID uint, payload dto.EntryUpdateRequest, actor ActivityActor) (dto.EntryResponse, error)
	Flag(ctx context.Context, judgingID uint, payload dto.FlagEntryRequest, actor ActivityActor) (dto.EntryResponse, error)
	Unflag(ctx context.Context, judgingID uint, payload dto.UnflagEntryRequest, actor ActivityActor) (dto.EntryResponse, error)
	GetProjectDetails(ctx context.Context, judgingID, projectID, challengeID uint) (dto.ProjectDetailsResponse, error)
	GetProgress(ctx context.Context, judgingID uint) (dto.ProgressResponse, error)
	GetJudgingProjects(ctx context.Context, judgingID uint) ([]dto.ChallengeGroupResponse, error)
	ListEntries(ctx context.Context, judgingID uint) ([]dto.EntryResponse, error)
}

type entryService struct {
	judgings  repository.JudgingRepository
	bindings  repository.JudgingChallengeRepository
	entries   repository.JudgingEntryRepository
	projects  repository.ProjectRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	activity  ActivityRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEntryService constructs the entry lifecycle manager.
func NewEntryService(
	judgings repository.JudgingRepository,
	bindings repository.JudgingChallengeRepository,
	entries repository.JudgingEntryRepository,
	projects repository.ProjectRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) EntryService {
	return &entryService{
		judgings:  judgings,
		bindings:  bindings,
		entries:   entries,
		projects:  projects,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		activity:  activity,
		logger:    logger.With().Str("component", "entry_service").Logger(),
		now:       time.Now,
	}
}

func (s *entryService) Submit(ctx context.Context, judgingID uint, payload dto.EntrySubmitRequest, actor ActivityActor) (dto.EntryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EntryResponse{}, err
	}

	if _, err := s.bindings.Get(ctx, judgingID, payload.ChallengeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EntryResponse{}, ErrChallengeNotBound
		}
		return dto.EntryResponse{}, fmt.Errorf("load binding: %w", err)
	}

	if _, err := s.entries.Get(ctx, judgingID, payload.ProjectID, payload.ChallengeID); err == nil {
		return dto.EntryResponse{}, ErrEntryExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.EntryResponse{}, fmt.Errorf("lookup entry: %w", err)
	}

	status := payload.JudgingStatus
	if status == "" {
		status = models.EntryStatusNeedsReview
	}

	entry := models.JudgingEntry{
		JudgingID:          judgingID,
		ProjectID:          payload.ProjectID,
		ChallengeID:        payload.ChallengeID,
		Score:              *payload.Score,
		TechnicalScore:     *payload.TechnicalScore,
		TechnicalFeedback:  s.clean(*payload.TechnicalFeedback),
		BusinessScore:      *payload.BusinessScore,
		BusinessFeedback:   s.clean(*payload.BusinessFeedback),
		InnovationScore:    *payload.InnovationScore,
		InnovationFeedback: s.clean(*payload.InnovationFeedback),
		UXScore:            *payload.UXScore,
		UXFeedback:         s.clean(*payload.UXFeedback),
		JudgingStatus:      status,
	}
	if payload.GeneralComments != nil {
		entry.GeneralComments = s.clean(*payload.GeneralComments)
	}

	if err := s.entries.Create(ctx, &entry); err != nil {
		return dto.EntryResponse{}, fmt.Errorf("create entry: %w", err)
	}

	s.invalidateProgress(ctx, judgingID)
	s.record(ctx, actor, "entry.submitted", entry)

	return dto.NewEntryResponse(entry), nil
}

func (s *entryService) Update(ctx context.Context, judgingID uint, payload dto.EntryUpdateRequest, actor ActivityActor) (dto.EntryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EntryResponse{}, err
	}

	entry, err := s.entries.Get(ctx, judgingID, payload.ProjectID, payload.ChallengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EntryResponse{}, ErrEntryNotFound
		}
		return dto.EntryResponse{}, fmt.Errorf("load entry: %w", err)
	}

	if touchesScoreFields(payload) && !entry.Editable() {
		return dto.EntryResponse{}, ErrEntryLocked
	}

	if payload.JudgingStatus != nil && entry.JudgingStatus == models.EntryStatusFlagged {
		return dto.EntryResponse{}, ErrEntryFlagged
	}

	applyEntryUpdate(&entry, payload, s.sanitizer)
	entry.UpdatedAt = s.now()

	if err := s.entries.Update(ctx, &entry); err != nil {
		return dto.EntryResponse{}, fmt.Errorf("update entry: %w", err)
	}

	s.invalidateProgress(ctx, judgingID)
	s.record(ctx, actor, "entry.updated", entry)

	return dto.NewEntryResponse(entry), nil
}

// Flag sets the entry aside with a reason. Allowed from needs_review or
// judged; prior scores are preserved.
func (s *entryService) Flag(ctx context.Context, judgingID uint, payload dto.FlagEntryRequest, actor ActivityActor) (dto.EntryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EntryResponse{}, err
	}

	entry, err := s.entries.Get(ctx, judgingID, payload.ProjectID, payload.ChallengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EntryResponse{}, ErrEntryNotFound
		}
		return dto.EntryResponse{}, fmt.Errorf("load entry: %w", err)
	}

	reason := strings.TrimSpace(s.clean(payload.Reason))
	if reason == "" {
		return dto.EntryResponse{}, ErrFlagReasonRequired
	}

	entry.JudgingStatus = models.EntryStatusFlagged
	entry.FlaggedReason = &reason
	entry.FlaggedComments = nil
	if payload.Comments != nil {
		comments := s.clean(*payload.Comments)
		entry.FlaggedComments = &comments
	}

	if err := s.entries.Update(ctx, &entry); err != nil {
		return dto.EntryResponse{}, fmt.Errorf("flag entry: %w", err)
	}

	s.invalidateProgress(ctx, judgingID)
	s.record(ctx, actor, "entry.flagged", entry)

	return dto.NewEntryResponse(entry), nil
}

// Unflag returns a flagged entry to needs_review and clears both flag
// fields. Unflagging an entry that is not flagged is a no-op.
func (s *entryService) Unflag(ctx context.Context, judgingID uint, payload dto.UnflagEntryRequest, actor ActivityActor) (dto.EntryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EntryResponse{}, err
	}

	entry, err := s.entries.Get(ctx, judgingID, payload.ProjectID, payload.ChallengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EntryResponse{}, ErrEntryNotFound
		}
		return dto.EntryResponse{}, fmt.Errorf("load entry: %w", err)
	}

	if entry.JudgingStatus != models.EntryStatusFlagged {
		return dto.NewEntryResponse(entry), nil
	}

	entry.JudgingStatus = models.EntryStatusNeedsReview
	entry.FlaggedReason = nil
	entry.FlaggedComments = nil

	if err := s.entries.Update(ctx, &entry); err != nil {
		return dto.EntryResponse{}, fmt.Errorf("unflag entry: %w", err)
	}

	s.invalidateProgress(ctx, judgingID)
	s.record(ctx, actor, "entry.unflagged", entry)

	return dto.NewEntryResponse(entry), nil
}

func (s *entryService) GetProjectDetails(ctx context.Context, judgingID, projectID, challengeID uint) (dto.ProjectDetailsResponse, error) {
	entry, err := s.entries.GetWithDetails(ctx, judgingID, projectID, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectDetailsResponse{}, ErrEntryNotFound
		}
		return dto.ProjectDetailsResponse{}, fmt.Errorf("load entry: %w", err)
	}

	return dto.ProjectDetailsResponse{
		Entry:          dto.NewEntryResponse(entry),
		ProjectID:      entry.ProjectID,
		ProjectTitle:   entry.Project.Title,
		ProjectTagLine: entry.Project.TagLine,
		TeamName:       entry.Project.Team.Name,
		ChallengeID:    entry.ChallengeID,
		ChallengeTitle: entry.Challenge.Title,
	}, nil
}

// GetProgress returns {total, judged, flagged, needs_review} for the
// judging. Total counts every entry regardless of status.
func (s *entryService) GetProgress(ctx context.Context, judgingID uint) (dto.ProgressResponse, error) {
	cacheKey := progressCacheKey(judgingID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("judging_id", judgingID).Msg("progress cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	if _, err := s.judgings.GetByID(ctx, judgingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProgressResponse{}, ErrJudgingNotFound
		}
		return dto.ProgressResponse{}, fmt.Errorf("load judging: %w", err)
	}

	counts, err := s.entries.CountByStatus(ctx, judgingID)
	if err != nil {
		return dto.ProgressResponse{}, fmt.Errorf("count entries: %w", err)
	}

	response := dto.ProgressResponse{
		Total:       counts.Total,
		Judged:      counts.Judged,
		Flagged:     counts.Flagged,
		NeedsReview: counts.NeedsReview,
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress cache")
			}
		}
	}

	return response, nil
}

// GetJudgingProjects returns every entry for the judging plus every
// not-yet-entered project bound through the judging's challenges, grouped
// by challenge.
func (s *entryService) GetJudgingProjects(ctx context.Context, judgingID uint) ([]dto.ChallengeGroupResponse, error) {
	bindings, entries, err := s.loadJudgingWork(ctx, judgingID)
	if err != nil {
		return nil, err
	}

	entriesByChallenge := make(map[uint][]models.JudgingEntry)
	entered := make(map[repository.ProjectChallengePair]struct{}, len(entries))
	for _, entry := range entries {
		entriesByChallenge[entry.ChallengeID] = append(entriesByChallenge[entry.ChallengeID], entry)
		entered[repository.ProjectChallengePair{ProjectID: entry.ProjectID, ChallengeID: entry.ChallengeID}] = struct{}{}
	}

	groups := make([]dto.ChallengeGroupResponse, 0, len(bindings))
	for _, binding := range bindings {
		group := dto.ChallengeGroupResponse{
			ChallengeID:     binding.ChallengeID,
			ChallengeTitle:  binding.Challenge.Title,
			Entries:         make([]dto.EntryResponse, 0),
			PendingProjects: make([]dto.PendingProjectResponse, 0),
		}

		for _, entry := range entriesByChallenge[binding.ChallengeID] {
			group.Entries = append(group.Entries, dto.NewEntryResponse(entry))
		}

		projects, err := s.projects.ListByChallenge(ctx, binding.ChallengeID)
		if err != nil {
			return nil, fmt.Errorf("list challenge projects: %w", err)
		}
		for _, project := range projects {
			if project.Hidden {
				continue
			}
			key := repository.ProjectChallengePair{ProjectID: project.ID, ChallengeID: binding.ChallengeID}
			if _, ok := entered[key]; ok {
				continue
			}
			group.PendingProjects = append(group.PendingProjects, dto.PendingProjectResponse{
				ProjectID:   project.ID,
				ChallengeID: binding.ChallengeID,
				Title:       project.Title,
				TeamName:    project.Team.Name,
			})
		}

		groups = append(groups, group)
	}

	return groups, nil
}

// ListEntries is the ungrouped variant: every entry with its editability
// computed, judged entries first.
func (s *entryService) ListEntries(ctx context.Context, judgingID uint) ([]dto.EntryResponse, error) {
	_, entries, err := s.loadJudgingWork(ctx, judgingID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewEntryResponse(entry))
	}

	sort.SliceStable(responses, func(i, j int) bool {
		return statusSortRank(responses[i].JudgingStatus) < statusSortRank(responses[j].JudgingStatus)
	})

	return responses, nil
}

func (s *entryService) loadJudgingWork(ctx context.Context, judgingID uint) ([]models.JudgingChallenge, []models.JudgingEntry, error) {
	if _, err := s.judgings.GetByID(ctx, judgingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrJudgingNotFound
		}
		return nil, nil, fmt.Errorf("load judging: %w", err)
	}

	bindings, err := s.bindings.ListByJudging(ctx, judgingID)
	if err != nil {
		return nil, nil, fmt.Errorf("list bindings: %w", err)
	}

	entries, err := s.entries.ListByJudging(ctx, judgingID)
	if err != nil {
		return nil, nil, fmt.Errorf("list entries: %w", err)
	}

	return bindings, entries, nil
}

func (s *entryService) clean(input string) string {
	return s.sanitizer.Sanitize(input)
}

func (s *entryService) invalidateProgress(ctx context.Context, judgingID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, progressCacheKey(judgingID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("judging_id", judgingID).Msg("failed to invalidate progress cache")
	}
}

func (s *entryService) record(ctx context.Context, actor ActivityActor, action string, entry models.JudgingEntry) {
	if s.activity == nil {
		return
	}
	entryID := entry.ID
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "judging_entry",
		EntityID:   &entryID,
		Metadata: map[string]interface{}{
			"judging_id":   entry.JudgingID,
			"project_id":   entry.ProjectID,
			"challenge_id": entry.ChallengeID,
			"status":       entry.JudgingStatus,
		},
	})
}

func progressCacheKey(judgingID uint) string {
	return fmt.Sprintf("judging:progress:%d", judgingID)
}

func statusSortRank(status string) int {
	switch status {
	case models.EntryStatusJudged:
		return 0
	case models.EntryStatusNeedsReview:
		return 1
	default:
		return 2
	}
}

func touchesScoreFields(payload dto.EntryUpdateRequest) bool {
	return payload.Score != nil ||
		payload.TechnicalScore != nil || payload.TechnicalFeedback != nil ||
		payload.BusinessScore != nil || payload.BusinessFeedback != nil ||
		payload.InnovationScore != nil || payload.InnovationFeedback != nil ||
		payload.UXScore != nil || payload.UXFeedback != nil ||
		payload.GeneralComments != nil
}

func applyEntryUpdate(entry *models.JudgingEntry, payload dto.EntryUpdateRequest, sanitizer *bluemonday.Policy) {
	if payload.Score != nil {
		entry.Score = *payload.Score
	}
	if payload.TechnicalScore != nil {
		entry.TechnicalScore = *payload.TechnicalScore
	}
	if payload.TechnicalFeedback != nil {
		entry.TechnicalFeedback = sanitizer.Sanitize(*payload.TechnicalFeedback)
	}
	if payload.BusinessScore != nil {
		entry.BusinessScore = *payload.BusinessScore
	}
	if payload.BusinessFeedback != nil {
		entry.BusinessFeedback = sanitizer.Sanitize(*payload.BusinessFeedback)
	}
	if payload.InnovationScore != nil {
		entry.InnovationScore = *payload.InnovationScore
	}
	if payload.InnovationFeedback != nil {
		entry.InnovationFeedback = sanitizer.Sanitize(*payload.InnovationFeedback)
	}
	if payload.UXScore != nil {
		entry.UXScore = *payload.UXScore
	}
	if payload.UXFeedback != nil {
		entry.UXFeedback = sanitizer.Sanitize(*payload.UXFeedback)
	}
	if payload.GeneralComments != nil {
		entry.GeneralComments = sanitizer.Sanitize(*payload.GeneralComments)
	}
	if payload.ProjectHidden != nil {
		entry.ProjectHidden = *payload.ProjectHidden
	}
	if payload.JudgingStatus != nil {
		entry.JudgingStatus = *payload.JudgingStatus
	}
}
