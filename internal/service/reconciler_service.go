package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/hackhub-dev/judging-api/internal/dto"
	"github.com/hackhub-dev/judging-api/internal/models"
	"github.com/hackhub-dev/judging-api/internal/repository"
)

// ErrChallengeNotBound indicates a (project, challenge) pair references a
// challenge the judging is not bound to.
var ErrChallengeNotBound = errors.New("challenge not bound to judging")

// ErrChallengeSetRequired indicates the desired challenge set was omitted
// from the request. An explicit empty set is legal and clears every binding;
// an absent field is rejected.
var ErrChallengeSetRequired = errors.New("challenge set is required")

// ReconcilerService keeps a judging's bound challenge set, and its explicit
// (project, challenge) worklist, consistent with a caller-supplied desired
// set without destructive full-replace writes.
type ReconcilerService interface {
	ReconcileChallenges(ctx context.Context, judgingID uint, payload dto.ReconcileChallengesRequest) (dto.ReconcileResult, error)
	AssignProjects(ctx context.Context, judgingID uint, payload dto.PairsRequest) (dto.PairsResult, error)
	RemoveProjects(ctx context.Context, judgingID uint, payload dto.PairsRequest) (dto.PairsResult, error)
}

type reconcilerService struct {
	judgings  repository.JudgingRepository
	bindings  repository.JudgingChallengeRepository
	entries   repository.JudgingEntryRepository
	botScores repository.BotScoreRepository
	cache     *redis.Client
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReconcilerService constructs the assignment reconciler. The cache client
// is shared with the entry service so entry seeding and removal drop the
// judging's cached progress counts.
func NewReconcilerService(
	judgings repository.JudgingRepository,
	bindings repository.JudgingChallengeRepository,
	entries repository.JudgingEntryRepository,
	botScores repository.BotScoreRepository,
	cache *redis.Client,
	validate *validator.Validate,
	logger zerolog.Logger,
) ReconcilerService {
	return &reconcilerService{
		judgings:  judgings,
		bindings:  bindings,
		entries:   entries,
		botScores: botScores,
		cache:     cache,
		validator: validate,
		logger:    logger.With().Str("component", "reconciler_service").Logger(),
		now:       time.Now,
	}
}

// ReconcileChallenges diffs the judging's current bindings against the
// desired set, adds and removes only the difference, and seeds entries from
// bot scores for newly bound challenges. Calling it twice with the same set
// is a no-op on the second call.
func (s *reconcilerService) ReconcileChallenges(ctx context.Context, judgingID uint, payload dto.ReconcileChallengesRequest) (dto.ReconcileResult, error) {
	tracer := otel.Tracer("github.com/hackhub-dev/judging-api/internal/service/reconciler")
	ctx, span := tracer.Start(ctx, "reconcile.challenges")
	span.SetAttributes(
		attribute.Int64("reconcile.judging_id", int64(judgingID)),
		attribute.Int("reconcile.desired_count", len(payload.ChallengeIDs)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ReconcileResult{}, err
	}

	// A JSON body without the field decodes to nil; "challenge_ids": []
	// decodes to an empty non-nil slice. Only the latter means clear-all.
	if payload.ChallengeIDs == nil {
		span.SetStatus(codes.Error, "challenge_set_missing")
		return dto.ReconcileResult{}, ErrChallengeSetRequired
	}

	judging, err := s.judgings.GetByID(ctx, judgingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "judging_not_found")
			return dto.ReconcileResult{}, ErrJudgingNotFound
		}
		span.RecordError(err)
		return dto.ReconcileResult{}, fmt.Errorf("load judging: %w", err)
	}

	current, err := s.bindings.ListByJudging(ctx, judgingID)
	if err != nil {
		span.RecordError(err)
		return dto.ReconcileResult{}, fmt.Errorf("list bindings: %w", err)
	}

	currentSet := make(map[uint]struct{}, len(current))
	for _, binding := range current {
		currentSet[binding.ChallengeID] = struct{}{}
	}

	desiredSet := make(map[uint]struct{}, len(payload.ChallengeIDs))
	toAdd := make([]uint, 0)
	for _, id := range payload.ChallengeIDs {
		if _, seen := desiredSet[id]; seen {
			continue
		}
		desiredSet[id] = struct{}{}
		if _, bound := currentSet[id]; !bound {
			toAdd = append(toAdd, id)
		}
	}

	toRemove := make([]uint, 0)
	for _, binding := range current {
		if _, wanted := desiredSet[binding.ChallengeID]; !wanted {
			toRemove = append(toRemove, binding.ChallengeID)
		}
	}

	if len(toAdd) == 0 && len(toRemove) == 0 {
		span.SetAttributes(attribute.Bool("reconcile.noop", true))
		return dto.ReconcileResult{TotalChallenges: len(current)}, nil
	}

	diff := repository.ChallengeDiff{
		JudgingID:          judgingID,
		RemoveChallengeIDs: toRemove,
		ResetSubmitted:     judging.IsSubmitted && len(toAdd) > 0,
	}

	for _, id := range toAdd {
		diff.Add = append(diff.Add, models.JudgingChallenge{
			JudgingID:   judgingID,
			ChallengeID: id,
		})
	}

	if len(toAdd) > 0 {
		scores, err := s.botScores.ListByChallenges(ctx, toAdd)
		if err != nil {
			span.RecordError(err)
			return dto.ReconcileResult{}, fmt.Errorf("list bot scores: %w", err)
		}
		for _, score := range scores {
			diff.SeedEntries = append(diff.SeedEntries, seedEntryFromBotScore(judgingID, score))
		}
	}

	if err := s.bindings.ApplyDiff(ctx, diff); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply_diff_failed")
		return dto.ReconcileResult{}, fmt.Errorf("apply challenge diff: %w", err)
	}

	s.invalidateProgress(ctx, judgingID)

	result := dto.ReconcileResult{
		ChallengesAdded:   len(toAdd),
		ChallengesRemoved: len(toRemove),
		TotalChallenges:   len(current) + len(toAdd) - len(toRemove),
	}

	span.SetAttributes(
		attribute.Int("reconcile.added", result.ChallengesAdded),
		attribute.Int("reconcile.removed", result.ChallengesRemoved),
		attribute.Int("reconcile.seeded", len(diff.SeedEntries)),
	)

	s.logger.Info().
		Uint("judging_id", judgingID).
		Int("added", result.ChallengesAdded).
		Int("removed", result.ChallengesRemoved).
		Int("seeded", len(diff.SeedEntries)).
		Msg("challenge bindings reconciled")

	return result, nil
}

// AssignProjects hands the judge a curated worklist of explicit
// (project, challenge) pairs. Pairs already present are skipped; pairs with
// a bot score are seeded from it.
func (s *reconcilerService) AssignProjects(ctx context.Context, judgingID uint, payload dto.PairsRequest) (dto.PairsResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PairsResult{}, err
	}

	boundChallenges, existing, err := s.loadWorklist(ctx, judgingID)
	if err != nil {
		return dto.PairsResult{}, err
	}

	toCreate := make([]models.JudgingEntry, 0, len(payload.Pairs))
	for _, pair := range payload.Pairs {
		if _, bound := boundChallenges[pair.ChallengeID]; !bound {
			return dto.PairsResult{}, ErrChallengeNotBound
		}
		key := repository.ProjectChallengePair{ProjectID: pair.ProjectID, ChallengeID: pair.ChallengeID}
		if _, present := existing[key]; present {
			continue
		}

		entry := models.JudgingEntry{
			JudgingID:     judgingID,
			ProjectID:     pair.ProjectID,
			ChallengeID:   pair.ChallengeID,
			JudgingStatus: models.EntryStatusNeedsReview,
		}
		if score, err := s.botScores.GetByPair(ctx, pair.ProjectID, pair.ChallengeID); err == nil {
			entry = seedEntryFromBotScore(judgingID, score)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PairsResult{}, fmt.Errorf("load bot score: %w", err)
		}
		toCreate = append(toCreate, entry)
	}

	if err := s.entries.CreatePairs(ctx, toCreate); err != nil {
		return dto.PairsResult{}, fmt.Errorf("create entries: %w", err)
	}

	if len(toCreate) > 0 {
		s.invalidateProgress(ctx, judgingID)
	}

	return dto.PairsResult{EntriesAdded: len(toCreate)}, nil
}

// RemoveProjects deletes the entries for the named pairs. Unknown pairs are
// ignored, so a repeated removal stays idempotent.
func (s *reconcilerService) RemoveProjects(ctx context.Context, judgingID uint, payload dto.PairsRequest) (dto.PairsResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PairsResult{}, err
	}

	_, existing, err := s.loadWorklist(ctx, judgingID)
	if err != nil {
		return dto.PairsResult{}, err
	}

	toRemove := make([]repository.ProjectChallengePair, 0, len(payload.Pairs))
	for _, pair := range payload.Pairs {
		key := repository.ProjectChallengePair{ProjectID: pair.ProjectID, ChallengeID: pair.ChallengeID}
		if _, present := existing[key]; present {
			toRemove = append(toRemove, key)
		}
	}

	if err := s.entries.DeletePairs(ctx, judgingID, toRemove); err != nil {
		return dto.PairsResult{}, fmt.Errorf("delete entries: %w", err)
	}

	if len(toRemove) > 0 {
		s.invalidateProgress(ctx, judgingID)
	}

	return dto.PairsResult{EntriesRemoved: len(toRemove)}, nil
}

func (s *reconcilerService) loadWorklist(ctx context.Context, judgingID uint) (map[uint]struct{}, map[repository.ProjectChallengePair]struct{}, error) {
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

	boundChallenges := make(map[uint]struct{}, len(bindings))
	for _, binding := range bindings {
		boundChallenges[binding.ChallengeID] = struct{}{}
	}

	entries, err := s.entries.ListByJudging(ctx, judgingID)
	if err != nil {
		return nil, nil, fmt.Errorf("list entries: %w", err)
	}

	existing := make(map[repository.ProjectChallengePair]struct{}, len(entries))
	for _, entry := range entries {
		existing[repository.ProjectChallengePair{ProjectID: entry.ProjectID, ChallengeID: entry.ChallengeID}] = struct{}{}
	}

	return boundChallenges, existing, nil
}

func (s *reconcilerService) invalidateProgress(ctx context.Context, judgingID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, progressCacheKey(judgingID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("judging_id", judgingID).Msg("failed to invalidate progress cache")
	}
}

// seedEntryFromBotScore copies the bot's baseline into a fresh entry. The
// entry starts in needs_review with flag fields empty.
func seedEntryFromBotScore(judgingID uint, score models.BotScore) models.JudgingEntry {
	scoreID := score.ID
	return models.JudgingEntry{
		JudgingID:          judgingID,
		ProjectID:          score.ProjectID,
		ChallengeID:        score.ChallengeID,
		Score:              score.Score,
		TechnicalScore:     score.TechnicalScore,
		TechnicalFeedback:  score.TechnicalFeedback,
		BusinessScore:      score.BusinessScore,
		BusinessFeedback:   score.BusinessFeedback,
		InnovationScore:    score.InnovationScore,
		InnovationFeedback: score.InnovationFeedback,
		UXScore:            score.UXScore,
		UXFeedback:         score.UXFeedback,
		GeneralComments:    score.Summary,
		JudgingStatus:      models.EntryStatusNeedsReview,
		BotScoreID:         &scoreID,
	}
}
