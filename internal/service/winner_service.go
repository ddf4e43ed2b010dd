package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/hackhub-dev/judging-api/internal/dto"
	"github.com/hackhub-dev/judging-api/internal/models"
	"github.com/hackhub-dev/judging-api/internal/repository"
)

// ErrBindingNotFound indicates the (judging, challenge) binding does not exist.
var ErrBindingNotFound = errors.New("judging challenge binding not found")

// ErrNotWinnerAssigner indicates the judging is not the designated winner
// assigner for a challenge it tried to act on.
var ErrNotWinnerAssigner = errors.New("judging is not the winner assigner for challenge")

// ErrInvalidWinnerTuple indicates a winner tuple references a prize or
// project that does not belong to its challenge.
var ErrInvalidWinnerTuple = errors.New("winner tuple references unrelated prize or project")

const winnersSubmittedSubject = "judging.winners.submitted"

// WinnerService manages the exclusive winner-assigner role per challenge and
// commits final winners.
type WinnerService interface {
	SetWinnerAssigner(ctx context.Context, challengeID uint, payload dto.SetWinnerAssignerRequest, actor ActivityActor) (dto.JudgingChallengeResponse, error)
	GetWinnerAssignerChallenges(ctx context.Context, judgingID uint) ([]dto.WinnerChallengeResponse, error)
	GetChallengeJudges(ctx context.Context, judgingID, challengeID uint) ([]dto.ChallengeJudgeResponse, error)
	GetChallengeProjects(ctx context.Context, judgingID, challengeID uint) ([]dto.ChallengeProjectResponse, error)
	SubmitWinners(ctx context.Context, judgingID uint, payload dto.SubmitWinnersRequest, actor ActivityActor) (dto.SubmitWinnersResult, error)
}

type winnerService struct {
	judgings   repository.JudgingRepository
	bindings   repository.JudgingChallengeRepository
	entries    repository.JudgingEntryRepository
	challenges repository.ChallengeRepository
	projects   repository.ProjectRepository
	winners    repository.WinnerRepository
	nats       *nats.Conn
	validator  *validator.Validate
	activity   ActivityRecorder
	logger     zerolog.Logger
	now        func() time.Time
}

// NewWinnerService constructs the winner assignment coordinator.
func NewWinnerService(
	judgings repository.JudgingRepository,
	bindings repository.JudgingChallengeRepository,
	entries repository.JudgingEntryRepository,
	challenges repository.ChallengeRepository,
	projects repository.ProjectRepository,
	winners repository.WinnerRepository,
	natsConn *nats.Conn,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) WinnerService {
	return &winnerService{
		judgings:   judgings,
		bindings:   bindings,
		entries:    entries,
		challenges: challenges,
		projects:   projects,
		winners:    winners,
		nats:       natsConn,
		validator:  validate,
		activity:   activity,
		logger:     logger.With().Str("component", "winner_service").Logger(),
		now:        time.Now,
	}
}

// SetWinnerAssigner promotes or demotes a judging for a challenge. Promotion
// clears every other assigner for the challenge first, inside one storage
// transaction.
func (s *winnerService) SetWinnerAssigner(ctx context.Context, challengeID uint, payload dto.SetWinnerAssignerRequest, actor ActivityActor) (dto.JudgingChallengeResponse, error) {
	tracer := otel.Tracer("github.com/hackhub-dev/judging-api/internal/service/winner")
	ctx, span := tracer.Start(ctx, "winner.set_assigner")
	span.SetAttributes(
		attribute.Int64("winner.challenge_id", int64(challengeID)),
		attribute.Int64("winner.judging_id", int64(payload.JudgingID)),
		attribute.Bool("winner.is_assigner", payload.IsWinnerAssigner),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.JudgingChallengeResponse{}, err
	}

	if err := s.bindings.SetWinnerAssigner(ctx, challengeID, payload.JudgingID, payload.IsWinnerAssigner); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "binding_not_found")
			return dto.JudgingChallengeResponse{}, ErrBindingNotFound
		}
		span.RecordError(err)
		return dto.JudgingChallengeResponse{}, fmt.Errorf("set winner assigner: %w", err)
	}

	binding, err := s.bindings.Get(ctx, payload.JudgingID, challengeID)
	if err != nil {
		return dto.JudgingChallengeResponse{}, fmt.Errorf("reload binding: %w", err)
	}

	if s.activity != nil {
		bindingID := binding.ID
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "winner_assigner.set",
			EntityType: "judging_challenge",
			EntityID:   &bindingID,
			Metadata: map[string]interface{}{
				"challenge_id":       challengeID,
				"judging_id":         payload.JudgingID,
				"is_winner_assigner": payload.IsWinnerAssigner,
			},
		})
	}

	return dto.JudgingChallengeResponse{
		ChallengeID:      binding.ChallengeID,
		IsWinnerAssigner: binding.IsWinnerAssigner,
		SubmittedWinners: binding.SubmittedWinners,
	}, nil
}

func (s *winnerService) GetWinnerAssignerChallenges(ctx context.Context, judgingID uint) ([]dto.WinnerChallengeResponse, error) {
	if _, err := s.judgings.GetByID(ctx, judgingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJudgingNotFound
		}
		return nil, fmt.Errorf("load judging: %w", err)
	}

	bindings, err := s.bindings.ListWinnerAssignerChallenges(ctx, judgingID)
	if err != nil {
		return nil, fmt.Errorf("list assigner challenges: %w", err)
	}

	responses := make([]dto.WinnerChallengeResponse, 0, len(bindings))
	for _, binding := range bindings {
		responses = append(responses, dto.NewWinnerChallengeResponse(binding))
	}

	return responses, nil
}

// GetChallengeJudges lists every judge bound to the challenge with their
// progress on it, for the winner assigner's view.
func (s *winnerService) GetChallengeJudges(ctx context.Context, judgingID, challengeID uint) ([]dto.ChallengeJudgeResponse, error) {
	if err := s.requireAssigner(ctx, judgingID, challengeID); err != nil {
		return nil, err
	}

	bindings, err := s.bindings.ListByChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list challenge bindings: %w", err)
	}

	entries, err := s.entries.ListByChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list challenge entries: %w", err)
	}

	entryCount := make(map[uint]int)
	judgedCount := make(map[uint]int)
	for _, entry := range entries {
		entryCount[entry.JudgingID]++
		if entry.JudgingStatus == models.EntryStatusJudged {
			judgedCount[entry.JudgingID]++
		}
	}

	responses := make([]dto.ChallengeJudgeResponse, 0, len(bindings))
	for _, binding := range bindings {
		judging, err := s.judgings.GetByID(ctx, binding.JudgingID)
		if err != nil {
			return nil, fmt.Errorf("load judging %d: %w", binding.JudgingID, err)
		}
		responses = append(responses, dto.ChallengeJudgeResponse{
			JudgingID:        binding.JudgingID,
			UserID:           judging.UserID,
			IsWinnerAssigner: binding.IsWinnerAssigner,
			EntryCount:       entryCount[binding.JudgingID],
			JudgedCount:      judgedCount[binding.JudgingID],
			IsSubmitted:      judging.IsSubmitted,
		})
	}

	return responses, nil
}

// GetChallengeProjects aggregates every judge's entries for the challenge
// per project, for the winner assigner's view.
func (s *winnerService) GetChallengeProjects(ctx context.Context, judgingID, challengeID uint) ([]dto.ChallengeProjectResponse, error) {
	if err := s.requireAssigner(ctx, judgingID, challengeID); err != nil {
		return nil, err
	}

	entries, err := s.entries.ListByChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list challenge entries: %w", err)
	}

	byProject := make(map[uint]*dto.ChallengeProjectResponse)
	order := make([]uint, 0)
	for _, entry := range entries {
		aggregate, ok := byProject[entry.ProjectID]
		if !ok {
			aggregate = &dto.ChallengeProjectResponse{
				ProjectID: entry.ProjectID,
				Title:     entry.Project.Title,
				TeamName:  entry.Project.Team.Name,
			}
			byProject[entry.ProjectID] = aggregate
			order = append(order, entry.ProjectID)
		}

		aggregate.EntryCount++
		aggregate.Scores = append(aggregate.Scores, dto.JudgeScoreResponse{
			JudgingID:     entry.JudgingID,
			Score:         entry.Score,
			JudgingStatus: entry.JudgingStatus,
		})
	}

	responses := make([]dto.ChallengeProjectResponse, 0, len(order))
	for _, projectID := range order {
		aggregate := byProject[projectID]
		if aggregate.EntryCount > 0 {
			var sum float64
			for _, score := range aggregate.Scores {
				sum += score.Score
			}
			aggregate.AverageScore = sum / float64(aggregate.EntryCount)
		}
		responses = append(responses, *aggregate)
	}

	return responses, nil
}

// SubmitWinners validates that the judging is the assigner for every
// distinct challenge in the tuples, that each prize and project belongs to
// its challenge, then persists everything in one transaction. Nothing is
// persisted on rejection.
func (s *winnerService) SubmitWinners(ctx context.Context, judgingID uint, payload dto.SubmitWinnersRequest, actor ActivityActor) (dto.SubmitWinnersResult, error) {
	tracer := otel.Tracer("github.com/hackhub-dev/judging-api/internal/service/winner")
	ctx, span := tracer.Start(ctx, "winner.submit")
	span.SetAttributes(
		attribute.Int64("winner.judging_id", int64(judgingID)),
		attribute.Int("winner.tuple_count", len(payload.Winners)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmitWinnersResult{}, err
	}

	if _, err := s.judgings.GetByID(ctx, judgingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "judging_not_found")
			return dto.SubmitWinnersResult{}, ErrJudgingNotFound
		}
		span.RecordError(err)
		return dto.SubmitWinnersResult{}, fmt.Errorf("load judging: %w", err)
	}

	challengeIDs := make([]uint, 0)
	seen := make(map[uint]struct{})
	for _, tuple := range payload.Winners {
		if _, ok := seen[tuple.ChallengeID]; ok {
			continue
		}
		seen[tuple.ChallengeID] = struct{}{}
		challengeIDs = append(challengeIDs, tuple.ChallengeID)
	}

	for _, challengeID := range challengeIDs {
		if err := s.requireAssigner(ctx, judgingID, challengeID); err != nil {
			span.SetStatus(codes.Error, "not_winner_assigner")
			return dto.SubmitWinnersResult{}, err
		}
	}

	prizes, err := s.challenges.ListPrizesByChallenges(ctx, challengeIDs)
	if err != nil {
		span.RecordError(err)
		return dto.SubmitWinnersResult{}, fmt.Errorf("list prizes: %w", err)
	}
	prizeChallenge := make(map[uint]uint, len(prizes))
	for _, prize := range prizes {
		prizeChallenge[prize.ID] = prize.ChallengeID
	}

	projectsByChallenge := make(map[uint]map[uint]struct{}, len(challengeIDs))
	for _, challengeID := range challengeIDs {
		projects, err := s.projects.ListByChallenge(ctx, challengeID)
		if err != nil {
			span.RecordError(err)
			return dto.SubmitWinnersResult{}, fmt.Errorf("list challenge projects: %w", err)
		}
		members := make(map[uint]struct{}, len(projects))
		for _, project := range projects {
			members[project.ID] = struct{}{}
		}
		projectsByChallenge[challengeID] = members
	}

	winners := make([]models.ChallengeWinner, 0, len(payload.Winners))
	for _, tuple := range payload.Winners {
		if prizeChallenge[tuple.PrizeID] != tuple.ChallengeID {
			span.SetStatus(codes.Error, "invalid_prize")
			return dto.SubmitWinnersResult{}, ErrInvalidWinnerTuple
		}
		if _, ok := projectsByChallenge[tuple.ChallengeID][tuple.ProjectID]; !ok {
			span.SetStatus(codes.Error, "invalid_project")
			return dto.SubmitWinnersResult{}, ErrInvalidWinnerTuple
		}
		winners = append(winners, models.ChallengeWinner{
			ChallengeID: tuple.ChallengeID,
			ProjectID:   tuple.ProjectID,
			PrizeID:     tuple.PrizeID,
			JudgingID:   judgingID,
		})
	}

	if err := s.winners.SubmitWinners(ctx, judgingID, winners, challengeIDs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		return dto.SubmitWinnersResult{}, fmt.Errorf("persist winners: %w", err)
	}

	s.publishWinners(judgingID, challengeIDs, len(winners))

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "winners.submitted",
			EntityType: "judging",
			EntityID:   &judgingID,
			Metadata: map[string]interface{}{
				"challenge_ids": challengeIDs,
				"winner_count":  len(winners),
			},
		})
	}

	span.SetAttributes(attribute.Int("winner.persisted", len(winners)))

	s.logger.Info().
		Uint("judging_id", judgingID).
		Int("winners", len(winners)).
		Int("challenges", len(challengeIDs)).
		Msg("winners submitted")

	return dto.SubmitWinnersResult{
		WinnersSubmitted: len(winners),
		ChallengesMarked: len(challengeIDs),
	}, nil
}

func (s *winnerService) requireAssigner(ctx context.Context, judgingID, challengeID uint) error {
	binding, err := s.bindings.Get(ctx, judgingID, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBindingNotFound
		}
		return fmt.Errorf("load binding: %w", err)
	}
	if !binding.IsWinnerAssigner {
		return ErrNotWinnerAssigner
	}
	return nil
}

func (s *winnerService) publishWinners(judgingID uint, challengeIDs []uint, count int) {
	if s.nats == nil {
		return
	}

	event := struct {
		JudgingID    uint      `json:"judging_id"`
		ChallengeIDs []uint    `json:"challenge_ids"`
		WinnerCount  int       `json:"winner_count"`
		SubmittedAt  time.Time `json:"submitted_at"`
	}{
		JudgingID:    judgingID,
		ChallengeIDs: challengeIDs,
		WinnerCount:  count,
		SubmittedAt:  s.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode winners event")
		return
	}

	if err := s.nats.Publish(winnersSubmittedSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish winners event")
	}
}
