package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hackhub-dev/judging-api/internal/dto"
	"github.com/hackhub-dev/judging-api/internal/models"
	"github.com/hackhub-dev/judging-api/internal/repository"
	"github.com/hackhub-dev/judging-api/pkg/ai"
)

// ErrProjectNotFound indicates the requested project does not exist.
var ErrProjectNotFound = errors.New("project not found")

// ErrChallengeNotFound indicates the requested challenge does not exist.
var ErrChallengeNotFound = errors.New("challenge not found")

// ErrBotScoreNotFound indicates no bot score exists for the pair.
var ErrBotScoreNotFound = errors.New("bot score not found")

// ErrJudgeUnavailable indicates no AI judge backend is configured.
var ErrJudgeUnavailable = errors.New("ai judge is not configured")

// BotJudgeService runs AI pre-scoring for (project, challenge) pairs and
// stores the result as an upserted bot score.
type BotJudgeService interface {
	Evaluate(ctx context.Context, payload dto.BotEvaluateRequest, actor ActivityActor) (dto.BotScoreResponse, error)
	GetScore(ctx context.Context, projectID, challengeID uint) (dto.BotScoreResponse, error)
}

type botJudgeService struct {
	judge      ai.Judge
	projects   repository.ProjectRepository
	challenges repository.ChallengeRepository
	botScores  repository.BotScoreRepository
	validator  *validator.Validate
	activity   ActivityRecorder
	logger     zerolog.Logger
	provider   string
	model      string
}

// NewBotJudgeService constructs the bot judging service. judge may be nil
// when no AI backend is configured; Evaluate then fails fast.
func NewBotJudgeService(
	judge ai.Judge,
	projects repository.ProjectRepository,
	challenges repository.ChallengeRepository,
	botScores repository.BotScoreRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
	provider, model string,
) BotJudgeService {
	return &botJudgeService{
		judge:      judge,
		projects:   projects,
		challenges: challenges,
		botScores:  botScores,
		validator:  validate,
		activity:   activity,
		logger:     logger.With().Str("component", "bot_judge_service").Logger(),
		provider:   provider,
		model:      model,
	}
}

func (s *botJudgeService) Evaluate(ctx context.Context, payload dto.BotEvaluateRequest, actor ActivityActor) (dto.BotScoreResponse, error) {
	tracer := otel.Tracer("github.com/hackhub-dev/judging-api/internal/service/botjudge")
	ctx, span := tracer.Start(ctx, "botjudge.evaluate")
	span.SetAttributes(
		attribute.Int64("botjudge.project_id", int64(payload.ProjectID)),
		attribute.Int64("botjudge.challenge_id", int64(payload.ChallengeID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.BotScoreResponse{}, err
	}

	if s.judge == nil {
		span.SetStatus(codes.Error, "judge_unavailable")
		return dto.BotScoreResponse{}, ErrJudgeUnavailable
	}

	project, err := s.projects.GetByID(ctx, payload.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BotScoreResponse{}, ErrProjectNotFound
		}
		return dto.BotScoreResponse{}, fmt.Errorf("load project: %w", err)
	}

	challenge, err := s.challenges.GetByID(ctx, payload.ChallengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BotScoreResponse{}, ErrChallengeNotFound
		}
		return dto.BotScoreResponse{}, fmt.Errorf("load challenge: %w", err)
	}

	result, err := s.judge.Judge(ctx, ai.JudgeInput{
		ProjectTitle:         project.Title,
		ProjectTagLine:       project.TagLine,
		ProjectDescription:   project.Description,
		ChallengeTitle:       challenge.Title,
		ChallengeDescription: challenge.Description,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "judge_failed")
		return dto.BotScoreResponse{}, fmt.Errorf("ai judge: %w", err)
	}

	score := models.BotScore{
		ProjectID:          payload.ProjectID,
		ChallengeID:        payload.ChallengeID,
		Score:              result.Score,
		TechnicalScore:     result.Technical.Score,
		TechnicalFeedback:  result.Technical.Feedback,
		BusinessScore:      result.Business.Score,
		BusinessFeedback:   result.Business.Feedback,
		InnovationScore:    result.Innovation.Score,
		InnovationFeedback: result.Innovation.Feedback,
		UXScore:            result.UX.Score,
		UXFeedback:         result.UX.Feedback,
		Summary:            result.Summary,
		AIJudged:           true,
		Provider:           s.provider,
		Model:              s.model,
		Raw:                datatypes.JSONMap(result.Raw),
	}

	if err := s.botScores.Upsert(ctx, &score); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		return dto.BotScoreResponse{}, fmt.Errorf("persist bot score: %w", err)
	}

	if s.activity != nil {
		scoreID := score.ID
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "bot_score.evaluated",
			EntityType: "bot_score",
			EntityID:   &scoreID,
			Metadata: map[string]interface{}{
				"project_id":   payload.ProjectID,
				"challenge_id": payload.ChallengeID,
				"score":        result.Score,
			},
		})
	}

	s.logger.Info().
		Uint("project_id", payload.ProjectID).
		Uint("challenge_id", payload.ChallengeID).
		Float64("score", result.Score).
		Msg("bot score evaluated")

	return dto.NewBotScoreResponse(score), nil
}

func (s *botJudgeService) GetScore(ctx context.Context, projectID, challengeID uint) (dto.BotScoreResponse, error) {
	score, err := s.botScores.GetByPair(ctx, projectID, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BotScoreResponse{}, ErrBotScoreNotFound
		}
		return dto.BotScoreResponse{}, fmt.Errorf("load bot score: %w", err)
	}
	return dto.NewBotScoreResponse(score), nil
}
