package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/hackhub-dev/judging-api/internal/dto"
	"github.com/hackhub-dev/judging-api/internal/models"
	"github.com/hackhub-dev/judging-api/internal/repository"
	"github.com/hackhub-dev/judging-api/pkg/ai"
)

type stubJudge struct {
	result ai.JudgeResult
	calls  int
}

func (s *stubJudge) Judge(_ context.Context, _ ai.JudgeInput) (ai.JudgeResult, error) {
	s.calls++
	return s.result, nil
}

func TestBotJudgeServiceEvaluateUpserts(t *testing.T) {
	db := newTestDB(t)

	team := models.Team{Name: "Builders"}
	require.NoError(t, db.Create(&team).Error)
	require.NoError(t, db.Create(&models.Project{ID: 10, Title: "Chat App", TeamID: team.ID}).Error)
	require.NoError(t, db.Create(&models.Challenge{ID: 3, Title: "Social Track"}).Error)

	judge := &stubJudge{result: ai.JudgeResult{
		Score:     7.2,
		Technical: ai.CriterionResult{Score: 8, Feedback: "well structured"},
		Summary:   "strong entry",
	}}

	svc := NewBotJudgeService(
		judge,
		repository.NewProjectRepository(db),
		repository.NewChallengeRepository(db),
		repository.NewBotScoreRepository(db),
		validator.New(validator.WithRequiredStructEnabled()),
		nil,
		testLogger(),
		"openai", "gpt-4o-mini",
	)

	first, err := svc.Evaluate(context.Background(), dto.BotEvaluateRequest{ProjectID: 10, ChallengeID: 3}, ActivityActor{ID: 1, Role: "organizer"})
	require.NoError(t, err)
	require.True(t, first.AIJudged)
	require.Equal(t, 7.2, first.Score)
	require.Equal(t, "well structured", first.TechnicalFeedback)
	require.Equal(t, "openai", first.Provider)

	// Re-evaluating the same pair updates the existing row.
	judge.result.Score = 5.5
	second, err := svc.Evaluate(context.Background(), dto.BotEvaluateRequest{ProjectID: 10, ChallengeID: 3}, ActivityActor{ID: 1, Role: "organizer"})
	require.NoError(t, err)
	require.Equal(t, 5.5, second.Score)
	require.Equal(t, 2, judge.calls)

	var count int64
	require.NoError(t, db.Model(&models.BotScore{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	got, err := svc.GetScore(context.Background(), 10, 3)
	require.NoError(t, err)
	require.Equal(t, 5.5, got.Score)
}

func TestBotJudgeServiceFailsWithoutBackend(t *testing.T) {
	db := newTestDB(t)

	svc := NewBotJudgeService(
		nil,
		repository.NewProjectRepository(db),
		repository.NewChallengeRepository(db),
		repository.NewBotScoreRepository(db),
		validator.New(validator.WithRequiredStructEnabled()),
		nil,
		testLogger(),
		"openai", "",
	)

	_, err := svc.Evaluate(context.Background(), dto.BotEvaluateRequest{ProjectID: 1, ChallengeID: 1}, ActivityActor{})
	require.ErrorIs(t, err, ErrJudgeUnavailable)
}

func TestBotJudgeServiceUnknownProject(t *testing.T) {
	db := newTestDB(t)

	svc := NewBotJudgeService(
		&stubJudge{},
		repository.NewProjectRepository(db),
		repository.NewChallengeRepository(db),
		repository.NewBotScoreRepository(db),
		validator.New(validator.WithRequiredStructEnabled()),
		nil,
		testLogger(),
		"openai", "",
	)

	_, err := svc.Evaluate(context.Background(), dto.BotEvaluateRequest{ProjectID: 77, ChallengeID: 1}, ActivityActor{})
	require.ErrorIs(t, err, ErrProjectNotFound)

	_, err = svc.GetScore(context.Background(), 77, 1)
	require.ErrorIs(t, err, ErrBotScoreNotFound)
}
