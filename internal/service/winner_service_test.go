package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hackhub-dev/judging-api/internal/dto"
	"github.com/hackhub-dev/judging-api/internal/models"
	"github.com/hackhub-dev/judging-api/internal/repository"
)

func newWinnerService(db *gorm.DB) WinnerService {
	return NewWinnerService(
		repository.NewJudgingRepository(db),
		repository.NewJudgingChallengeRepository(db),
		repository.NewJudgingEntryRepository(db),
		repository.NewChallengeRepository(db),
		repository.NewProjectRepository(db),
		repository.NewWinnerRepository(db),
		nil,
		validator.New(validator.WithRequiredStructEnabled()),
		nil,
		testLogger(),
	)
}

// seedWinnerFixture builds challenge 7 with a prize, two judgings (3 and 9)
// bound to it, and project 10 competing in it.
func seedWinnerFixture(t *testing.T, db *gorm.DB) models.ChallengePrize {
	t.Helper()

	require.NoError(t, db.Create(&models.Judging{ID: 3, UserID: 30}).Error)
	require.NoError(t, db.Create(&models.Judging{ID: 9, UserID: 90}).Error)
	challenge := models.Challenge{ID: 7, Title: "Open Track"}
	require.NoError(t, db.Create(&challenge).Error)
	prize := models.ChallengePrize{ChallengeID: 7, Title: "Grand Prize", Rank: 1}
	require.NoError(t, db.Create(&prize).Error)
	require.NoError(t, db.Create(&models.JudgingChallenge{JudgingID: 3, ChallengeID: 7}).Error)
	require.NoError(t, db.Create(&models.JudgingChallenge{JudgingID: 9, ChallengeID: 7}).Error)

	team := models.Team{Name: "Night Owls"}
	require.NoError(t, db.Create(&team).Error)
	project := models.Project{ID: 10, Title: "Sleep Tracker", TeamID: team.ID}
	require.NoError(t, db.Create(&project).Error)
	require.NoError(t, db.Model(&project).Association("Challenges").Append(&challenge))

	return prize
}

func TestSetWinnerAssignerIsExclusivePerChallenge(t *testing.T) {
	db := newTestDB(t)
	svc := newWinnerService(db)
	seedWinnerFixture(t, db)

	first, err := svc.SetWinnerAssigner(context.Background(), 7, dto.SetWinnerAssignerRequest{JudgingID: 3, IsWinnerAssigner: true}, ActivityActor{ID: 1, Role: "organizer"})
	require.NoError(t, err)
	require.True(t, first.IsWinnerAssigner)

	// Promoting judging 9 demotes judging 3 in the same transaction.
	second, err := svc.SetWinnerAssigner(context.Background(), 7, dto.SetWinnerAssignerRequest{JudgingID: 9, IsWinnerAssigner: true}, ActivityActor{ID: 1, Role: "organizer"})
	require.NoError(t, err)
	require.True(t, second.IsWinnerAssigner)

	var assigners []models.JudgingChallenge
	require.NoError(t, db.Where("challenge_id = ? AND is_winner_assigner = ?", 7, true).Find(&assigners).Error)
	require.Len(t, assigners, 1)
	require.Equal(t, uint(9), assigners[0].JudgingID)
}

func TestSetWinnerAssignerUnknownBinding(t *testing.T) {
	db := newTestDB(t)
	svc := newWinnerService(db)
	seedWinnerFixture(t, db)

	_, err := svc.SetWinnerAssigner(context.Background(), 7, dto.SetWinnerAssignerRequest{JudgingID: 999, IsWinnerAssigner: true}, ActivityActor{ID: 1, Role: "organizer"})
	require.ErrorIs(t, err, ErrBindingNotFound)
}

func TestSubmitWinnersRejectsNonAssignerWithoutPersisting(t *testing.T) {
	db := newTestDB(t)
	svc := newWinnerService(db)
	prize := seedWinnerFixture(t, db)

	_, err := svc.SetWinnerAssigner(context.Background(), 7, dto.SetWinnerAssignerRequest{JudgingID: 3, IsWinnerAssigner: true}, ActivityActor{ID: 1, Role: "organizer"})
	require.NoError(t, err)

	_, err = svc.SubmitWinners(context.Background(), 9, dto.SubmitWinnersRequest{Winners: []dto.WinnerTupleRequest{
		{ChallengeID: 7, ProjectID: 10, PrizeID: prize.ID},
	}}, ActivityActor{ID: 90, Role: "judge"})
	require.ErrorIs(t, err, ErrNotWinnerAssigner)

	var winnerCount int64
	require.NoError(t, db.Model(&models.ChallengeWinner{}).Count(&winnerCount).Error)
	require.Zero(t, winnerCount)

	var binding models.JudgingChallenge
	require.NoError(t, db.Where("judging_id = ? AND challenge_id = ?", 9, 7).First(&binding).Error)
	require.False(t, binding.SubmittedWinners)
}

func TestSubmitWinnersPersistsAndMarksBinding(t *testing.T) {
	db := newTestDB(t)
	svc := newWinnerService(db)
	prize := seedWinnerFixture(t, db)

	_, err := svc.SetWinnerAssigner(context.Background(), 7, dto.SetWinnerAssignerRequest{JudgingID: 3, IsWinnerAssigner: true}, ActivityActor{ID: 1, Role: "organizer"})
	require.NoError(t, err)

	result, err := svc.SubmitWinners(context.Background(), 3, dto.SubmitWinnersRequest{Winners: []dto.WinnerTupleRequest{
		{ChallengeID: 7, ProjectID: 10, PrizeID: prize.ID},
	}}, ActivityActor{ID: 30, Role: "judge"})
	require.NoError(t, err)
	require.Equal(t, 1, result.WinnersSubmitted)
	require.Equal(t, 1, result.ChallengesMarked)

	var winner models.ChallengeWinner
	require.NoError(t, db.Where("challenge_id = ? AND prize_id = ? AND project_id = ?", 7, prize.ID, 10).First(&winner).Error)
	require.Equal(t, uint(3), winner.JudgingID)

	var binding models.JudgingChallenge
	require.NoError(t, db.Where("judging_id = ? AND challenge_id = ?", 3, 7).First(&binding).Error)
	require.True(t, binding.SubmittedWinners)

	// Submitting the same tuple again is absorbed by the unique index.
	again, err := svc.SubmitWinners(context.Background(), 3, dto.SubmitWinnersRequest{Winners: []dto.WinnerTupleRequest{
		{ChallengeID: 7, ProjectID: 10, PrizeID: prize.ID},
	}}, ActivityActor{ID: 30, Role: "judge"})
	require.NoError(t, err)
	require.Equal(t, 1, again.WinnersSubmitted)

	var winnerCount int64
	require.NoError(t, db.Model(&models.ChallengeWinner{}).Count(&winnerCount).Error)
	require.EqualValues(t, 1, winnerCount)
}

func TestSubmitWinnersRejectsForeignPrizeAndProject(t *testing.T) {
	db := newTestDB(t)
	svc := newWinnerService(db)
	prize := seedWinnerFixture(t, db)

	otherChallenge := models.Challenge{ID: 8, Title: "Side Track"}
	require.NoError(t, db.Create(&otherChallenge).Error)
	otherPrize := models.ChallengePrize{ChallengeID: 8, Title: "Runner Up", Rank: 2}
	require.NoError(t, db.Create(&otherPrize).Error)

	_, err := svc.SetWinnerAssigner(context.Background(), 7, dto.SetWinnerAssignerRequest{JudgingID: 3, IsWinnerAssigner: true}, ActivityActor{ID: 1, Role: "organizer"})
	require.NoError(t, err)

	_, err = svc.SubmitWinners(context.Background(), 3, dto.SubmitWinnersRequest{Winners: []dto.WinnerTupleRequest{
		{ChallengeID: 7, ProjectID: 10, PrizeID: otherPrize.ID},
	}}, ActivityActor{ID: 30, Role: "judge"})
	require.ErrorIs(t, err, ErrInvalidWinnerTuple)

	_, err = svc.SubmitWinners(context.Background(), 3, dto.SubmitWinnersRequest{Winners: []dto.WinnerTupleRequest{
		{ChallengeID: 7, ProjectID: 999, PrizeID: prize.ID},
	}}, ActivityActor{ID: 30, Role: "judge"})
	require.ErrorIs(t, err, ErrInvalidWinnerTuple)

	var winnerCount int64
	require.NoError(t, db.Model(&models.ChallengeWinner{}).Count(&winnerCount).Error)
	require.Zero(t, winnerCount)
}

func TestGetChallengeViewsRequireAssigner(t *testing.T) {
	db := newTestDB(t)
	svc := newWinnerService(db)
	seedWinnerFixture(t, db)

	_, err := svc.GetChallengeJudges(context.Background(), 3, 7)
	require.ErrorIs(t, err, ErrNotWinnerAssigner)

	_, err = svc.SetWinnerAssigner(context.Background(), 7, dto.SetWinnerAssignerRequest{JudgingID: 3, IsWinnerAssigner: true}, ActivityActor{ID: 1, Role: "organizer"})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.JudgingEntry{
		JudgingID:     9,
		ProjectID:     10,
		ChallengeID:   7,
		Score:         8,
		JudgingStatus: models.EntryStatusJudged,
	}).Error)

	judges, err := svc.GetChallengeJudges(context.Background(), 3, 7)
	require.NoError(t, err)
	require.Len(t, judges, 2)

	projects, err := svc.GetChallengeProjects(context.Background(), 3, 7)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, uint(10), projects[0].ProjectID)
	require.Equal(t, 8.0, projects[0].AverageScore)
	require.Equal(t, 1, projects[0].EntryCount)
}
