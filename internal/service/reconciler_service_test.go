package service

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hackhub-dev/judging-api/internal/dto"
	"github.com/hackhub-dev/judging-api/internal/models"
	"github.com/hackhub-dev/judging-api/internal/repository"
)

func newReconciler(db *gorm.DB, cache *redis.Client) ReconcilerService {
	return NewReconcilerService(
		repository.NewJudgingRepository(db),
		repository.NewJudgingChallengeRepository(db),
		repository.NewJudgingEntryRepository(db),
		repository.NewBotScoreRepository(db),
		cache,
		validator.New(validator.WithRequiredStructEnabled()),
		testLogger(),
	)
}

func TestReconcileChallengesIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newReconciler(db, nil)

	judging := models.Judging{UserID: 1}
	require.NoError(t, db.Create(&judging).Error)
	for _, title := range []string{"AI Track", "Fintech Track", "Climate Track"} {
		require.NoError(t, db.Create(&models.Challenge{Title: title}).Error)
	}

	first, err := svc.ReconcileChallenges(context.Background(), judging.ID, dto.ReconcileChallengesRequest{ChallengeIDs: []uint{1, 2}})
	require.NoError(t, err)
	require.Equal(t, 2, first.ChallengesAdded)
	require.Equal(t, 0, first.ChallengesRemoved)
	require.Equal(t, 2, first.TotalChallenges)

	// Same desired set again: nothing changes.
	second, err := svc.ReconcileChallenges(context.Background(), judging.ID, dto.ReconcileChallengesRequest{ChallengeIDs: []uint{2, 1}})
	require.NoError(t, err)
	require.Equal(t, 0, second.ChallengesAdded)
	require.Equal(t, 0, second.ChallengesRemoved)
	require.Equal(t, 2, second.TotalChallenges)

	third, err := svc.ReconcileChallenges(context.Background(), judging.ID, dto.ReconcileChallengesRequest{ChallengeIDs: []uint{2, 3}})
	require.NoError(t, err)
	require.Equal(t, 1, third.ChallengesAdded)
	require.Equal(t, 1, third.ChallengesRemoved)
	require.Equal(t, 2, third.TotalChallenges)

	var bound []models.JudgingChallenge
	require.NoError(t, db.Where("judging_id = ?", judging.ID).Order("challenge_id").Find(&bound).Error)
	require.Len(t, bound, 2)
	require.Equal(t, uint(2), bound[0].ChallengeID)
	require.Equal(t, uint(3), bound[1].ChallengeID)
}

func TestReconcileChallengesRemovalDeletesEntries(t *testing.T) {
	db := newTestDB(t)
	svc := newReconciler(db, nil)

	judging := models.Judging{UserID: 5}
	require.NoError(t, db.Create(&judging).Error)
	require.NoError(t, db.Create(&models.Challenge{Title: "Web3 Track"}).Error)
	require.NoError(t, db.Create(&models.JudgingChallenge{JudgingID: judging.ID, ChallengeID: 1}).Error)
	require.NoError(t, db.Create(&models.JudgingEntry{
		JudgingID:     judging.ID,
		ProjectID:     20,
		ChallengeID:   1,
		JudgingStatus: models.EntryStatusJudged,
	}).Error)

	result, err := svc.ReconcileChallenges(context.Background(), judging.ID, dto.ReconcileChallengesRequest{ChallengeIDs: []uint{}})
	require.NoError(t, err)
	require.Equal(t, 1, result.ChallengesRemoved)
	require.Equal(t, 0, result.TotalChallenges)

	var entryCount int64
	require.NoError(t, db.Model(&models.JudgingEntry{}).Where("judging_id = ?", judging.ID).Count(&entryCount).Error)
	require.Zero(t, entryCount)
}

func TestReconcileChallengesSeedsEntriesFromBotScores(t *testing.T) {
	db := newTestDB(t)
	svc := newReconciler(db, nil)

	judging := models.Judging{ID: 7, UserID: 70}
	require.NoError(t, db.Create(&judging).Error)
	require.NoError(t, db.Create(&models.Challenge{ID: 3, Title: "Health Track"}).Error)
	require.NoError(t, db.Create(&models.BotScore{
		ProjectID:         10,
		ChallengeID:       3,
		Score:             7.5,
		TechnicalScore:    8,
		TechnicalFeedback: "Solid architecture",
		Summary:           "Promising prototype",
		AIJudged:          true,
	}).Error)

	result, err := svc.ReconcileChallenges(context.Background(), 7, dto.ReconcileChallengesRequest{ChallengeIDs: []uint{3}})
	require.NoError(t, err)
	require.Equal(t, 1, result.ChallengesAdded)

	entries := repository.NewJudgingEntryRepository(db)
	entry, err := entries.Get(context.Background(), 7, 10, 3)
	require.NoError(t, err)
	require.Equal(t, models.EntryStatusNeedsReview, entry.JudgingStatus)
	require.Equal(t, 7.5, entry.Score)
	require.Equal(t, "Solid architecture", entry.TechnicalFeedback)
	require.Equal(t, "Promising prototype", entry.GeneralComments)
	require.NotNil(t, entry.BotScoreID)
	require.False(t, entry.Editable())
}

func TestReconcileChallengesResetsSubmittedFlag(t *testing.T) {
	db := newTestDB(t)
	svc := newReconciler(db, nil)

	judging := models.Judging{UserID: 4, IsSubmitted: true}
	require.NoError(t, db.Create(&judging).Error)
	require.NoError(t, db.Create(&models.Challenge{Title: "AI Track"}).Error)
	require.NoError(t, db.Create(&models.Challenge{Title: "Fintech Track"}).Error)
	require.NoError(t, db.Create(&models.JudgingChallenge{JudgingID: judging.ID, ChallengeID: 1}).Error)

	// Removing a binding alone leaves the submitted flag untouched.
	_, err := svc.ReconcileChallenges(context.Background(), judging.ID, dto.ReconcileChallengesRequest{ChallengeIDs: []uint{}})
	require.NoError(t, err)

	var reloaded models.Judging
	require.NoError(t, db.First(&reloaded, judging.ID).Error)
	require.True(t, reloaded.IsSubmitted)

	// A new binding means new work, so the judging is no longer submitted.
	_, err = svc.ReconcileChallenges(context.Background(), judging.ID, dto.ReconcileChallengesRequest{ChallengeIDs: []uint{2}})
	require.NoError(t, err)

	require.NoError(t, db.First(&reloaded, judging.ID).Error)
	require.False(t, reloaded.IsSubmitted)
}

func TestReconcileChallengesRequiresChallengeSet(t *testing.T) {
	db := newTestDB(t)
	svc := newReconciler(db, nil)

	judging := models.Judging{UserID: 6}
	require.NoError(t, db.Create(&judging).Error)
	require.NoError(t, db.Create(&models.Challenge{Title: "AI Track"}).Error)
	require.NoError(t, db.Create(&models.JudgingChallenge{JudgingID: judging.ID, ChallengeID: 1}).Error)

	// A nil set, as decoded from a body without the field, changes nothing.
	_, err := svc.ReconcileChallenges(context.Background(), judging.ID, dto.ReconcileChallengesRequest{})
	require.ErrorIs(t, err, ErrChallengeSetRequired)

	var bindingCount int64
	require.NoError(t, db.Model(&models.JudgingChallenge{}).Where("judging_id = ?", judging.ID).Count(&bindingCount).Error)
	require.EqualValues(t, 1, bindingCount)
}

func TestReconcilerInvalidatesProgressCache(t *testing.T) {
	db := newTestDB(t)

	server := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: server.Addr()})
	svc := newReconciler(db, cache)
	entrySvc := newEntryService(db, cache)

	judging := models.Judging{UserID: 8}
	require.NoError(t, db.Create(&judging).Error)
	require.NoError(t, db.Create(&models.Challenge{Title: "AI Track"}).Error)
	require.NoError(t, db.Create(&models.BotScore{
		ProjectID:   10,
		ChallengeID: 1,
		Score:       7,
		AIJudged:    true,
	}).Error)

	// Warm the cache before any entries exist.
	progress, err := entrySvc.GetProgress(context.Background(), judging.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, progress.Total)

	// Binding the challenge seeds an entry from the bot score; the cached
	// zero must not survive it.
	_, err = svc.ReconcileChallenges(context.Background(), judging.ID, dto.ReconcileChallengesRequest{ChallengeIDs: []uint{1}})
	require.NoError(t, err)

	progress, err = entrySvc.GetProgress(context.Background(), judging.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, progress.Total)

	_, err = svc.AssignProjects(context.Background(), judging.ID, dto.PairsRequest{Pairs: []dto.ProjectChallengePairRequest{
		{ProjectID: 11, ChallengeID: 1},
	}})
	require.NoError(t, err)

	progress, err = entrySvc.GetProgress(context.Background(), judging.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, progress.Total)

	_, err = svc.RemoveProjects(context.Background(), judging.ID, dto.PairsRequest{Pairs: []dto.ProjectChallengePairRequest{
		{ProjectID: 11, ChallengeID: 1},
	}})
	require.NoError(t, err)

	progress, err = entrySvc.GetProgress(context.Background(), judging.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, progress.Total)
}

func TestAssignAndRemoveProjects(t *testing.T) {
	db := newTestDB(t)
	svc := newReconciler(db, nil)

	judging := models.Judging{UserID: 9}
	require.NoError(t, db.Create(&judging).Error)
	require.NoError(t, db.Create(&models.Challenge{Title: "Gaming Track"}).Error)
	require.NoError(t, db.Create(&models.JudgingChallenge{JudgingID: judging.ID, ChallengeID: 1}).Error)

	pairs := dto.PairsRequest{Pairs: []dto.ProjectChallengePairRequest{
		{ProjectID: 11, ChallengeID: 1},
		{ProjectID: 12, ChallengeID: 1},
	}}

	added, err := svc.AssignProjects(context.Background(), judging.ID, pairs)
	require.NoError(t, err)
	require.Equal(t, 2, added.EntriesAdded)

	// Re-assigning the same pairs is a no-op.
	again, err := svc.AssignProjects(context.Background(), judging.ID, pairs)
	require.NoError(t, err)
	require.Equal(t, 0, again.EntriesAdded)

	_, err = svc.AssignProjects(context.Background(), judging.ID, dto.PairsRequest{Pairs: []dto.ProjectChallengePairRequest{
		{ProjectID: 11, ChallengeID: 99},
	}})
	require.ErrorIs(t, err, ErrChallengeNotBound)

	removed, err := svc.RemoveProjects(context.Background(), judging.ID, dto.PairsRequest{Pairs: []dto.ProjectChallengePairRequest{
		{ProjectID: 11, ChallengeID: 1},
		{ProjectID: 99, ChallengeID: 1},
	}})
	require.NoError(t, err)
	require.Equal(t, 1, removed.EntriesRemoved)

	var entryCount int64
	require.NoError(t, db.Model(&models.JudgingEntry{}).Where("judging_id = ?", judging.ID).Count(&entryCount).Error)
	require.EqualValues(t, 1, entryCount)
}
