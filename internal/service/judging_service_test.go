package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hackhub-dev/judging-api/internal/models"
	"github.com/hackhub-dev/judging-api/internal/repository"
)

func TestJudgingServiceCreateRejectsDuplicateUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewJudgingService(repository.NewJudgingRepository(db), repository.NewJudgingEntryRepository(db), testLogger())

	first, err := svc.Create(context.Background(), 42)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	_, err = svc.Create(context.Background(), 42)
	require.ErrorIs(t, err, ErrJudgingExists)
}

func TestJudgingServiceSubmitBlockedByUnresolvedEntries(t *testing.T) {
	db := newTestDB(t)
	svc := NewJudgingService(repository.NewJudgingRepository(db), repository.NewJudgingEntryRepository(db), testLogger())

	judging := models.Judging{UserID: 7}
	require.NoError(t, db.Create(&judging).Error)
	require.NoError(t, db.Create(&models.JudgingEntry{
		JudgingID:     judging.ID,
		ProjectID:     1,
		ChallengeID:   1,
		JudgingStatus: models.EntryStatusNeedsReview,
	}).Error)

	_, err := svc.Submit(context.Background(), judging.ID)
	require.ErrorIs(t, err, ErrJudgingIncomplete)

	require.NoError(t, db.Model(&models.JudgingEntry{}).
		Where("judging_id = ?", judging.ID).
		Update("judging_status", models.EntryStatusFlagged).Error)

	_, err = svc.Submit(context.Background(), judging.ID)
	require.ErrorIs(t, err, ErrJudgingIncomplete)

	require.NoError(t, db.Model(&models.JudgingEntry{}).
		Where("judging_id = ?", judging.ID).
		Update("judging_status", models.EntryStatusJudged).Error)

	submitted, err := svc.Submit(context.Background(), judging.ID)
	require.NoError(t, err)
	require.True(t, submitted.IsSubmitted)

	// Submitting again is a no-op.
	again, err := svc.Submit(context.Background(), judging.ID)
	require.NoError(t, err)
	require.True(t, again.IsSubmitted)
}

func TestJudgingServiceSubmitNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewJudgingService(repository.NewJudgingRepository(db), repository.NewJudgingEntryRepository(db), testLogger())

	_, err := svc.Submit(context.Background(), 999)
	require.ErrorIs(t, err, ErrJudgingNotFound)
}
