package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hackhub-dev/judging-api/internal/dto"
	"github.com/hackhub-dev/judging-api/internal/models"
	"github.com/hackhub-dev/judging-api/internal/repository"
)

func newEntryService(db *gorm.DB, cache *redis.Client) EntryService {
	return NewEntryService(
		repository.NewJudgingRepository(db),
		repository.NewJudgingChallengeRepository(db),
		repository.NewJudgingEntryRepository(db),
		repository.NewProjectRepository(db),
		cache,
		time.Minute,
		validator.New(validator.WithRequiredStructEnabled()),
		nil,
		testLogger(),
	)
}

func seedJudgingWithChallenge(t *testing.T, db *gorm.DB) models.Judging {
	t.Helper()

	judging := models.Judging{UserID: 1}
	require.NoError(t, db.Create(&judging).Error)
	require.NoError(t, db.Create(&models.Challenge{Title: "AI Track"}).Error)
	require.NoError(t, db.Create(&models.JudgingChallenge{JudgingID: judging.ID, ChallengeID: 1}).Error)
	return judging
}

func submitRequest(projectID uint) dto.EntrySubmitRequest {
	return dto.EntrySubmitRequest{
		ProjectID:          projectID,
		ChallengeID:        1,
		Score:              floatPointer(8),
		TechnicalScore:     floatPointer(8),
		TechnicalFeedback:  stringPointer("clean code"),
		BusinessScore:      floatPointer(7),
		BusinessFeedback:   stringPointer("viable"),
		InnovationScore:    floatPointer(9),
		InnovationFeedback: stringPointer("novel"),
		UXScore:            floatPointer(6),
		UXFeedback:         stringPointer("rough edges"),
		JudgingStatus:      models.EntryStatusJudged,
	}
}

func TestEntrySubmitRejectsDuplicateAndUnboundChallenge(t *testing.T) {
	db := newTestDB(t)
	svc := newEntryService(db, nil)
	judging := seedJudgingWithChallenge(t, db)

	entry, err := svc.Submit(context.Background(), judging.ID, submitRequest(10), ActivityActor{ID: 1, Role: "judge"})
	require.NoError(t, err)
	require.Equal(t, models.EntryStatusJudged, entry.JudgingStatus)
	require.True(t, entry.Editable)

	_, err = svc.Submit(context.Background(), judging.ID, submitRequest(10), ActivityActor{ID: 1, Role: "judge"})
	require.ErrorIs(t, err, ErrEntryExists)

	unbound := submitRequest(11)
	unbound.ChallengeID = 99
	_, err = svc.Submit(context.Background(), judging.ID, unbound, ActivityActor{ID: 1, Role: "judge"})
	require.ErrorIs(t, err, ErrChallengeNotBound)
}

func TestEntrySubmitSanitizesFreeText(t *testing.T) {
	db := newTestDB(t)
	svc := newEntryService(db, nil)
	judging := seedJudgingWithChallenge(t, db)

	payload := submitRequest(10)
	payload.TechnicalFeedback = stringPointer("<b>great</b> build")

	entry, err := svc.Submit(context.Background(), judging.ID, payload, ActivityActor{ID: 1, Role: "judge"})
	require.NoError(t, err)
	require.Equal(t, "great build", entry.TechnicalFeedback)
	require.NotContains(t, entry.TechnicalFeedback, "<b>")
}

func TestEntryFlagUnflagRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := newEntryService(db, nil)
	judging := seedJudgingWithChallenge(t, db)

	_, err := svc.Submit(context.Background(), judging.ID, submitRequest(10), ActivityActor{ID: 1, Role: "judge"})
	require.NoError(t, err)

	flagged, err := svc.Flag(context.Background(), judging.ID, dto.FlagEntryRequest{
		ProjectID:   10,
		ChallengeID: 1,
		Reason:      "duplicate submission",
		Comments:    stringPointer("same repo as project 4"),
	}, ActivityActor{ID: 1, Role: "judge"})
	require.NoError(t, err)
	require.Equal(t, models.EntryStatusFlagged, flagged.JudgingStatus)
	require.NotNil(t, flagged.FlaggedReason)
	require.Equal(t, "duplicate submission", *flagged.FlaggedReason)
	// Flagging preserves prior scores.
	require.Equal(t, 8.0, flagged.Score)

	// A flagged entry cannot change status through update.
	status := models.EntryStatusJudged
	_, err = svc.Update(context.Background(), judging.ID, dto.EntryUpdateRequest{
		ProjectID:     10,
		ChallengeID:   1,
		JudgingStatus: &status,
	}, ActivityActor{ID: 1, Role: "judge"})
	require.ErrorIs(t, err, ErrEntryFlagged)

	unflagged, err := svc.Unflag(context.Background(), judging.ID, dto.UnflagEntryRequest{ProjectID: 10, ChallengeID: 1}, ActivityActor{ID: 1, Role: "judge"})
	require.NoError(t, err)
	require.Equal(t, models.EntryStatusNeedsReview, unflagged.JudgingStatus)
	require.Nil(t, unflagged.FlaggedReason)
	require.Nil(t, unflagged.FlaggedComments)
	require.Equal(t, 8.0, unflagged.Score)

	// Unflagging a non-flagged entry is a no-op.
	again, err := svc.Unflag(context.Background(), judging.ID, dto.UnflagEntryRequest{ProjectID: 10, ChallengeID: 1}, ActivityActor{ID: 1, Role: "judge"})
	require.NoError(t, err)
	require.Equal(t, models.EntryStatusNeedsReview, again.JudgingStatus)
}

func TestEntryFlagRejectsReasonThatSanitizesToEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := newEntryService(db, nil)
	judging := seedJudgingWithChallenge(t, db)

	_, err := svc.Submit(context.Background(), judging.ID, submitRequest(10), ActivityActor{ID: 1, Role: "judge"})
	require.NoError(t, err)

	// Markup-only reasons strip down to nothing and must not flag the entry.
	_, err = svc.Flag(context.Background(), judging.ID, dto.FlagEntryRequest{
		ProjectID:   10,
		ChallengeID: 1,
		Reason:      "<b></b>",
	}, ActivityActor{ID: 1, Role: "judge"})
	require.ErrorIs(t, err, ErrFlagReasonRequired)

	entry, err := repository.NewJudgingEntryRepository(db).Get(context.Background(), judging.ID, 10, 1)
	require.NoError(t, err)
	require.Equal(t, models.EntryStatusJudged, entry.JudgingStatus)
	require.Nil(t, entry.FlaggedReason)
}

func TestEntryUpdateLockedByAIJudgedBaseline(t *testing.T) {
	db := newTestDB(t)
	svc := newEntryService(db, nil)
	judging := seedJudgingWithChallenge(t, db)

	score := models.BotScore{ProjectID: 10, ChallengeID: 1, Score: 6, Summary: "auto", AIJudged: true}
	require.NoError(t, db.Create(&score).Error)
	require.NoError(t, db.Create(&models.JudgingEntry{
		JudgingID:       judging.ID,
		ProjectID:       10,
		ChallengeID:     1,
		Score:           6,
		GeneralComments: "auto",
		JudgingStatus:   models.EntryStatusNeedsReview,
		BotScoreID:      &score.ID,
	}).Error)

	_, err := svc.Update(context.Background(), judging.ID, dto.EntryUpdateRequest{
		ProjectID:   10,
		ChallengeID: 1,
		Score:       floatPointer(9),
	}, ActivityActor{ID: 1, Role: "judge"})
	require.ErrorIs(t, err, ErrEntryLocked)

	// Status and visibility changes stay allowed on a locked entry.
	status := models.EntryStatusJudged
	hidden := true
	updated, err := svc.Update(context.Background(), judging.ID, dto.EntryUpdateRequest{
		ProjectID:     10,
		ChallengeID:   1,
		ProjectHidden: &hidden,
		JudgingStatus: &status,
	}, ActivityActor{ID: 1, Role: "judge"})
	require.NoError(t, err)
	require.Equal(t, models.EntryStatusJudged, updated.JudgingStatus)
	require.True(t, updated.ProjectHidden)
	require.Equal(t, 6.0, updated.Score)
}

func TestEntryUpdateAllowedWhenBaselineNotAIJudged(t *testing.T) {
	db := newTestDB(t)
	svc := newEntryService(db, nil)
	judging := seedJudgingWithChallenge(t, db)

	score := models.BotScore{ProjectID: 10, ChallengeID: 1, Score: 6, AIJudged: false}
	require.NoError(t, db.Create(&score).Error)
	require.NoError(t, db.Create(&models.JudgingEntry{
		JudgingID:     judging.ID,
		ProjectID:     10,
		ChallengeID:   1,
		Score:         6,
		JudgingStatus: models.EntryStatusNeedsReview,
		BotScoreID:    &score.ID,
	}).Error)

	updated, err := svc.Update(context.Background(), judging.ID, dto.EntryUpdateRequest{
		ProjectID:   10,
		ChallengeID: 1,
		Score:       floatPointer(9),
	}, ActivityActor{ID: 1, Role: "judge"})
	require.NoError(t, err)
	require.Equal(t, 9.0, updated.Score)
}

func TestEntryProgressAccountingAndCache(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	db := newTestDB(t)
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	svc := newEntryService(db, cache)
	judging := seedJudgingWithChallenge(t, db)

	statuses := []string{
		models.EntryStatusJudged,
		models.EntryStatusJudged,
		models.EntryStatusFlagged,
		models.EntryStatusNeedsReview,
	}
	for i, status := range statuses {
		require.NoError(t, db.Create(&models.JudgingEntry{
			JudgingID:     judging.ID,
			ProjectID:     uint(100 + i),
			ChallengeID:   1,
			JudgingStatus: status,
		}).Error)
	}

	progress, err := svc.GetProgress(context.Background(), judging.ID)
	require.NoError(t, err)
	require.EqualValues(t, 4, progress.Total)
	require.EqualValues(t, 2, progress.Judged)
	require.EqualValues(t, 1, progress.Flagged)
	require.EqualValues(t, 1, progress.NeedsReview)

	// A raw database write is invisible while the cache entry lives.
	require.NoError(t, db.Create(&models.JudgingEntry{
		JudgingID:     judging.ID,
		ProjectID:     200,
		ChallengeID:   1,
		JudgingStatus: models.EntryStatusJudged,
	}).Error)

	cached, err := svc.GetProgress(context.Background(), judging.ID)
	require.NoError(t, err)
	require.EqualValues(t, 4, cached.Total)

	// A service write invalidates the cache.
	_, err = svc.Unflag(context.Background(), judging.ID, dto.UnflagEntryRequest{ProjectID: 102, ChallengeID: 1}, ActivityActor{ID: 1, Role: "judge"})
	require.NoError(t, err)

	fresh, err := svc.GetProgress(context.Background(), judging.ID)
	require.NoError(t, err)
	require.EqualValues(t, 5, fresh.Total)
	require.EqualValues(t, 3, fresh.Judged)
	require.EqualValues(t, 0, fresh.Flagged)
	require.EqualValues(t, 2, fresh.NeedsReview)
}

func TestListEntriesSortsJudgedFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newEntryService(db, nil)
	judging := seedJudgingWithChallenge(t, db)

	statuses := []string{
		models.EntryStatusFlagged,
		models.EntryStatusNeedsReview,
		models.EntryStatusJudged,
	}
	for i, status := range statuses {
		require.NoError(t, db.Create(&models.JudgingEntry{
			JudgingID:     judging.ID,
			ProjectID:     uint(300 + i),
			ChallengeID:   1,
			JudgingStatus: status,
		}).Error)
	}

	entries, err := svc.ListEntries(context.Background(), judging.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, models.EntryStatusJudged, entries[0].JudgingStatus)
	require.Equal(t, models.EntryStatusNeedsReview, entries[1].JudgingStatus)
	require.Equal(t, models.EntryStatusFlagged, entries[2].JudgingStatus)
}

func TestGetJudgingProjectsGroupsAndPending(t *testing.T) {
	db := newTestDB(t)
	svc := newEntryService(db, nil)
	judging := seedJudgingWithChallenge(t, db)

	team := models.Team{Name: "Crashers"}
	require.NoError(t, db.Create(&team).Error)

	var challenge models.Challenge
	require.NoError(t, db.First(&challenge, 1).Error)

	entered := models.Project{Title: "Scored App", TeamID: team.ID}
	pending := models.Project{Title: "Fresh App", TeamID: team.ID}
	hidden := models.Project{Title: "Hidden App", TeamID: team.ID, Hidden: true}
	for _, project := range []*models.Project{&entered, &pending, &hidden} {
		require.NoError(t, db.Create(project).Error)
		require.NoError(t, db.Model(project).Association("Challenges").Append(&challenge))
	}

	require.NoError(t, db.Create(&models.JudgingEntry{
		JudgingID:     judging.ID,
		ProjectID:     entered.ID,
		ChallengeID:   1,
		JudgingStatus: models.EntryStatusJudged,
	}).Error)

	groups, err := svc.GetJudgingProjects(context.Background(), judging.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, uint(1), groups[0].ChallengeID)
	require.Len(t, groups[0].Entries, 1)
	require.Len(t, groups[0].PendingProjects, 1)
	require.Equal(t, pending.ID, groups[0].PendingProjects[0].ProjectID)
	require.Equal(t, "Crashers", groups[0].PendingProjects[0].TeamName)
}
