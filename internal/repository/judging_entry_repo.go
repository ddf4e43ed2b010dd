package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hackhub-dev/judging-api/internal/models"
)

// ProjectChallengePair identifies one unit of judging work.
type ProjectChallengePair struct {
	ProjectID   uint
	ChallengeID uint
}

// ProgressCounts aggregates entry statuses for a judging.
type ProgressCounts struct {
	Total       int64
	Judged      int64
	Flagged     int64
	NeedsReview int64
}

// JudgingEntryRepository defines persistence operations for judging entries.
type JudgingEntryRepository interface {
	Get(ctx context.Context, judgingID, projectID, challengeID uint) (models.JudgingEntry, error)
	GetWithDetails(ctx context.Context, judgingID, projectID, challengeID uint) (models.JudgingEntry, error)
	ListByJudging(ctx context.Context, judgingID uint) ([]models.JudgingEntry, error)
	ListByChallenge(ctx context.Context, challengeID uint) ([]models.JudgingEntry, error)
	Create(ctx context.Context, entry *models.JudgingEntry) error
	Update(ctx context.Context, entry *models.JudgingEntry) error
	CreatePairs(ctx context.Context, entries []models.JudgingEntry) error
	DeletePairs(ctx context.Context, judgingID uint, pairs []ProjectChallengePair) error
	CountByStatus(ctx context.Context, judgingID uint) (ProgressCounts, error)
}

type judgingEntryRepository struct {
	db *gorm.DB
}

// NewJudgingEntryRepository instantiates the repository.
func NewJudgingEntryRepository(db *gorm.DB) JudgingEntryRepository {
	return &judgingEntryRepository{db: db}
}

func (r *judgingEntryRepository) tripleQuery(ctx context.Context, judgingID, projectID, challengeID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("judging_id = ?", judgingID).
		Where("project_id = ?", projectID).
		Where("challenge_id = ?", challengeID)
}

func (r *judgingEntryRepository) Get(ctx context.Context, judgingID, projectID, challengeID uint) (models.JudgingEntry, error) {
	var entry models.JudgingEntry
	if err := r.tripleQuery(ctx, judgingID, projectID, challengeID).
		Preload("BotScore").
		First(&entry).Error; err != nil {
		return models.JudgingEntry{}, err
	}

	return entry, nil
}

func (r *judgingEntryRepository) GetWithDetails(ctx context.Context, judgingID, projectID, challengeID uint) (models.JudgingEntry, error) {
	var entry models.JudgingEntry
	if err := r.tripleQuery(ctx, judgingID, projectID, challengeID).
		Preload("BotScore").
		Preload("Project").
		Preload("Project.Team").
		Preload("Challenge").
		First(&entry).Error; err != nil {
		return models.JudgingEntry{}, err
	}

	return entry, nil
}

func (r *judgingEntryRepository) ListByJudging(ctx context.Context, judgingID uint) ([]models.JudgingEntry, error) {
	var entries []models.JudgingEntry
	if err := r.db.WithContext(ctx).
		Preload("BotScore").
		Preload("Project").
		Preload("Project.Team").
		Preload("Challenge").
		Where("judging_id = ?", judgingID).
		Order("challenge_id ASC, project_id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *judgingEntryRepository) ListByChallenge(ctx context.Context, challengeID uint) ([]models.JudgingEntry, error) {
	var entries []models.JudgingEntry
	if err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Project.Team").
		Where("challenge_id = ?", challengeID).
		Order("judging_id ASC, project_id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *judgingEntryRepository) Create(ctx context.Context, entry *models.JudgingEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *judgingEntryRepository) Update(ctx context.Context, entry *models.JudgingEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// CreatePairs inserts entries for explicit pairs, ignoring ones that already
// exist so a repeated assignment stays idempotent.
func (r *judgingEntryRepository) CreatePairs(ctx context.Context, entries []models.JudgingEntry) error {
	if len(entries) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entries).Error
}

func (r *judgingEntryRepository) DeletePairs(ctx context.Context, judgingID uint, pairs []ProjectChallengePair) error {
	if len(pairs) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, pair := range pairs {
			if err := tx.
				Where("judging_id = ?", judgingID).
				Where("project_id = ?", pair.ProjectID).
				Where("challenge_id = ?", pair.ChallengeID).
				Delete(&models.JudgingEntry{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *judgingEntryRepository) CountByStatus(ctx context.Context, judgingID uint) (ProgressCounts, error) {
	type statusRow struct {
		JudgingStatus string
		Count         int64
	}

	var rows []statusRow
	if err := r.db.WithContext(ctx).
		Model(&models.JudgingEntry{}).
		Select("judging_status, COUNT(*) as count").
		Where("judging_id = ?", judgingID).
		Group("judging_status").
		Scan(&rows).Error; err != nil {
		return ProgressCounts{}, err
	}

	counts := ProgressCounts{}
	for _, row := range rows {
		counts.Total += row.Count
		switch row.JudgingStatus {
		case models.EntryStatusJudged:
			counts.Judged = row.Count
		case models.EntryStatusFlagged:
			counts.Flagged = row.Count
		case models.EntryStatusNeedsReview:
			counts.NeedsReview = row.Count
		}
	}

	return counts, nil
}
