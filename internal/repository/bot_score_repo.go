package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hackhub-dev/judging-api/internal/models"
)

// BotScoreRepository defines persistence operations for bot scores.
type BotScoreRepository interface {
	GetByPair(ctx context.Context, projectID, challengeID uint) (models.BotScore, error)
	ListByChallenges(ctx context.Context, challengeIDs []uint) ([]models.BotScore, error)
	Upsert(ctx context.Context, score *models.BotScore) error
}

type botScoreRepository struct {
	db *gorm.DB
}

// NewBotScoreRepository instantiates the repository.
func NewBotScoreRepository(db *gorm.DB) BotScoreRepository {
	return &botScoreRepository{db: db}
}

func (r *botScoreRepository) GetByPair(ctx context.Context, projectID, challengeID uint) (models.BotScore, error) {
	var score models.BotScore
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Where("challenge_id = ?", challengeID).
		First(&score).Error; err != nil {
		return models.BotScore{}, err
	}

	return score, nil
}

func (r *botScoreRepository) ListByChallenges(ctx context.Context, challengeIDs []uint) ([]models.BotScore, error) {
	if len(challengeIDs) == 0 {
		return nil, nil
	}

	var scores []models.BotScore
	if err := r.db.WithContext(ctx).
		Where("challenge_id IN ?", challengeIDs).
		Order("challenge_id ASC, project_id ASC").
		Find(&scores).Error; err != nil {
		return nil, err
	}

	return scores, nil
}

// Upsert writes the bot score for its (project, challenge) pair, replacing a
// previous evaluation if one exists.
func (r *botScoreRepository) Upsert(ctx context.Context, score *models.BotScore) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "project_id"}, {Name: "challenge_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score", "technical_score", "technical_feedback",
				"business_score", "business_feedback",
				"innovation_score", "innovation_feedback",
				"ux_score", "ux_feedback",
				"summary", "ai_judged", "provider", "model", "raw", "updated_at",
			}),
		}).
		Create(score).Error
}
