package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hackhub-dev/judging-api/internal/models"
)

// JudgingRepository defines persistence operations for judgings.
type JudgingRepository interface {
	GetByID(ctx context.Context, id uint) (models.Judging, error)
	GetByUserID(ctx context.Context, userID uint) (models.Judging, error)
	Create(ctx context.Context, judging *models.Judging) error
	Update(ctx context.Context, judging *models.Judging) error
}

type judgingRepository struct {
	db *gorm.DB
}

// NewJudgingRepository instantiates a GORM-backed repository.
func NewJudgingRepository(db *gorm.DB) JudgingRepository {
	return &judgingRepository{db: db}
}

func (r *judgingRepository) GetByID(ctx context.Context, id uint) (models.Judging, error) {
	var judging models.Judging
	if err := r.db.WithContext(ctx).
		Preload("Challenges").
		Preload("Challenges.Challenge").
		First(&judging, id).Error; err != nil {
		return models.Judging{}, err
	}

	return judging, nil
}

func (r *judgingRepository) GetByUserID(ctx context.Context, userID uint) (models.Judging, error) {
	var judging models.Judging
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&judging).Error; err != nil {
		return models.Judging{}, err
	}

	return judging, nil
}

func (r *judgingRepository) Create(ctx context.Context, judging *models.Judging) error {
	return r.db.WithContext(ctx).Create(judging).Error
}

func (r *judgingRepository) Update(ctx context.Context, judging *models.Judging) error {
	return r.db.WithContext(ctx).Save(judging).Error
}
