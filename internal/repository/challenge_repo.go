package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hackhub-dev/judging-api/internal/models"
)

// ChallengeRepository exposes read access to the platform's challenges and
// their prizes.
type ChallengeRepository interface {
	GetByID(ctx context.Context, id uint) (models.Challenge, error)
	ListPrizesByChallenges(ctx context.Context, challengeIDs []uint) ([]models.ChallengePrize, error)
}

type challengeRepository struct {
	db *gorm.DB
}

// NewChallengeRepository instantiates the repository.
func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) GetByID(ctx context.Context, id uint) (models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.WithContext(ctx).
		Preload("Prizes").
		First(&challenge, id).Error; err != nil {
		return models.Challenge{}, err
	}

	return challenge, nil
}

func (r *challengeRepository) ListPrizesByChallenges(ctx context.Context, challengeIDs []uint) ([]models.ChallengePrize, error) {
	if len(challengeIDs) == 0 {
		return nil, nil
	}

	var prizes []models.ChallengePrize
	if err := r.db.WithContext(ctx).
		Where("challenge_id IN ?", challengeIDs).
		Order("challenge_id ASC, rank ASC").
		Find(&prizes).Error; err != nil {
		return nil, err
	}

	return prizes, nil
}
