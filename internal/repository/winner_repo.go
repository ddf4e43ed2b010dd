package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hackhub-dev/judging-api/internal/models"
)

// WinnerRepository persists winner submissions.
type WinnerRepository interface {
	SubmitWinners(ctx context.Context, judgingID uint, winners []models.ChallengeWinner, challengeIDs []uint) error
	ListByChallenge(ctx context.Context, challengeID uint) ([]models.ChallengeWinner, error)
}

type winnerRepository struct {
	db *gorm.DB
}

// NewWinnerRepository instantiates the repository.
func NewWinnerRepository(db *gorm.DB) WinnerRepository {
	return &winnerRepository{db: db}
}

// SubmitWinners appends the winner tuples and marks the judging's bindings
// for the touched challenges as having submitted winners, in one
// transaction. Duplicate tuples are absorbed by the unique index, which
// makes repeat submissions idempotent.
func (r *winnerRepository) SubmitWinners(ctx context.Context, judgingID uint, winners []models.ChallengeWinner, challengeIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(winners) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&winners).Error; err != nil {
				return err
			}
		}

		if len(challengeIDs) > 0 {
			if err := tx.Model(&models.JudgingChallenge{}).
				Where("judging_id = ?", judgingID).
				Where("challenge_id IN ?", challengeIDs).
				Update("submitted_winners", true).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *winnerRepository) ListByChallenge(ctx context.Context, challengeID uint) ([]models.ChallengeWinner, error) {
	var winners []models.ChallengeWinner
	if err := r.db.WithContext(ctx).
		Preload("Prize").
		Preload("Project").
		Preload("Project.Team").
		Where("challenge_id = ?", challengeID).
		Order("prize_id ASC").
		Find(&winners).Error; err != nil {
		return nil, err
	}

	return winners, nil
}
