package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hackhub-dev/judging-api/internal/models"
)

// ChallengeDiff describes the writes a challenge reconciliation must apply
// as one unit: new bindings, entries seeded from bot scores, bindings (and
// their entries) to drop, and whether the judging's submission flag resets.
type ChallengeDiff struct {
	JudgingID          uint
	Add                []models.JudgingChallenge
	SeedEntries        []models.JudgingEntry
	RemoveChallengeIDs []uint
	ResetSubmitted     bool
}

// JudgingChallengeRepository defines persistence operations for
// judging-challenge bindings.
type JudgingChallengeRepository interface {
	ListByJudging(ctx context.Context, judgingID uint) ([]models.JudgingChallenge, error)
	ListByChallenge(ctx context.Context, challengeID uint) ([]models.JudgingChallenge, error)
	Get(ctx context.Context, judgingID, challengeID uint) (models.JudgingChallenge, error)
	ApplyDiff(ctx context.Context, diff ChallengeDiff) error
	SetWinnerAssigner(ctx context.Context, challengeID, judgingID uint, isAssigner bool) error
	ListWinnerAssignerChallenges(ctx context.Context, judgingID uint) ([]models.JudgingChallenge, error)
}

type judgingChallengeRepository struct {
	db *gorm.DB
}

// NewJudgingChallengeRepository instantiates the repository.
func NewJudgingChallengeRepository(db *gorm.DB) JudgingChallengeRepository {
	return &judgingChallengeRepository{db: db}
}

func (r *judgingChallengeRepository) ListByJudging(ctx context.Context, judgingID uint) ([]models.JudgingChallenge, error) {
	var bindings []models.JudgingChallenge
	if err := r.db.WithContext(ctx).
		Preload("Challenge").
		Where("judging_id = ?", judgingID).
		Order("challenge_id ASC").
		Find(&bindings).Error; err != nil {
		return nil, err
	}

	return bindings, nil
}

func (r *judgingChallengeRepository) ListByChallenge(ctx context.Context, challengeID uint) ([]models.JudgingChallenge, error) {
	var bindings []models.JudgingChallenge
	if err := r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("judging_id ASC").
		Find(&bindings).Error; err != nil {
		return nil, err
	}

	return bindings, nil
}

func (r *judgingChallengeRepository) Get(ctx context.Context, judgingID, challengeID uint) (models.JudgingChallenge, error) {
	var binding models.JudgingChallenge
	if err := r.db.WithContext(ctx).
		Where("judging_id = ?", judgingID).
		Where("challenge_id = ?", challengeID).
		First(&binding).Error; err != nil {
		return models.JudgingChallenge{}, err
	}

	return binding, nil
}

// ApplyDiff applies a reconciliation in one transaction so partial
// application is never observable. Seed inserts ignore conflicts on the
// entry's composite key, which keeps concurrent reconciliations benign.
func (r *judgingChallengeRepository) ApplyDiff(ctx context.Context, diff ChallengeDiff) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(diff.Add) > 0 {
			if err := tx.Create(&diff.Add).Error; err != nil {
				return err
			}
		}

		if len(diff.SeedEntries) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&diff.SeedEntries).Error; err != nil {
				return err
			}
		}

		if len(diff.RemoveChallengeIDs) > 0 {
			if err := tx.
				Where("judging_id = ?", diff.JudgingID).
				Where("challenge_id IN ?", diff.RemoveChallengeIDs).
				Delete(&models.JudgingEntry{}).Error; err != nil {
				return err
			}

			if err := tx.
				Where("judging_id = ?", diff.JudgingID).
				Where("challenge_id IN ?", diff.RemoveChallengeIDs).
				Delete(&models.JudgingChallenge{}).Error; err != nil {
				return err
			}
		}

		if diff.ResetSubmitted {
			if err := tx.Model(&models.Judging{}).
				Where("id = ?", diff.JudgingID).
				Update("is_submitted", false).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SetWinnerAssigner promotes or demotes a judging for a challenge. The
// promote path clears every other assigner for the challenge before setting
// the flag, inside a single transaction, so no window with two assigners
// outlives the call.
func (r *judgingChallengeRepository) SetWinnerAssigner(ctx context.Context, challengeID, judgingID uint, isAssigner bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var binding models.JudgingChallenge
		if err := tx.
			Where("judging_id = ?", judgingID).
			Where("challenge_id = ?", challengeID).
			First(&binding).Error; err != nil {
			return err
		}

		if isAssigner {
			if err := tx.Model(&models.JudgingChallenge{}).
				Where("challenge_id = ?", challengeID).
				Where("judging_id <> ?", judgingID).
				Update("is_winner_assigner", false).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.JudgingChallenge{}).
			Where("id = ?", binding.ID).
			Update("is_winner_assigner", isAssigner).Error
	})
}

func (r *judgingChallengeRepository) ListWinnerAssignerChallenges(ctx context.Context, judgingID uint) ([]models.JudgingChallenge, error) {
	var bindings []models.JudgingChallenge
	if err := r.db.WithContext(ctx).
		Preload("Challenge").
		Preload("Challenge.Prizes").
		Where("judging_id = ?", judgingID).
		Where("is_winner_assigner = ?", true).
		Order("challenge_id ASC").
		Find(&bindings).Error; err != nil {
		return nil, err
	}

	return bindings, nil
}
