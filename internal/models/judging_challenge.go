package models

import "time"

// JudgingChallenge links a judging to one of the hackathon challenges the
// judge is expected to review. At most one binding per challenge may carry
// IsWinnerAssigner; the partial unique index backs the coordinator's
// clear-then-set sequence at the storage layer.
type JudgingChallenge struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	JudgingID        uint      `gorm:"not null;uniqueIndex:idx_judging_challenge" json:"judging_id"`
	ChallengeID      uint      `gorm:"not null;uniqueIndex:idx_judging_challenge;index:idx_challenge_sole_assigner,unique,where:is_winner_assigner" json:"challenge_id"`
	IsWinnerAssigner bool      `gorm:"not null;default:false" json:"is_winner_assigner"`
	SubmittedWinners bool      `gorm:"not null;default:false" json:"submitted_winners"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Challenge        Challenge `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"challenge"`
}
