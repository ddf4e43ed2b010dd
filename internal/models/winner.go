package models

import "time"

// ChallengeWinner records a winner submitted by the challenge's winner
// assigner: one project taking one prize of one challenge. Rows are
// append-only; repeat submissions of the same tuple are absorbed by the
// unique index.
type ChallengeWinner struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ChallengeID uint           `gorm:"not null;uniqueIndex:idx_challenge_winner" json:"challenge_id"`
	PrizeID     uint           `gorm:"not null;uniqueIndex:idx_challenge_winner" json:"prize_id"`
	ProjectID   uint           `gorm:"not null;uniqueIndex:idx_challenge_winner" json:"project_id"`
	JudgingID   uint           `gorm:"not null" json:"judging_id"`
	CreatedAt   time.Time      `json:"created_at"`
	Prize       ChallengePrize `gorm:"foreignKey:PrizeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"prize"`
	Project     Project        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"project"`
}
