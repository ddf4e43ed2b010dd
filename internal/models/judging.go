package models

import "time"

// Judging is a single reviewer's assignment context. It groups the challenge
// bindings handed to that judge and every scoring entry they produce.
type Judging struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	UserID      uint               `gorm:"uniqueIndex;not null" json:"user_id"`
	IsSubmitted bool               `gorm:"not null;default:false" json:"is_submitted"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Challenges  []JudgingChallenge `gorm:"foreignKey:JudgingID" json:"challenges,omitempty"`
}
