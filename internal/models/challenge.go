package models

import "time"

// Challenge is a hackathon challenge projects compete in.
type Challenge struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Prizes      []ChallengePrize `gorm:"foreignKey:ChallengeID" json:"prizes,omitempty"`
}

// TableName keeps the platform's existing table name.
func (Challenge) TableName() string {
	return "hackathon_challenges"
}

// ChallengePrize is a prize attached to a challenge, ordered by rank.
type ChallengePrize struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ChallengeID uint      `gorm:"not null;index" json:"challenge_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Rank        int       `gorm:"not null;default:1" json:"rank"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName keeps the platform's existing table name.
func (ChallengePrize) TableName() string {
	return "hackathon_challenge_bounties"
}
