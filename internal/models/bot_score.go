package models

import (
	"time"

	"gorm.io/datatypes"
)

// BotScore is a pre-computed automated evaluation for a (project, challenge)
// pair, used to seed judging entries as a reviewable baseline.
type BotScore struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	ProjectID          uint              `gorm:"not null;uniqueIndex:idx_bot_score_pair" json:"project_id"`
	ChallengeID        uint              `gorm:"not null;uniqueIndex:idx_bot_score_pair" json:"challenge_id"`
	Score              float64           `json:"score"`
	TechnicalScore     float64           `json:"technical_score"`
	TechnicalFeedback  string            `gorm:"type:text" json:"technical_feedback"`
	BusinessScore      float64           `json:"business_score"`
	BusinessFeedback   string            `gorm:"type:text" json:"business_feedback"`
	InnovationScore    float64           `json:"innovation_score"`
	InnovationFeedback string            `gorm:"type:text" json:"innovation_feedback"`
	UXScore            float64           `json:"ux_score"`
	UXFeedback         string            `gorm:"type:text" json:"ux_feedback"`
	Summary            string            `gorm:"type:text" json:"summary"`
	AIJudged           bool              `gorm:"not null;default:false" json:"ai_judged"`
	Provider           string            `gorm:"size:32" json:"provider"`
	Model              string            `gorm:"size:64" json:"model"`
	Raw                datatypes.JSONMap `json:"raw,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}
