package models

import "time"

const (
	// EntryStatusNeedsReview indicates the entry awaits the judge's review.
	EntryStatusNeedsReview = "needs_review"
	// EntryStatusJudged indicates the judge has completed their review.
	EntryStatusJudged = "judged"
	// EntryStatusFlagged indicates the entry was set aside with a reason.
	EntryStatusFlagged = "flagged"
)

// JudgingEntry is one scoring record for a (judging, project, challenge)
// triple. It is created either by the judge directly or seeded from a bot
// score when a challenge is bound to the judging.
type JudgingEntry struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	JudgingID          uint      `gorm:"not null;uniqueIndex:idx_judging_entry" json:"judging_id"`
	ProjectID          uint      `gorm:"not null;uniqueIndex:idx_judging_entry" json:"project_id"`
	ChallengeID        uint      `gorm:"not null;uniqueIndex:idx_judging_entry" json:"challenge_id"`
	Score              float64   `json:"score"`
	TechnicalScore     float64   `json:"technical_score"`
	TechnicalFeedback  string    `gorm:"type:text" json:"technical_feedback"`
	BusinessScore      float64   `json:"business_score"`
	BusinessFeedback   string    `gorm:"type:text" json:"business_feedback"`
	InnovationScore    float64   `json:"innovation_score"`
	InnovationFeedback string    `gorm:"type:text" json:"innovation_feedback"`
	UXScore            float64   `json:"ux_score"`
	UXFeedback         string    `gorm:"type:text" json:"ux_feedback"`
	GeneralComments    string    `gorm:"type:text" json:"general_comments"`
	JudgingStatus      string    `gorm:"size:32;not null;default:needs_review" json:"judging_status"`
	FlaggedReason      *string   `gorm:"size:255" json:"flagged_reason"`
	FlaggedComments    *string   `gorm:"type:text" json:"flagged_comments"`
	BotScoreID         *uint     `json:"bot_score_id"`
	ProjectHidden      bool      `gorm:"not null;default:false" json:"project_hidden"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	BotScore           *BotScore `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"bot_score,omitempty"`
	Project            Project   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"project"`
	Challenge          Challenge `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"challenge"`
}

// HasContent reports whether any score, feedback or comment field holds a
// non-default value.
func (e JudgingEntry) HasContent() bool {
	if e.Score != 0 || e.TechnicalScore != 0 || e.BusinessScore != 0 || e.InnovationScore != 0 || e.UXScore != 0 {
		return true
	}
	return e.TechnicalFeedback != "" || e.BusinessFeedback != "" || e.InnovationFeedback != "" ||
		e.UXFeedback != "" || e.GeneralComments != ""
}

// Editable reports whether a human judge may still modify this entry. An
// AI-judged baseline becomes immutable once any of its fields are populated.
func (e JudgingEntry) Editable() bool {
	if e.BotScore == nil || !e.BotScore.AIJudged {
		return true
	}
	return !e.HasContent()
}
