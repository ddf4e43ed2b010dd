package dto

import (
	"time"

	"github.com/hackhub-dev/judging-api/internal/models"
)

// EntrySubmitRequest creates a new judging entry. Criterion scores and
// feedback strings must all be present; feedback may be empty.
type EntrySubmitRequest struct {
	ProjectID          uint     `json:"project_id" validate:"required,gt=0"`
	ChallengeID        uint     `json:"challenge_id" validate:"required,gt=0"`
	Score              *float64 `json:"score" validate:"required,gte=0,lte=100"`
	TechnicalScore     *float64 `json:"technical_score" validate:"required,gte=0,lte=100"`
	TechnicalFeedback  *string  `json:"technical_feedback" validate:"required"`
	BusinessScore      *float64 `json:"business_score" validate:"required,gte=0,lte=100"`
	BusinessFeedback   *string  `json:"business_feedback" validate:"required"`
	InnovationScore    *float64 `json:"innovation_score" validate:"required,gte=0,lte=100"`
	InnovationFeedback *string  `json:"innovation_feedback" validate:"required"`
	UXScore            *float64 `json:"ux_score" validate:"required,gte=0,lte=100"`
	UXFeedback         *string  `json:"ux_feedback" validate:"required"`
	GeneralComments    *string  `json:"general_comments"`
	JudgingStatus      string   `json:"judging_status" validate:"omitempty,oneof=needs_review judged"`
}

// EntryUpdateRequest applies a partial update to an existing entry. A direct
// transition to flagged is rejected; flagging has its own operation.
type EntryUpdateRequest struct {
	ProjectID          uint     `json:"project_id" validate:"required,gt=0"`
	ChallengeID        uint     `json:"challenge_id" validate:"required,gt=0"`
	Score              *float64 `json:"score" validate:"omitempty,gte=0,lte=100"`
	TechnicalScore     *float64 `json:"technical_score" validate:"omitempty,gte=0,lte=100"`
	TechnicalFeedback  *string  `json:"technical_feedback"`
	BusinessScore      *float64 `json:"business_score" validate:"omitempty,gte=0,lte=100"`
	BusinessFeedback   *string  `json:"business_feedback"`
	InnovationScore    *float64 `json:"innovation_score" validate:"omitempty,gte=0,lte=100"`
	InnovationFeedback *string  `json:"innovation_feedback"`
	UXScore            *float64 `json:"ux_score" validate:"omitempty,gte=0,lte=100"`
	UXFeedback         *string  `json:"ux_feedback"`
	GeneralComments    *string  `json:"general_comments"`
	ProjectHidden      *bool    `json:"project_hidden"`
	JudgingStatus      *string  `json:"judging_status" validate:"omitempty,oneof=needs_review judged"`
}

// FlagEntryRequest sets an entry aside with a mandatory reason.
type FlagEntryRequest struct {
	ProjectID   uint    `json:"project_id" validate:"required,gt=0"`
	ChallengeID uint    `json:"challenge_id" validate:"required,gt=0"`
	Reason      string  `json:"reason" validate:"required,min=1"`
	Comments    *string `json:"comments"`
}

// UnflagEntryRequest clears the flag from an entry.
type UnflagEntryRequest struct {
	ProjectID   uint `json:"project_id" validate:"required,gt=0"`
	ChallengeID uint `json:"challenge_id" validate:"required,gt=0"`
}

// EntryResponse is returned to API clients when viewing judging entries.
type EntryResponse struct {
	ID                 uint      `json:"id"`
	JudgingID          uint      `json:"judging_id"`
	ProjectID          uint      `json:"project_id"`
	ChallengeID        uint      `json:"challenge_id"`
	Score              float64   `json:"score"`
	TechnicalScore     float64   `json:"technical_score"`
	TechnicalFeedback  string    `json:"technical_feedback"`
	BusinessScore      float64   `json:"business_score"`
	BusinessFeedback   string    `json:"business_feedback"`
	InnovationScore    float64   `json:"innovation_score"`
	InnovationFeedback string    `json:"innovation_feedback"`
	UXScore            float64   `json:"ux_score"`
	UXFeedback         string    `json:"ux_feedback"`
	GeneralComments    string    `json:"general_comments"`
	JudgingStatus      string    `json:"judging_status"`
	FlaggedReason      *string   `json:"flagged_reason"`
	FlaggedComments    *string   `json:"flagged_comments"`
	BotScoreID         *uint     `json:"bot_score_id"`
	ProjectHidden      bool      `json:"project_hidden"`
	Editable           bool      `json:"editable"`
	ProjectTitle       string    `json:"project_title,omitempty"`
	TeamName           string    `json:"team_name,omitempty"`
	ChallengeTitle     string    `json:"challenge_title,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewEntryResponse converts a JudgingEntry model into a DTO.
func NewEntryResponse(model models.JudgingEntry) EntryResponse {
	return EntryResponse{
		ID:                 model.ID,
		JudgingID:          model.JudgingID,
		ProjectID:          model.ProjectID,
		ChallengeID:        model.ChallengeID,
		Score:              model.Score,
		TechnicalScore:     model.TechnicalScore,
		TechnicalFeedback:  model.TechnicalFeedback,
		BusinessScore:      model.BusinessScore,
		BusinessFeedback:   model.BusinessFeedback,
		InnovationScore:    model.InnovationScore,
		InnovationFeedback: model.InnovationFeedback,
		UXScore:            model.UXScore,
		UXFeedback:         model.UXFeedback,
		GeneralComments:    model.GeneralComments,
		JudgingStatus:      model.JudgingStatus,
		FlaggedReason:      model.FlaggedReason,
		FlaggedComments:    model.FlaggedComments,
		BotScoreID:         model.BotScoreID,
		ProjectHidden:      model.ProjectHidden,
		Editable:           model.Editable(),
		ProjectTitle:       model.Project.Title,
		TeamName:           model.Project.Team.Name,
		ChallengeTitle:     model.Challenge.Title,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

// ProgressResponse reports entry counts for a judging. Total counts every
// entry regardless of status.
type ProgressResponse struct {
	Total       int64 `json:"total"`
	Judged      int64 `json:"judged"`
	Flagged     int64 `json:"flagged"`
	NeedsReview int64 `json:"needs_review"`
}

// PendingProjectResponse is a project bound to one of the judging's
// challenges that has no entry yet.
type PendingProjectResponse struct {
	ProjectID   uint   `json:"project_id"`
	ChallengeID uint   `json:"challenge_id"`
	Title       string `json:"title"`
	TeamName    string `json:"team_name"`
}

// ChallengeGroupResponse groups a judging's work by challenge.
type ChallengeGroupResponse struct {
	ChallengeID     uint                     `json:"challenge_id"`
	ChallengeTitle  string                   `json:"challenge_title"`
	Entries         []EntryResponse          `json:"entries"`
	PendingProjects []PendingProjectResponse `json:"pending_projects"`
}

// ProjectDetailsResponse joins an entry with its project, team and challenge
// metadata for display.
type ProjectDetailsResponse struct {
	Entry          EntryResponse `json:"entry"`
	ProjectID      uint          `json:"project_id"`
	ProjectTitle   string        `json:"project_title"`
	ProjectTagLine string        `json:"project_tag_line"`
	TeamName       string        `json:"team_name"`
	ChallengeID    uint          `json:"challenge_id"`
	ChallengeTitle string        `json:"challenge_title"`
}
