package dto

import (
	"time"

	"github.com/hackhub-dev/judging-api/internal/models"
)

// BotEvaluateRequest asks the bot judge to evaluate one (project, challenge)
// pair.
type BotEvaluateRequest struct {
	ProjectID   uint `json:"project_id" validate:"required,gt=0"`
	ChallengeID uint `json:"challenge_id" validate:"required,gt=0"`
}

// BotScoreResponse serialises a bot score.
type BotScoreResponse struct {
	ID                 uint      `json:"id"`
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
	Summary            string    `json:"summary"`
	AIJudged           bool      `json:"ai_judged"`
	Provider           string    `json:"provider"`
	Model              string    `json:"model"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewBotScoreResponse converts a BotScore model into a DTO.
func NewBotScoreResponse(model models.BotScore) BotScoreResponse {
	return BotScoreResponse{
		ID:                 model.ID,
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
		Summary:            model.Summary,
		AIJudged:           model.AIJudged,
		Provider:           model.Provider,
		Model:              model.Model,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}
