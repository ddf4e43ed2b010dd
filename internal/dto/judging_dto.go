package dto

import (
	"time"

	"github.com/hackhub-dev/judging-api/internal/models"
)

// ReconcileChallengesRequest carries the desired challenge set for a judging.
type ReconcileChallengesRequest struct {
	ChallengeIDs []uint `json:"challenge_ids" validate:"dive,gt=0"`
}

// ReconcileResult reports the effect of a challenge reconciliation.
type ReconcileResult struct {
	ChallengesAdded   int `json:"challenges_added"`
	ChallengesRemoved int `json:"challenges_removed"`
	TotalChallenges   int `json:"total_challenges"`
}

// ProjectChallengePairRequest identifies one (project, challenge) work item.
type ProjectChallengePairRequest struct {
	ProjectID   uint `json:"project_id" validate:"required,gt=0"`
	ChallengeID uint `json:"challenge_id" validate:"required,gt=0"`
}

// PairsRequest carries explicit (project, challenge) pairs to assign or remove.
type PairsRequest struct {
	Pairs []ProjectChallengePairRequest `json:"pairs" validate:"required,min=1,dive"`
}

// PairsResult reports the effect of a pair assignment or removal.
type PairsResult struct {
	EntriesAdded   int `json:"entries_added"`
	EntriesRemoved int `json:"entries_removed"`
}

// JudgingChallengeResponse summarises one challenge binding of a judging.
type JudgingChallengeResponse struct {
	ChallengeID      uint   `json:"challenge_id"`
	Title            string `json:"title"`
	IsWinnerAssigner bool   `json:"is_winner_assigner"`
	SubmittedWinners bool   `json:"submitted_winners"`
}

// JudgingResponse is returned to API clients when viewing a judging.
type JudgingResponse struct {
	ID          uint                       `json:"id"`
	UserID      uint                       `json:"user_id"`
	IsSubmitted bool                       `json:"is_submitted"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
	Challenges  []JudgingChallengeResponse `json:"challenges"`
}

// NewJudgingResponse converts a Judging model into a DTO.
func NewJudgingResponse(model models.Judging) JudgingResponse {
	challenges := make([]JudgingChallengeResponse, 0, len(model.Challenges))
	for _, binding := range model.Challenges {
		challenges = append(challenges, JudgingChallengeResponse{
			ChallengeID:      binding.ChallengeID,
			Title:            binding.Challenge.Title,
			IsWinnerAssigner: binding.IsWinnerAssigner,
			SubmittedWinners: binding.SubmittedWinners,
		})
	}

	return JudgingResponse{
		ID:          model.ID,
		UserID:      model.UserID,
		IsSubmitted: model.IsSubmitted,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		Challenges:  challenges,
	}
}
