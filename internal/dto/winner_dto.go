package dto

import "github.com/hackhub-dev/judging-api/internal/models"

// SetWinnerAssignerRequest promotes or demotes a judging as the winner
// assigner of a challenge.
type SetWinnerAssignerRequest struct {
	JudgingID        uint `json:"judging_id" validate:"required,gt=0"`
	IsWinnerAssigner bool `json:"is_winner_assigner"`
}

// WinnerTupleRequest binds one project to one prize of one challenge.
type WinnerTupleRequest struct {
	ChallengeID uint `json:"challenge_id" validate:"required,gt=0"`
	ProjectID   uint `json:"project_id" validate:"required,gt=0"`
	PrizeID     uint `json:"prize_id" validate:"required,gt=0"`
}

// SubmitWinnersRequest carries the winner tuples a winner assigner commits.
type SubmitWinnersRequest struct {
	Winners []WinnerTupleRequest `json:"winners" validate:"required,min=1,dive"`
}

// SubmitWinnersResult reports what a winner submission persisted.
type SubmitWinnersResult struct {
	WinnersSubmitted int `json:"winners_submitted"`
	ChallengesMarked int `json:"challenges_marked"`
}

// PrizeResponse summarises a challenge prize.
type PrizeResponse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Rank  int    `json:"rank"`
}

// WinnerChallengeResponse lists a challenge this judging assigns winners for.
type WinnerChallengeResponse struct {
	ChallengeID      uint            `json:"challenge_id"`
	Title            string          `json:"title"`
	SubmittedWinners bool            `json:"submitted_winners"`
	Prizes           []PrizeResponse `json:"prizes"`
}

// NewWinnerChallengeResponse converts a binding with its preloaded challenge
// and prizes into a DTO.
func NewWinnerChallengeResponse(binding models.JudgingChallenge) WinnerChallengeResponse {
	prizes := make([]PrizeResponse, 0, len(binding.Challenge.Prizes))
	for _, prize := range binding.Challenge.Prizes {
		prizes = append(prizes, PrizeResponse{ID: prize.ID, Title: prize.Title, Rank: prize.Rank})
	}

	return WinnerChallengeResponse{
		ChallengeID:      binding.ChallengeID,
		Title:            binding.Challenge.Title,
		SubmittedWinners: binding.SubmittedWinners,
		Prizes:           prizes,
	}
}

// ChallengeJudgeResponse summarises one judge's standing on a challenge for
// the winner assigner's view.
type ChallengeJudgeResponse struct {
	JudgingID        uint `json:"judging_id"`
	UserID           uint `json:"user_id"`
	IsWinnerAssigner bool `json:"is_winner_assigner"`
	EntryCount       int  `json:"entry_count"`
	JudgedCount      int  `json:"judged_count"`
	IsSubmitted      bool `json:"is_submitted"`
}

// JudgeScoreResponse is one judge's score for a project on a challenge.
type JudgeScoreResponse struct {
	JudgingID     uint    `json:"judging_id"`
	Score         float64 `json:"score"`
	JudgingStatus string  `json:"judging_status"`
}

// ChallengeProjectResponse aggregates every judge's entries for one project
// on a challenge.
type ChallengeProjectResponse struct {
	ProjectID    uint                 `json:"project_id"`
	Title        string               `json:"title"`
	TeamName     string               `json:"team_name"`
	AverageScore float64              `json:"average_score"`
	EntryCount   int                  `json:"entry_count"`
	Scores       []JudgeScoreResponse `json:"scores"`
}

// WinnerResponse is a persisted winner tuple.
type WinnerResponse struct {
	ChallengeID uint   `json:"challenge_id"`
	ProjectID   uint   `json:"project_id"`
	PrizeID     uint   `json:"prize_id"`
	PrizeTitle  string `json:"prize_title"`
	Project     string `json:"project_title"`
}
