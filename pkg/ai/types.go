package ai

import "context"

// JudgeInput contains the artefacts needed to pre-score a hackathon project
// against a challenge.
type JudgeInput struct {
	ProjectTitle         string
	ProjectTagLine       string
	ProjectDescription   string
	ChallengeTitle       string
	ChallengeDescription string
	AdditionalNotes      string
}

// CriterionResult is one scored rubric dimension with its rationale.
type CriterionResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// JudgeResult is the structured pre-score returned by the AI judge.
type JudgeResult struct {
	Score      float64                `json:"score"`
	Technical  CriterionResult        `json:"technical"`
	Business   CriterionResult        `json:"business"`
	Innovation CriterionResult        `json:"innovation"`
	UX         CriterionResult        `json:"ux"`
	Summary    string                 `json:"summary"`
	Raw        map[string]interface{} `json:"raw,omitempty"`
}

// Judge describes an AI model capable of pre-scoring project submissions.
type Judge interface {
	Judge(ctx context.Context, input JudgeInput) (JudgeResult, error)
}
