package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hackhub",
		Subsystem: "ai",
		Name:      "judge_duration_seconds",
		Help:      "Duration of AI judge requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hackhub",
		Subsystem: "ai",
		Name:      "judge_failures_total",
		Help:      "Number of AI judge failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI judge.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIJudge implements Judge against the OpenAI chat completion API.
type OpenAIJudge struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIJudge builds a new judge using the provided configuration.
func NewOpenAIJudge(cfg OpenAIConfig) (*OpenAIJudge, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 768
	}

	tracer := otel.Tracer("github.com/hackhub-dev/judging-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIJudge{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Judge sends the pre-scoring request to OpenAI and parses the response.
func (j *OpenAIJudge) Judge(parent context.Context, input JudgeInput) (JudgeResult, error) {
	ctx, span := j.tracer.Start(parent, "openai.judge", trace.WithAttributes(
		attribute.String("model", j.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       j.cfg.Model,
		MaxTokens:   j.cfg.MaxTokens,
		Temperature: j.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: judgeSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := j.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	aiDuration.WithLabelValues(j.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		aiFailures.WithLabelValues(j.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return JudgeResult{}, fmt.Errorf("openai judge: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(j.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return JudgeResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseJudgeResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(j.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return JudgeResult{}, err
	}

	result.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return result, nil
}

func judgeSystemPrompt() string {
	return "You are a hackathon pre-judge. Score the project against the challenge on four criteria: technical execution, bus" +
		"iness potential, innovation, and user experience. Respond with a JSON object containing score (0-10 overall), technic" +
		"al, business, innovation, and ux objects each with score (0-10) and feedback, plus a summary string."
}

func buildUserPrompt(input JudgeInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Challenge\n")
	builder.WriteString(input.ChallengeTitle)
	builder.WriteString("\n\n## Challenge Description\n")
	builder.WriteString(input.ChallengeDescription)
	builder.WriteString("\n\n# Project\n")
	builder.WriteString(input.ProjectTitle)
	if input.ProjectTagLine != "" {
		builder.WriteString("\n\n## Tag Line\n")
		builder.WriteString(input.ProjectTagLine)
	}
	builder.WriteString("\n\n## Project Description\n")
	builder.WriteString(input.ProjectDescription)
	if input.AdditionalNotes != "" {
		builder.WriteString("\n\n## Notes\n")
		builder.WriteString(input.AdditionalNotes)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseJudgeResponse(content string) (JudgeResult, error) {
	type payload struct {
		Score      float64         `json:"score"`
		Technical  CriterionResult `json:"technical"`
		Business   CriterionResult `json:"business"`
		Innovation CriterionResult `json:"innovation"`
		UX         CriterionResult `json:"ux"`
		Summary    string          `json:"summary"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return JudgeResult{}, fmt.Errorf("parse judge json: %w", err)
	}

	data.Score = clampScore(data.Score)
	data.Technical.Score = clampScore(data.Technical.Score)
	data.Business.Score = clampScore(data.Business.Score)
	data.Innovation.Score = clampScore(data.Innovation.Score)
	data.UX.Score = clampScore(data.UX.Score)

	return JudgeResult{
		Score:      data.Score,
		Technical:  data.Technical,
		Business:   data.Business,
		Innovation: data.Innovation,
		UX:         data.UX,
		Summary:    data.Summary,
	}, nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
