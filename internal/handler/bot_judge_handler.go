package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hackhub-dev/judging-api/internal/dto"
	"github.com/hackhub-dev/judging-api/internal/middleware"
	"github.com/hackhub-dev/judging-api/internal/service"
	"github.com/hackhub-dev/judging-api/internal/utils"
)

// BotJudgeHandler wires the AI pre-scoring endpoints for organizers.
type BotJudgeHandler struct {
	botJudge service.BotJudgeService
	logger   zerolog.Logger
}

// NewBotJudgeHandler constructs the handler.
func NewBotJudgeHandler(botJudge service.BotJudgeService, logger zerolog.Logger) *BotJudgeHandler {
	return &BotJudgeHandler{
		botJudge: botJudge,
		logger:   logger.With().Str("component", "bot_judge_handler").Logger(),
	}
}

// Register attaches bot judge endpoints to the router group.
func (h *BotJudgeHandler) Register(router fiber.Router) {
	admin := router.Group("/admin", middleware.RequireRole("organizer", "admin"))
	admin.Post("/bot-scores", h.evaluate)
	admin.Get("/bot-scores", h.getScore)
}

func (h *BotJudgeHandler) evaluate(c *fiber.Ctx) error {
	var payload dto.BotEvaluateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := activityActorFromContext(c)
	score, err := h.botJudge.Evaluate(c.Context(), payload, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProjectNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "project not found")
		case errors.Is(err, service.ErrChallengeNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "challenge not found")
		case errors.Is(err, service.ErrJudgeUnavailable):
			return utils.SendError(c, fiber.StatusServiceUnavailable, "ai judge is not configured")
		case isValidationError(err):
			return sendValidationError(c, err)
		default:
			requestLogger(h.logger, c).Error().Err(err).
				Uint("project_id", payload.ProjectID).
				Uint("challenge_id", payload.ChallengeID).
				Msg("failed to evaluate bot score")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to evaluate bot score")
		}
	}

	return utils.SendSuccess(c, "bot score evaluated", score)
}

func (h *BotJudgeHandler) getScore(c *fiber.Ctx) error {
	projectID, err := parseQueryUint(c, "project_id")
	if err != nil || projectID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "project_id required")
	}
	challengeID, err := parseQueryUint(c, "challenge_id")
	if err != nil || challengeID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "challenge_id required")
	}

	score, err := h.botJudge.GetScore(c.Context(), projectID, challengeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBotScoreNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "bot score not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).
				Uint("project_id", projectID).
				Uint("challenge_id", challengeID).
				Msg("failed to load bot score")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to load bot score")
		}
	}

	return utils.SendSuccess(c, "bot score retrieved", score)
}
