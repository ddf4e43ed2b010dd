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

// WinnerHandler wires winner-assigner management and winner submission endpoints.
type WinnerHandler struct {
	winners service.WinnerService
	logger  zerolog.Logger
}

// NewWinnerHandler constructs the handler.
func NewWinnerHandler(winners service.WinnerService, logger zerolog.Logger) *WinnerHandler {
	return &WinnerHandler{
		winners: winners,
		logger:  logger.With().Str("component", "winner_handler").Logger(),
	}
}

// Register attaches winner endpoints to the router group. Promoting and
// demoting assigners stays behind the organizer role.
func (h *WinnerHandler) Register(router fiber.Router) {
	router.Put("/challenges/:id/winner-assigner", middleware.RequireRole("organizer", "admin"), h.setAssigner)
	router.Get("/judgings/:id/winner-challenges", h.assignerChallenges)
	router.Get("/judgings/:id/winner-challenges/:challengeId/judges", h.challengeJudges)
	router.Get("/judgings/:id/winner-challenges/:challengeId/projects", h.challengeProjects)
	router.Post("/judgings/:id/winners", h.submitWinners)
}

func (h *WinnerHandler) setAssigner(c *fiber.Ctx) error {
	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.SetWinnerAssignerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := activityActorFromContext(c)
	binding, err := h.winners.SetWinnerAssigner(c.Context(), challengeID, payload, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBindingNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "judging is not bound to challenge")
		case isValidationError(err):
			return sendValidationError(c, err)
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("challenge_id", challengeID).Msg("failed to set winner assigner")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to set winner assigner")
		}
	}

	return utils.SendSuccess(c, "winner assigner updated", binding)
}

func (h *WinnerHandler) assignerChallenges(c *fiber.Ctx) error {
	judgingID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	challenges, err := h.winners.GetWinnerAssignerChallenges(c.Context(), judgingID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJudgingNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "judging not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("judging_id", judgingID).Msg("failed to list assigner challenges")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to list assigner challenges")
		}
	}

	return utils.SendSuccess(c, "assigner challenges retrieved", challenges)
}

func (h *WinnerHandler) challengeJudges(c *fiber.Ctx) error {
	judgingID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	challengeID, err := parseUintParam(c, "challengeId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	judges, err := h.winners.GetChallengeJudges(c.Context(), judgingID, challengeID)
	if err != nil {
		return h.mapWinnerError(c, judgingID, err, "failed to list challenge judges")
	}

	return utils.SendSuccess(c, "challenge judges retrieved", judges)
}

func (h *WinnerHandler) challengeProjects(c *fiber.Ctx) error {
	judgingID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	challengeID, err := parseUintParam(c, "challengeId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	projects, err := h.winners.GetChallengeProjects(c.Context(), judgingID, challengeID)
	if err != nil {
		return h.mapWinnerError(c, judgingID, err, "failed to list challenge projects")
	}

	return utils.SendSuccess(c, "challenge projects retrieved", projects)
}

func (h *WinnerHandler) submitWinners(c *fiber.Ctx) error {
	judgingID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.SubmitWinnersRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := activityActorFromContext(c)
	result, err := h.winners.SubmitWinners(c.Context(), judgingID, payload, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidWinnerTuple):
			return utils.SendError(c, fiber.StatusBadRequest, "winner tuple references unrelated prize or project")
		default:
			return h.mapWinnerError(c, judgingID, err, "failed to submit winners")
		}
	}

	return utils.SendSuccess(c, "winners submitted", result)
}

func (h *WinnerHandler) mapWinnerError(c *fiber.Ctx, judgingID uint, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrJudgingNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "judging not found")
	case errors.Is(err, service.ErrBindingNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "judging is not bound to challenge")
	case errors.Is(err, service.ErrNotWinnerAssigner):
		return utils.SendError(c, fiber.StatusForbidden, "judging is not the winner assigner for challenge")
	case isValidationError(err):
		return sendValidationError(c, err)
	default:
		requestLogger(h.logger, c).Error().Err(err).Uint("judging_id", judgingID).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
