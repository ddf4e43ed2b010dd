package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hackhub-dev/judging-api/internal/dto"
	"github.com/hackhub-dev/judging-api/internal/service"
	"github.com/hackhub-dev/judging-api/internal/utils"
)

// JudgingHandler wires judging lifecycle and worklist reconciliation endpoints.
type JudgingHandler struct {
	judgings   service.JudgingService
	reconciler service.ReconcilerService
	logger     zerolog.Logger
}

// NewJudgingHandler constructs the handler.
func NewJudgingHandler(judgings service.JudgingService, reconciler service.ReconcilerService, logger zerolog.Logger) *JudgingHandler {
	return &JudgingHandler{
		judgings:   judgings,
		reconciler: reconciler,
		logger:     logger.With().Str("component", "judging_handler").Logger(),
	}
}

// Register attaches judging endpoints to the router group.
func (h *JudgingHandler) Register(router fiber.Router) {
	router.Post("/judgings", h.create)
	router.Get("/judgings/:id", h.get)
	router.Post("/judgings/:id/submit", h.submit)
	router.Put("/judgings/:id/challenges", h.reconcileChallenges)
	router.Post("/judgings/:id/projects", h.assignProjects)
	router.Delete("/judgings/:id/projects", h.removeProjects)
}

func (h *JudgingHandler) create(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	judging, err := h.judgings.Create(c.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJudgingExists):
			return utils.SendError(c, fiber.StatusConflict, "judging already exists for user")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg("failed to create judging")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create judging")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "judging created", judging)
}

func (h *JudgingHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	judging, err := h.judgings.Get(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJudgingNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "judging not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("judging_id", id).Msg("failed to load judging")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to load judging")
		}
	}

	return utils.SendSuccess(c, "judging retrieved", judging)
}

func (h *JudgingHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	judging, err := h.judgings.Submit(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJudgingNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "judging not found")
		case errors.Is(err, service.ErrJudgingIncomplete):
			return utils.SendError(c, fiber.StatusConflict, "judging still has unresolved entries")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("judging_id", id).Msg("failed to submit judging")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to submit judging")
		}
	}

	return utils.SendSuccess(c, "judging submitted", judging)
}

func (h *JudgingHandler) reconcileChallenges(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ReconcileChallengesRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.reconciler.ReconcileChallenges(c.Context(), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJudgingNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "judging not found")
		case errors.Is(err, service.ErrChallengeSetRequired):
			return utils.SendError(c, fiber.StatusBadRequest, "challenge_ids is required")
		case isValidationError(err):
			return sendValidationError(c, err)
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("judging_id", id).Msg("failed to reconcile challenges")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to reconcile challenges")
		}
	}

	return utils.SendSuccess(c, "challenges reconciled", result)
}

func (h *JudgingHandler) assignProjects(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.PairsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.reconciler.AssignProjects(c.Context(), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJudgingNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "judging not found")
		case errors.Is(err, service.ErrChallengeNotBound):
			return utils.SendError(c, fiber.StatusBadRequest, "challenge is not assigned to this judging")
		case isValidationError(err):
			return sendValidationError(c, err)
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("judging_id", id).Msg("failed to assign projects")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to assign projects")
		}
	}

	return utils.SendSuccess(c, "projects assigned", result)
}

func (h *JudgingHandler) removeProjects(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.PairsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.reconciler.RemoveProjects(c.Context(), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJudgingNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "judging not found")
		case isValidationError(err):
			return sendValidationError(c, err)
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("judging_id", id).Msg("failed to remove projects")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to remove projects")
		}
	}

	return utils.SendSuccess(c, "projects removed", result)
}
