package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hackhub-dev/judging-api/internal/dto"
	"github.com/hackhub-dev/judging-api/internal/service"
	"github.com/hackhub-dev/judging-api/internal/utils"
)

// EntryHandler wires judging entry lifecycle and worklist view endpoints.
type EntryHandler struct {
	entries service.EntryService
	logger  zerolog.Logger
}

// NewEntryHandler constructs the handler.
func NewEntryHandler(entries service.EntryService, logger zerolog.Logger) *EntryHandler {
	return &EntryHandler{
		entries: entries,
		logger:  logger.With().Str("component", "entry_handler").Logger(),
	}
}

// Register attaches entry endpoints to the router group.
func (h *EntryHandler) Register(router fiber.Router) {
	router.Get("/judgings/:id/projects", h.listProjects)
	router.Get("/judgings/:id/entries", h.listEntries)
	router.Get("/judgings/:id/entries/details", h.projectDetails)
	router.Get("/judgings/:id/progress", h.progress)
	router.Post("/judgings/:id/entries", h.submit)
	router.Patch("/judgings/:id/entries", h.update)
	router.Post("/judgings/:id/entries/flag", h.flag)
	router.Post("/judgings/:id/entries/unflag", h.unflag)
}

func (h *EntryHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.EntrySubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := activityActorFromContext(c)
	entry, err := h.entries.Submit(c.Context(), id, payload, actor)
	if err != nil {
		return h.mapEntryError(c, id, err, "failed to submit entry")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "entry submitted", entry)
}

func (h *EntryHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.EntryUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := activityActorFromContext(c)
	entry, err := h.entries.Update(c.Context(), id, payload, actor)
	if err != nil {
		return h.mapEntryError(c, id, err, "failed to update entry")
	}

	return utils.SendSuccess(c, "entry updated", entry)
}

func (h *EntryHandler) flag(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.FlagEntryRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := activityActorFromContext(c)
	entry, err := h.entries.Flag(c.Context(), id, payload, actor)
	if err != nil {
		return h.mapEntryError(c, id, err, "failed to flag entry")
	}

	return utils.SendSuccess(c, "entry flagged", entry)
}

func (h *EntryHandler) unflag(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.UnflagEntryRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := activityActorFromContext(c)
	entry, err := h.entries.Unflag(c.Context(), id, payload, actor)
	if err != nil {
		return h.mapEntryError(c, id, err, "failed to unflag entry")
	}

	return utils.SendSuccess(c, "entry unflagged", entry)
}

func (h *EntryHandler) projectDetails(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	projectID, err := parseQueryUint(c, "project_id")
	if err != nil || projectID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "project_id required")
	}
	challengeID, err := parseQueryUint(c, "challenge_id")
	if err != nil || challengeID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "challenge_id required")
	}

	details, err := h.entries.GetProjectDetails(c.Context(), id, projectID, challengeID)
	if err != nil {
		return h.mapEntryError(c, id, err, "failed to load project details")
	}

	return utils.SendSuccess(c, "project details retrieved", details)
}

func (h *EntryHandler) progress(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	progress, err := h.entries.GetProgress(c.Context(), id)
	if err != nil {
		return h.mapEntryError(c, id, err, "failed to load progress")
	}

	return utils.SendSuccess(c, "progress retrieved", progress)
}

func (h *EntryHandler) listProjects(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	groups, err := h.entries.GetJudgingProjects(c.Context(), id)
	if err != nil {
		return h.mapEntryError(c, id, err, "failed to load judging projects")
	}

	return utils.SendSuccess(c, "judging projects retrieved", groups)
}

func (h *EntryHandler) listEntries(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	entries, err := h.entries.ListEntries(c.Context(), id)
	if err != nil {
		return h.mapEntryError(c, id, err, "failed to list entries")
	}

	return utils.SendSuccess(c, "entries retrieved", entries)
}

func (h *EntryHandler) mapEntryError(c *fiber.Ctx, judgingID uint, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrJudgingNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "judging not found")
	case errors.Is(err, service.ErrEntryNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "entry not found")
	case errors.Is(err, service.ErrChallengeNotBound):
		return utils.SendError(c, fiber.StatusBadRequest, "challenge is not assigned to this judging")
	case errors.Is(err, service.ErrEntryExists):
		return utils.SendError(c, fiber.StatusConflict, "entry already exists for pair")
	case errors.Is(err, service.ErrEntryLocked):
		return utils.SendError(c, fiber.StatusConflict, "entry scores are locked")
	case errors.Is(err, service.ErrEntryFlagged):
		return utils.SendError(c, fiber.StatusConflict, "entry is flagged")
	case errors.Is(err, service.ErrFlagReasonRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "flag reason is required")
	case isValidationError(err):
		return sendValidationError(c, err)
	default:
		requestLogger(h.logger, c).Error().Err(err).Uint("judging_id", judgingID).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
