package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/service"
	"github.com/noah-isme/ingat-go-api/internal/utils"
)

// PlannerHandler drives the interactive planning and rescheduling
// dialogues over stateless HTTP: starting a session returns a session
// id and a prompt, replies advance it until a terminal state.
type PlannerHandler struct {
	planner service.PlannerService
	logger  zerolog.Logger
}

func NewPlannerHandler(planner service.PlannerService, logger zerolog.Logger) *PlannerHandler {
	return &PlannerHandler{
		planner: planner,
		logger:  logger.With().Str("component", "planner_handler").Logger(),
	}
}

// Register binds the planner dialogue routes.
func (h *PlannerHandler) Register(router fiber.Router) {
	router.Post("/sessions", h.startPlanning)
	router.Post("/sessions/reschedule", h.startReschedule)
	router.Post("/reply", h.reply)
}

func (h *PlannerHandler) startPlanning(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	state, err := h.planner.StartPlanning(requestContext(c), userID, time.Now())
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "planning session started", state)
}

func (h *PlannerHandler) startReschedule(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	state, err := h.planner.StartReschedule(requestContext(c), userID, time.Now())
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reschedule session started", state)
}

func (h *PlannerHandler) reply(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.PlannerReplyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	state, err := h.planner.Reply(requestContext(c), userID, payload)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSessionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		default:
			h.logger.Error().Err(err).Msg("planner reply failed")
			return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	return utils.SendSuccess(c, "planning session updated", state)
}
