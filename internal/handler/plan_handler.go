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

// PlanHandler exposes direct study-plan operations: create with a
// day/time expression, list the current week, and reschedule.
type PlanHandler struct {
	planner service.PlannerService
	logger  zerolog.Logger
}

func NewPlanHandler(planner service.PlannerService, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{
		planner: planner,
		logger:  logger.With().Str("component", "plan_handler").Logger(),
	}
}

// Register binds the plan routes.
func (h *PlanHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/", h.list)
	router.Put("/reschedule", h.reschedule)
}

func (h *PlanHandler) create(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.PlanCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	plan, err := h.planner.CreatePlan(requestContext(c), userID, payload, time.Now())
	if err != nil {
		return h.planError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "study plan saved", plan)
}

func (h *PlanHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	plans, err := h.planner.ListPlans(requestContext(c), userID, time.Now())
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "week plans", plans)
}

func (h *PlanHandler) reschedule(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.PlanRescheduleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.planner.Reschedule(requestContext(c), userID, payload, time.Now()); err != nil {
		return h.planError(c, err)
	}

	return utils.SendSuccess(c, "study plan rescheduled", nil)
}

func (h *PlanHandler) planError(c *fiber.Ctx, err error) error {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrBadTimeFormat), errors.Is(err, service.ErrUnknownDay):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAssignmentNotFound), errors.Is(err, service.ErrPlanNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	default:
		h.logger.Error().Err(err).Msg("plan operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}
}
