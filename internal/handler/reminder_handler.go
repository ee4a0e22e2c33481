package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/models"
	"github.com/noah-isme/ingat-go-api/internal/service"
	"github.com/noah-isme/ingat-go-api/internal/utils"
)

// ReminderHandler exposes mark-sent acknowledgements for delivery
// shells that relay reminders further (chat bots, push bridges). The
// operations are idempotent: acknowledging an already-sent reminder is
// a no-op.
type ReminderHandler struct {
	engine    service.ReminderService
	validator *validator.Validate
	logger    zerolog.Logger
}

func NewReminderHandler(engine service.ReminderService, validate *validator.Validate, logger zerolog.Logger) *ReminderHandler {
	return &ReminderHandler{
		engine:    engine,
		validator: validate,
		logger:    logger.With().Str("component", "reminder_handler").Logger(),
	}
}

// Register binds the acknowledgement routes.
func (h *ReminderHandler) Register(router fiber.Router) {
	router.Post("/ack/work", h.ackWork)
	router.Post("/ack/due", h.ackDue)
}

func (h *ReminderHandler) ackWork(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.WorkReminderAck
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	payload.UserID = userID
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if !payload.Threshold.Valid() {
		return utils.SendError(c, fiber.StatusBadRequest, "unknown threshold")
	}

	key := models.PlanKey{UserID: userID, CourseID: payload.CourseID, AssignmentID: payload.AssignmentID}
	if err := h.engine.MarkWorkReminderSent(requestContext(c), key, payload.Threshold); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "study plan not found")
		}
		h.logger.Error().Err(err).Msg("work reminder ack failed")
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "reminder acknowledged", nil)
}

func (h *ReminderHandler) ackDue(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.DueReminderAck
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if !payload.Threshold.Valid() {
		return utils.SendError(c, fiber.StatusBadRequest, "unknown threshold")
	}

	key := models.AssignmentKey{CourseID: payload.CourseID, AssignmentID: payload.AssignmentID}
	if err := h.engine.MarkDueReminderSent(requestContext(c), key, payload.Threshold); err != nil {
		h.logger.Error().Err(err).Msg("due reminder ack failed")
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "reminder acknowledged", nil)
}
