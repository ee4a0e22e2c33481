package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/service"
	"github.com/noah-isme/ingat-go-api/internal/utils"
)

// CompletionHandler exposes completion tracking: list the week's
// incomplete assignments and mark a selection done.
type CompletionHandler struct {
	service service.CompletionService
	logger  zerolog.Logger
}

func NewCompletionHandler(service service.CompletionService, logger zerolog.Logger) *CompletionHandler {
	return &CompletionHandler{
		service: service,
		logger:  logger.With().Str("component", "completion_handler").Logger(),
	}
}

// Register binds the completion routes.
func (h *CompletionHandler) Register(router fiber.Router) {
	router.Get("/pending", h.pending)
	router.Post("/", h.complete)
}

func (h *CompletionHandler) pending(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	query := strings.TrimSpace(c.Query("query"))
	items, err := h.service.ListIncomplete(requestContext(c), userID, time.Now(), query)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "incomplete assignments", items)
}

func (h *CompletionHandler) complete(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.CompleteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Complete(requestContext(c), userID, time.Now(), payload)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.Is(err, service.ErrNothingSelected):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.As(err, &validationErrs):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Msg("completion failed")
			return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	return utils.SendSuccess(c, "assignments marked complete", result)
}
