package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ingat-go-api/internal/service"
	"github.com/noah-isme/ingat-go-api/internal/utils"
)

// WeekHandler serves the weekly digest and completion summary.
type WeekHandler struct {
	digest service.DigestService
	engine service.ReminderService
	logger zerolog.Logger
}

func NewWeekHandler(digest service.DigestService, engine service.ReminderService, logger zerolog.Logger) *WeekHandler {
	return &WeekHandler{
		digest: digest,
		engine: engine,
		logger: logger.With().Str("component", "week_handler").Logger(),
	}
}

// Register binds the week routes.
func (h *WeekHandler) Register(router fiber.Router) {
	router.Get("/digest", h.weekDigest)
	router.Get("/completion", h.weekCompletion)
}

func (h *WeekHandler) weekDigest(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	digest, err := h.digest.WeekDigest(requestContext(c), userID, time.Now())
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "week digest", digest)
}

func (h *WeekHandler) weekCompletion(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	summary, err := h.engine.WeekCompletion(requestContext(c), userID, time.Now())
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "week completion", summary)
}
