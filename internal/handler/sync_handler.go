package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ingat-go-api/internal/service"
	"github.com/noah-isme/ingat-go-api/internal/utils"
)

// SyncHandler exposes the manual Canvas sync trigger.
type SyncHandler struct {
	service service.SyncService
	logger  zerolog.Logger
}

func NewSyncHandler(service service.SyncService, logger zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		service: service,
		logger:  logger.With().Str("component", "sync_handler").Logger(),
	}
}

// Register binds the sync routes.
func (h *SyncHandler) Register(router fiber.Router) {
	router.Post("/", h.trigger)
}

func (h *SyncHandler) trigger(c *fiber.Ctx) error {
	result, err := h.service.Sync(requestContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("manual sync failed")
		return utils.SendError(c, fiber.StatusBadGateway, "sync failed: "+err.Error())
	}

	return utils.SendSuccess(c, "sync complete", result)
}
