package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ingat-go-api/internal/service"
)

// StreamHandler upgrades clients to a websocket reminder stream. Every
// event selected for the authenticated user is delivered as one JSON
// message.
type StreamHandler struct {
	dispatcher service.DispatchService
	logger     zerolog.Logger
}

func NewStreamHandler(dispatcher service.DispatchService, logger zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "stream_handler").Logger(),
	}
}

// Register binds the stream route.
func (h *StreamHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *StreamHandler) handleConnection(conn *websocket.Conn) {
	userID := websocketUserID(conn)
	if userID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "user id missing"))
		_ = conn.Close()
		return
	}

	events, cleanup := h.dispatcher.Subscribe(userID)
	defer cleanup()

	h.logger.Info().Str("user_id", userID).Msg("reminder stream connected")
	defer h.logger.Info().Str("user_id", userID).Msg("reminder stream disconnected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Str("user_id", userID).Msg("failed to write reminder event")
				return
			}
		case <-closed:
			return
		}
	}
}
