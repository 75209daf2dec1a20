package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/middleware"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/service"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/utils"
)

// ChatHandler wires the chat summary endpoint and the websocket upgrade.
type ChatHandler struct {
	summaries service.ChatSummaryService
	gateway   *service.SocketGateway
	logger    zerolog.Logger
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(summaries service.ChatSummaryService, gateway *service.SocketGateway, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		summaries: summaries,
		gateway:   gateway,
		logger:    logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds chat routes under the provided router group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
	router.Get("/summary", h.summary)
}

func (h *ChatHandler) handleConnection(conn *websocket.Conn) {
	participant := websocketParticipant(conn)
	if !participant.Valid() {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "identity missing"))
		_ = conn.Close()
		return
	}

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	h.logger.Info().Str("participant", participant.Key()).Msg("chat websocket connected")
	h.gateway.ServeConnection(baseCtx, conn, participant)
	h.logger.Info().Str("participant", participant.Key()).Msg("chat websocket disconnected")
}

func (h *ChatHandler) summary(c *fiber.Ctx) error {
	participant := participantFromContext(c)
	if !participant.Valid() {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.ErrUnauthenticated, "authentication required")
	}

	rows, err := h.summaries.Summarize(requestContext(c), participant)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("chat summary failed")
		return utils.SendAppError(c, err)
	}

	return utils.SendSuccess(c, "chat summary", rows)
}

func websocketParticipant(conn *websocket.Conn) models.ParticipantRef {
	id := ""
	if value := conn.Locals("user_id"); value != nil {
		switch v := value.(type) {
		case float64:
			id = fmt.Sprintf("%d", uint(v))
		case uint:
			id = fmt.Sprintf("%d", v)
		case int:
			id = fmt.Sprintf("%d", v)
		case string:
			id = strings.TrimSpace(v)
		}
	}
	role := fmt.Sprint(conn.Locals("user_role"))
	return models.NewParticipantRef(id, role)
}
