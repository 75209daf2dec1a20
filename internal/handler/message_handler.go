package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/dto"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/service"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/utils"
)

// MessageHandler exposes message send and read-receipt endpoints.
type MessageHandler struct {
	messages service.MessageService
	receipts service.ReadReceiptService
	logger   zerolog.Logger
}

// NewMessageHandler creates a message handler instance.
func NewMessageHandler(messages service.MessageService, receipts service.ReadReceiptService, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		receipts: receipts,
		logger:   logger.With().Str("component", "message_handler").Logger(),
	}
}

// Register binds message routes under the provided router group. sendLimit,
// when non-nil, meters the send route only; marking messages read stays
// unmetered.
func (h *MessageHandler) Register(router fiber.Router, sendLimit fiber.Handler) {
	if sendLimit != nil {
		router.Post("/", sendLimit, h.send)
	} else {
		router.Post("/", h.send)
	}
	router.Patch("/read", h.markRead)
}

func (h *MessageHandler) send(c *fiber.Ctx) error {
	caller := participantFromContext(c)
	if !caller.Valid() {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.ErrUnauthenticated, "authentication required")
	}

	var req dto.MessageSendRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.ErrValidation, "invalid request body")
	}

	sender := models.NewParticipantRef(req.SenderID, req.SenderType)
	if !sender.Equal(caller) {
		return utils.SendError(c, fiber.StatusForbidden, utils.ErrUnauthorizedConversation, "sender does not match authenticated identity")
	}

	message, err := h.messages.Send(requestContext(c), req)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("conversation_id", req.ConversationID).Msg("message send failed")
		return utils.SendAppError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

func (h *MessageHandler) markRead(c *fiber.Ctx) error {
	caller := participantFromContext(c)
	if !caller.Valid() {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.ErrUnauthenticated, "authentication required")
	}

	var req dto.MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.ErrValidation, "invalid request body")
	}

	reader := models.NewParticipantRef(req.UserID, req.ParticipantType)
	if !reader.Equal(caller) {
		return utils.SendError(c, fiber.StatusForbidden, utils.ErrUnauthorizedConversation, "reader does not match authenticated identity")
	}

	if err := h.receipts.MarkRead(requestContext(c), req); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("conversation_id", req.ConversationID).Msg("mark read failed")
		return utils.SendAppError(c, err)
	}

	return utils.SendSuccess(c, "messages marked as read", nil)
}
