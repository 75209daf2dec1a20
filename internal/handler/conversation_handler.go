package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/dto"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/middleware"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/service"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/utils"
)

// ConversationHandler exposes conversation bootstrap and history pagination.
type ConversationHandler struct {
	conversations service.ConversationService
	messages      service.MessageService
	logger        zerolog.Logger
}

// NewConversationHandler creates a conversation handler instance.
func NewConversationHandler(conversations service.ConversationService, messages service.MessageService, logger zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		messages:      messages,
		logger:        logger.With().Str("component", "conversation_handler").Logger(),
	}
}

// Register binds conversation routes under the provided router group.
func (h *ConversationHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/:id/messages", h.listMessages)
}

func (h *ConversationHandler) create(c *fiber.Ctx) error {
	caller := participantFromContext(c)
	if !caller.Valid() {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.ErrUnauthenticated, "authentication required")
	}

	var req dto.ConversationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.ErrValidation, "invalid request body")
	}

	counterpart := models.NewParticipantRef(req.CounterpartID, req.CounterpartRole)

	conversation, err := h.conversations.CreateOrGet(requestContext(c), caller, counterpart)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("conversation create failed")
		return utils.SendAppError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "conversation ready", conversation)
}

func (h *ConversationHandler) listMessages(c *fiber.Ctx) error {
	requester := participantFromContext(c)
	if !requester.Valid() {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.ErrUnauthenticated, "authentication required")
	}

	conversationID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || conversationID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, utils.ErrValidation, "invalid conversation id")
	}

	before, err := parseQueryUint(c, "before")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.ErrValidation, "invalid before cursor")
	}
	after, err := parseQueryUint(c, "after")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.ErrValidation, "invalid after cursor")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.ErrValidation, "invalid limit")
	}

	query := dto.MessagesQuery{Before: before, After: after, Limit: limit}

	page, err := h.messages.GetMessages(requestContext(c), requester, uint(conversationID), query)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint64("conversation_id", conversationID).Msg("message page fetch failed")
		return utils.SendAppError(c, err)
	}

	return utils.SendSuccess(c, "messages", page)
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}
