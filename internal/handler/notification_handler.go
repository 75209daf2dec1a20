package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/service"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/utils"
)

// NotificationHandler exposes the notification inbox endpoints. Real-time
// delivery happens over the chat websocket, so this surface is plain CRUD.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/unread-count", h.unreadCount)
	router.Patch("/:id/read", h.markRead)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	owner := participantFromContext(c)
	if !owner.Valid() {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.ErrUnauthenticated, "authentication required")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.ErrValidation, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.ErrValidation, "invalid offset")
	}

	notifications, err := h.service.List(requestContext(c), owner, limit, offset)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("notification list failed")
		return utils.SendAppError(c, err)
	}

	return utils.SendSuccess(c, "notifications", notifications)
}

func (h *NotificationHandler) unreadCount(c *fiber.Ctx) error {
	owner := participantFromContext(c)
	if !owner.Valid() {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.ErrUnauthenticated, "authentication required")
	}

	count, err := h.service.UnreadCount(requestContext(c), owner)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("unread count failed")
		return utils.SendAppError(c, err)
	}

	return utils.SendSuccess(c, "unread count", fiber.Map{"count": count})
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	owner := participantFromContext(c)
	if !owner.Valid() {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.ErrUnauthenticated, "authentication required")
	}

	parsed, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || parsed == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, utils.ErrValidation, "invalid notification id")
	}

	notification, err := h.service.MarkRead(requestContext(c), uint(parsed), owner)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint64("notification_id", parsed).Msg("notification mark read failed")
		return utils.SendAppError(c, err)
	}

	return utils.SendSuccess(c, "notification updated", notification)
}
