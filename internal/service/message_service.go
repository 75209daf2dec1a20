package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/dto"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/observability"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/repository"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/utils"
)

// NotificationPublisher is the slice of the notification service that message
// delivery needs.
type NotificationPublisher interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
}

// MessageService appends messages and serves cursor-paginated history. Both
// entry points verify conversation membership through the guard before
// touching storage.
type MessageService interface {
	Send(ctx context.Context, req dto.MessageSendRequest) (dto.MessageResponse, error)
	GetMessages(ctx context.Context, requester models.ParticipantRef, conversationID uint, query dto.MessagesQuery) (dto.MessagesPageResponse, error)
}

type messageService struct {
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	guard         ConversationService
	registry      *PresenceRegistry
	notifications NotificationPublisher
	cache         *LastMessageCache
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	sanitizer     *bluemonday.Policy
}

// NewMessageService creates a message service instance.
func NewMessageService(messages repository.MessageRepository, conversations repository.ConversationRepository, guard ConversationService, registry *PresenceRegistry, notifications NotificationPublisher, cache *LastMessageCache, validate *validator.Validate, logger zerolog.Logger) MessageService {
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowElements("br")

	return &messageService{
		messages:      messages,
		conversations: conversations,
		guard:         guard,
		registry:      registry,
		notifications: notifications,
		cache:         cache,
		validator:     validate,
		logger:        logger.With().Str("component", "message_service").Logger(),
		tracer:        otel.Tracer("github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/service/message"),
		sanitizer:     sanitizer,
	}
}

// Send persists the message, refreshes the conversation's advisory
// last-message pointer, and fans the event out to the other participant's
// room. Delivery and notification failures are logged, never surfaced: the
// durable write is the record of truth.
func (s *messageService) Send(ctx context.Context, req dto.MessageSendRequest) (dto.MessageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.MessageResponse{}, err
	}

	clean := strings.TrimSpace(s.sanitizer.Sanitize(req.Content))
	if clean == "" {
		return dto.MessageResponse{}, utils.NewValidationError("message content empty after sanitization")
	}

	sender := models.NewParticipantRef(req.SenderID, req.SenderType)

	if err := s.guard.VerifyParticipation(ctx, sender, req.ConversationID); err != nil {
		return dto.MessageResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "messages.send", trace.WithAttributes(
		attribute.Int("chat.conversation_id", int(req.ConversationID)),
		attribute.String("chat.sender", sender.Key()),
	))
	defer span.End()

	message := models.Message{
		ConversationID: req.ConversationID,
		SenderID:       sender.ID,
		SenderType:     string(sender.Kind),
		Content:        clean,
	}

	if err := s.messages.Create(spanCtx, &message); err != nil {
		span.RecordError(err)
		return dto.MessageResponse{}, utils.NewAppError(utils.ErrMessageCreationFailed, "failed to persist message", err)
	}

	// The pointer is a cache hint; a stale value only means summaries
	// re-derive the last message from the ordered query.
	if err := s.conversations.UpdateLastMessage(spanCtx, message.ConversationID, message.ID); err != nil {
		s.logger.Warn().Err(err).Uint("conversation_id", message.ConversationID).Msg("failed to update last message pointer")
	}

	response := dto.NewMessageResponse(message)
	s.cache.Store(spanCtx, response)
	s.deliver(spanCtx, sender, response)

	observability.ChatMessagesSent().Inc()

	return response, nil
}

func (s *messageService) deliver(ctx context.Context, sender models.ParticipantRef, message dto.MessageResponse) {
	participants, err := s.conversations.Participants(ctx, message.ConversationID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("conversation_id", message.ConversationID).Msg("failed to resolve recipients for delivery")
		return
	}

	for _, member := range participants {
		recipient := member.Participant()
		if recipient.Equal(sender) {
			continue
		}

		s.registry.Broadcast(recipient.Key(), dto.NewMessageNewEvent(message))

		if s.notifications == nil {
			continue
		}
		_, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
			UserID:   recipient.ID,
			UserType: string(recipient.Kind),
			Type:     models.NotificationTypeInfo,
			Message:  "You have a new message",
			Metadata: map[string]interface{}{
				"conversation_id": message.ConversationID,
				"message_id":      message.ID,
			},
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("recipient", recipient.Key()).Msg("failed to publish message notification")
		}
	}
}

// GetMessages serves one cursor page after the membership check. Cursor ids
// that do not resolve to a message fail with MessageNotFound.
func (s *messageService) GetMessages(ctx context.Context, requester models.ParticipantRef, conversationID uint, query dto.MessagesQuery) (dto.MessagesPageResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.MessagesPageResponse{}, err
	}

	if err := s.guard.VerifyParticipation(ctx, requester, conversationID); err != nil {
		return dto.MessagesPageResponse{}, err
	}

	messages, hasMore, err := s.messages.ListPage(ctx, conversationID, repository.MessageCursor{
		Before: query.Before,
		After:  query.After,
		Limit:  query.Limit,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MessagesPageResponse{}, utils.NewMessageNotFoundError()
		}
		return dto.MessagesPageResponse{}, utils.NewAppError(utils.ErrServer, "failed to load messages", err)
	}

	return dto.MessagesPageResponse{
		Messages: dto.NewMessageResponseSlice(messages),
		HasMore:  hasMore,
	}, nil
}
