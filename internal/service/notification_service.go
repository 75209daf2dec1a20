package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
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

// NotificationService persists notifications and mirrors them to the owner's
// socket room. The row is written first in every path; broadcasting is
// best-effort on top of it.
type NotificationService interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
	List(ctx context.Context, owner models.ParticipantRef, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id uint, owner models.ParticipantRef) (dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, owner models.ParticipantRef) (int64, error)
	Start(ctx context.Context)
}

type notificationService struct {
	repo        repository.NotificationRepository
	registry    *PresenceRegistry
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
}

// NewNotificationService constructs a notification service. natsConn may be
// nil, in which case the external event bridge is disabled.
func NewNotificationService(repo repository.NotificationRepository, registry *PresenceRegistry, natsConn *nats.Conn, natsSubject string, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:        repo,
		registry:    registry,
		nats:        natsConn,
		natsSubject: natsSubject,
		validator:   validate,
		logger:      logger.With().Str("component", "notification_service").Logger(),
		tracer:      otel.Tracer("github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/service/notification"),
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// Start subscribes to the NATS subject carrying notification events produced
// by the out-of-scope subsystems (payments, plan approvals). Each event runs
// through the same persist-then-push path as chat notifications.
func (s *notificationService) Start(ctx context.Context) {
	if s.nats == nil || s.natsSubject == "" {
		return
	}

	sub, err := s.nats.QueueSubscribe(s.natsSubject, "fithub-api", func(msg *nats.Msg) {
		var payload dto.NotificationCreateRequest
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			s.logger.Warn().Err(err).Msg("invalid notification event payload")
			return
		}
		if _, err := s.Publish(ctx, payload); err != nil {
			s.logger.Error().Err(err).Str("user_id", payload.UserID).Msg("failed to ingest external notification")
		}
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to notification subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification subscription")
		}
	}()
}

// Publish persists the notification, then pushes the payload and the owner's
// updated unread count to their room. The broadcast never fails the call.
func (s *notificationService) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NotificationResponse{}, err
	}

	cleanMessage := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	if cleanMessage == "" {
		return dto.NotificationResponse{}, utils.NewValidationError("notification message empty after sanitization")
	}

	owner := models.NewParticipantRef(payload.UserID, payload.UserType)

	spanCtx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(
		attribute.String("notification.owner", owner.Key()),
		attribute.String("notification.type", payload.Type),
	))
	defer span.End()

	model := models.Notification{
		UserID:   owner.ID,
		UserType: string(owner.Kind),
		Type:     payload.Type,
		Message:  cleanMessage,
	}
	if payload.Metadata != nil {
		model.Metadata = payload.Metadata
	}

	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, utils.NewAppError(utils.ErrServer, "failed to persist notification", err)
	}

	response := dto.NewNotificationResponse(model)
	s.registry.Broadcast(owner.Key(), dto.NewNotificationNewEvent(response))
	s.emitUnreadCount(spanCtx, owner)

	observability.NotificationsPublished().WithLabelValues(response.Type).Inc()

	return response, nil
}

func (s *notificationService) List(ctx context.Context, owner models.ParticipantRef, limit, offset int) ([]dto.NotificationResponse, error) {
	if !owner.Valid() {
		return nil, utils.NewValidationError("notification owner is required")
	}

	notifications, err := s.repo.ListByOwner(ctx, owner, limit, offset)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrServer, "failed to list notifications", err)
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

// MarkRead flips the read flag and emits the refreshed unread count. The
// persistence step always completes; a roomless owner just misses the push.
func (s *notificationService) MarkRead(ctx context.Context, id uint, owner models.ParticipantRef) (dto.NotificationResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.String("notification.owner", owner.Key()),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(spanCtx, id, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, utils.NewAppError(utils.ErrNotificationNotFound, "notification not found", err)
		}
		span.RecordError(err)
		return dto.NotificationResponse{}, utils.NewAppError(utils.ErrServer, "failed to mark notification read", err)
	}

	s.emitUnreadCount(spanCtx, owner)

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, owner models.ParticipantRef) (int64, error) {
	count, err := s.repo.CountUnread(ctx, owner)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrServer, "failed to count unread notifications", err)
	}
	return count, nil
}

func (s *notificationService) emitUnreadCount(ctx context.Context, owner models.ParticipantRef) {
	count, err := s.repo.CountUnread(ctx, owner)
	if err != nil {
		s.logger.Warn().Err(err).Str("owner", owner.Key()).Msg("failed to refresh unread count")
		return
	}
	s.registry.Broadcast(owner.Key(), dto.NewUnreadCountUpdateEvent(count))
}
