package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/dto"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/repository"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/utils"
)

// UnreadBadgeEmitter pushes the refreshed unread badge to the reader's room
// after read state changes.
type UnreadBadgeEmitter interface {
	UnreadCount(ctx context.Context, owner models.ParticipantRef) (int64, error)
}

// ReadReceiptService marks messages read and advances per-participant read
// state. Re-running any mark operation is idempotent: receipts upsert on
// their unique key and LastReadAt only moves forward.
type ReadReceiptService interface {
	MarkRead(ctx context.Context, req dto.MarkReadRequest) error
}

type readReceiptService struct {
	messages      repository.MessageRepository
	reads         repository.MessageReadRepository
	conversations repository.ConversationRepository
	guard         ConversationService
	registry      *PresenceRegistry
	badges        UnreadBadgeEmitter
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewReadReceiptService creates a read receipt service instance.
func NewReadReceiptService(messages repository.MessageRepository, reads repository.MessageReadRepository, conversations repository.ConversationRepository, guard ConversationService, registry *PresenceRegistry, badges UnreadBadgeEmitter, validate *validator.Validate, logger zerolog.Logger) ReadReceiptService {
	return &readReceiptService{
		messages:      messages,
		reads:         reads,
		conversations: conversations,
		guard:         guard,
		registry:      registry,
		badges:        badges,
		validator:     validate,
		logger:        logger.With().Str("component", "read_receipt_service").Logger(),
		tracer:        otel.Tracer("github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/service/read_receipt"),
	}
}

// MarkRead upserts receipts for one message (MessageID set) or every unread
// message in the conversation, then advances the membership's LastReadAt.
// The guard runs before any write.
func (s *readReceiptService) MarkRead(ctx context.Context, req dto.MarkReadRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	reader := models.NewParticipantRef(req.UserID, req.ParticipantType)

	if err := s.guard.VerifyParticipation(ctx, reader, req.ConversationID); err != nil {
		return err
	}

	spanCtx, span := s.tracer.Start(ctx, "messages.mark_read", trace.WithAttributes(
		attribute.Int("chat.conversation_id", int(req.ConversationID)),
		attribute.String("chat.reader", reader.Key()),
		attribute.Bool("chat.bulk", req.MessageID == nil),
	))
	defer span.End()

	now := time.Now().UTC()

	if req.MessageID != nil {
		if err := s.markSingle(spanCtx, reader, req.ConversationID, *req.MessageID, now); err != nil {
			span.RecordError(err)
			return err
		}
	} else {
		if err := s.markAllUnread(spanCtx, reader, req.ConversationID, now); err != nil {
			span.RecordError(err)
			return err
		}
	}

	if err := s.conversations.AdvanceLastRead(spanCtx, req.ConversationID, reader, now); err != nil {
		span.RecordError(err)
		return utils.NewAppError(utils.ErrServer, "failed to advance read state", err)
	}

	s.emitBadge(spanCtx, reader)

	return nil
}

func (s *readReceiptService) markSingle(ctx context.Context, reader models.ParticipantRef, conversationID, messageID uint, now time.Time) error {
	message, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewMessageNotFoundError()
		}
		return utils.NewAppError(utils.ErrServer, "failed to load message", err)
	}
	if message.ConversationID != conversationID {
		return utils.NewMessageNotFoundError()
	}

	read := models.MessageRead{
		MessageID:       messageID,
		ParticipantID:   reader.ID,
		ParticipantType: string(reader.Kind),
		ReadAt:          &now,
	}
	if err := s.reads.Upsert(ctx, &read); err != nil {
		return utils.NewAppError(utils.ErrServer, "failed to record read receipt", err)
	}
	return nil
}

func (s *readReceiptService) markAllUnread(ctx context.Context, reader models.ParticipantRef, conversationID uint, now time.Time) error {
	unread, err := s.messages.ListUnread(ctx, conversationID, reader)
	if err != nil {
		return utils.NewAppError(utils.ErrServer, "failed to list unread messages", err)
	}
	if len(unread) == 0 {
		return nil
	}

	reads := make([]models.MessageRead, 0, len(unread))
	for _, message := range unread {
		readAt := now
		reads = append(reads, models.MessageRead{
			MessageID:       message.ID,
			ParticipantID:   reader.ID,
			ParticipantType: string(reader.Kind),
			ReadAt:          &readAt,
		})
	}

	if err := s.reads.UpsertAll(ctx, reads); err != nil {
		return utils.NewAppError(utils.ErrServer, "failed to record read receipts", err)
	}

	s.logger.Debug().Int("count", len(reads)).Str("reader", reader.Key()).Uint("conversation_id", conversationID).Msg("bulk read receipts recorded")
	return nil
}

func (s *readReceiptService) emitBadge(ctx context.Context, reader models.ParticipantRef) {
	if s.badges == nil {
		return
	}
	count, err := s.badges.UnreadCount(ctx, reader)
	if err != nil {
		s.logger.Warn().Err(err).Str("reader", reader.Key()).Msg("failed to refresh unread badge")
		return
	}
	s.registry.Broadcast(reader.Key(), dto.NewUnreadCountUpdateEvent(count))
}
