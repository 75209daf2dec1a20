package service

import (
	"context"
	"errors"

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

// ConversationService owns conversation lifecycle and is the single
// enforcement point for conversation-level access control.
type ConversationService interface {
	CreateOrGet(ctx context.Context, a, b models.ParticipantRef) (dto.ConversationResponse, error)
	VerifyParticipation(ctx context.Context, participant models.ParticipantRef, conversationID uint) error
}

type conversationService struct {
	repo   repository.ConversationRepository
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewConversationService creates a conversation service instance.
func NewConversationService(repo repository.ConversationRepository, logger zerolog.Logger) ConversationService {
	return &conversationService{
		repo:   repo,
		logger: logger.With().Str("component", "conversation_service").Logger(),
		tracer: otel.Tracer("github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/service/conversation"),
	}
}

// CreateOrGet returns the existing 1:1 conversation for the unordered pair,
// creating it together with both membership rows when absent. Calling it
// again, with either argument order, yields the same conversation.
func (s *conversationService) CreateOrGet(ctx context.Context, a, b models.ParticipantRef) (dto.ConversationResponse, error) {
	if !a.Valid() || !b.Valid() {
		return dto.ConversationResponse{}, utils.NewValidationError("both participants are required")
	}
	if a.Equal(b) {
		return dto.ConversationResponse{}, utils.NewValidationError("a conversation needs two distinct participants")
	}

	spanCtx, span := s.tracer.Start(ctx, "conversations.create_or_get", trace.WithAttributes(
		attribute.String("chat.participant_a", a.Key()),
		attribute.String("chat.participant_b", b.Key()),
	))
	defer span.End()

	existing, err := s.repo.FindByParticipants(spanCtx, a, b)
	if err == nil {
		return dto.NewConversationResponse(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.ConversationResponse{}, utils.NewAppError(utils.ErrConversationCreationFailed, "failed to look up conversation", err)
	}

	conversation := models.Conversation{IsGroup: false}
	if err := s.repo.CreateWithParticipants(spanCtx, &conversation, a, b); err != nil {
		// A concurrent caller may have created the pair between lookup and
		// insert; a second lookup resolves the race without surfacing it.
		if retry, retryErr := s.repo.FindByParticipants(spanCtx, a, b); retryErr == nil {
			return dto.NewConversationResponse(retry), nil
		}
		span.RecordError(err)
		return dto.ConversationResponse{}, utils.NewAppError(utils.ErrConversationCreationFailed, "failed to create conversation", err)
	}

	s.logger.Info().Uint("conversation_id", conversation.ID).
		Str("participant_a", a.Key()).
		Str("participant_b", b.Key()).
		Msg("conversation created")

	return dto.NewConversationResponse(conversation), nil
}

// VerifyParticipation fails when the participant does not belong to the
// conversation. It runs before every message read, write, and socket join;
// no mutation happens past a failed check.
func (s *conversationService) VerifyParticipation(ctx context.Context, participant models.ParticipantRef, conversationID uint) error {
	if !participant.Valid() || conversationID == 0 {
		return utils.NewValidationError("participant and conversation id are required")
	}

	ok, err := s.repo.IsParticipant(ctx, conversationID, participant)
	if err != nil {
		return utils.NewAppError(utils.ErrServer, "failed to verify conversation membership", err)
	}
	if !ok {
		return utils.NewNotParticipantError()
	}
	return nil
}
