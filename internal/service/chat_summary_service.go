package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/dto"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/repository"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/utils"
)

// ChatSummaryService produces one summary row per conversation for a
// participant: the other side, the last message, and the unread count. The
// whole aggregation runs in a fixed number of batched queries regardless of
// how many conversations the caller has.
type ChatSummaryService interface {
	Summarize(ctx context.Context, participant models.ParticipantRef) ([]dto.ChatSummaryResponse, error)
}

type chatSummaryService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	cache         *LastMessageCache
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewChatSummaryService creates a summary service instance.
func NewChatSummaryService(conversations repository.ConversationRepository, messages repository.MessageRepository, cache *LastMessageCache, logger zerolog.Logger) ChatSummaryService {
	return &chatSummaryService{
		conversations: conversations,
		messages:      messages,
		cache:         cache,
		logger:        logger.With().Str("component", "chat_summary_service").Logger(),
		tracer:        otel.Tracer("github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/service/chat_summary"),
	}
}

func (s *chatSummaryService) Summarize(ctx context.Context, participant models.ParticipantRef) ([]dto.ChatSummaryResponse, error) {
	if !participant.Valid() {
		return nil, utils.NewValidationError("participant is required")
	}

	spanCtx, span := s.tracer.Start(ctx, "chat.summarize", trace.WithAttributes(
		attribute.String("chat.participant", participant.Key()),
	))
	defer span.End()

	memberships, err := s.conversations.MembershipsFor(spanCtx, participant)
	if err != nil {
		span.RecordError(err)
		return nil, utils.NewAppError(utils.ErrServer, "failed to load conversations", err)
	}
	if len(memberships) == 0 {
		return []dto.ChatSummaryResponse{}, nil
	}

	conversationIDs := make([]uint, 0, len(memberships))
	for _, membership := range memberships {
		conversationIDs = append(conversationIDs, membership.ConversationID)
	}

	others, err := s.conversations.ParticipantsExcept(spanCtx, conversationIDs, participant)
	if err != nil {
		span.RecordError(err)
		return nil, utils.NewAppError(utils.ErrServer, "failed to load conversation members", err)
	}
	otherByConversation := make(map[uint]models.ConversationUser, len(others))
	for _, other := range others {
		// First row wins; a 1:1 conversation has exactly one other member.
		if _, exists := otherByConversation[other.ConversationID]; !exists {
			otherByConversation[other.ConversationID] = other
		}
	}

	lastMessages := s.lastMessages(spanCtx, conversationIDs)

	unreadCounts, err := s.messages.CountUnreadByConversations(spanCtx, conversationIDs, participant)
	if err != nil {
		span.RecordError(err)
		return nil, utils.NewAppError(utils.ErrServer, "failed to count unread messages", err)
	}

	summaries := make([]dto.ChatSummaryResponse, 0, len(conversationIDs))
	for _, conversationID := range conversationIDs {
		other, ok := otherByConversation[conversationID]
		if !ok {
			s.logger.Warn().Uint("conversation_id", conversationID).Msg("conversation without counterpart, skipping summary row")
			continue
		}

		summary := dto.ChatSummaryResponse{
			ParticipantID:   other.ParticipantID,
			ParticipantRole: other.ParticipantType,
			ConversationID:  conversationID,
			UnreadCount:     unreadCounts[conversationID],
		}
		if last, exists := lastMessages[conversationID]; exists {
			lastCopy := last
			summary.LastMessage = &lastCopy
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// lastMessages resolves the newest message per conversation: Redis first in
// one MGET, then a single batched query for the misses.
func (s *chatSummaryService) lastMessages(ctx context.Context, conversationIDs []uint) map[uint]dto.MessageResponse {
	result := s.cache.FetchMany(ctx, conversationIDs)

	misses := make([]uint, 0, len(conversationIDs))
	for _, id := range conversationIDs {
		if _, ok := result[id]; !ok {
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 {
		return result
	}

	latest, err := s.messages.LatestByConversations(ctx, misses)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load last messages")
		return result
	}
	for id, message := range latest {
		result[id] = dto.NewMessageResponse(message)
	}

	return result
}
