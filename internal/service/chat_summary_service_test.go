package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/dto"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/utils"
)

func TestChatSummaryServiceAggregatesPerConversation(t *testing.T) {
	member := models.ParticipantRef{Kind: models.ParticipantUser, ID: "41"}
	trainerA := models.ParticipantRef{Kind: models.ParticipantTrainer, ID: "7"}
	trainerB := models.ParticipantRef{Kind: models.ParticipantTrainer, ID: "8"}

	conversations := newStubConversationRepo()
	conversations.addConversation(1, member, trainerA)
	conversations.addConversation(2, member, trainerB)

	messages := &stubMessageRepo{
		messages: []models.Message{
			{ID: 1, ConversationID: 1, SenderID: trainerA.ID, SenderType: string(trainerA.Kind), Content: "see you at 6", CreatedAt: time.Now().UTC()},
		},
		unread: map[uint]int64{1: 3},
	}

	svc := NewChatSummaryService(conversations, messages, nil, zerolog.Nop())

	summaries, err := svc.Summarize(context.Background(), member)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byConversation := make(map[uint]dto.ChatSummaryResponse, len(summaries))
	for _, summary := range summaries {
		byConversation[summary.ConversationID] = summary
	}

	first := byConversation[1]
	require.Equal(t, trainerA.ID, first.ParticipantID)
	require.Equal(t, string(trainerA.Kind), first.ParticipantRole)
	require.Equal(t, int64(3), first.UnreadCount)
	require.NotNil(t, first.LastMessage)
	require.Equal(t, "see you at 6", first.LastMessage.Content)

	second := byConversation[2]
	require.Equal(t, trainerB.ID, second.ParticipantID)
	require.Zero(t, second.UnreadCount)
	require.Nil(t, second.LastMessage, "empty conversations have no last message")
}

func TestChatSummaryServiceEmptyMemberships(t *testing.T) {
	svc := NewChatSummaryService(newStubConversationRepo(), &stubMessageRepo{}, nil, zerolog.Nop())

	summaries, err := svc.Summarize(context.Background(), models.ParticipantRef{Kind: models.ParticipantUser, ID: "41"})
	require.NoError(t, err)
	require.NotNil(t, summaries)
	require.Empty(t, summaries)

	_, err = svc.Summarize(context.Background(), models.ParticipantRef{})
	require.True(t, utils.IsErrorCode(err, utils.ErrValidation))
}

func TestChatSummaryServicePrefersCachedLastMessage(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	cache := NewLastMessageCache(redisClient, "chat:last_message", time.Minute, zerolog.Nop())

	member := models.ParticipantRef{Kind: models.ParticipantUser, ID: "41"}
	trainer := models.ParticipantRef{Kind: models.ParticipantTrainer, ID: "7"}

	conversations := newStubConversationRepo()
	conversations.addConversation(1, member, trainer)

	// The repository holds an older message than the cache to prove the
	// cached value wins without a database read.
	messages := &stubMessageRepo{messages: []models.Message{
		{ID: 1, ConversationID: 1, SenderID: trainer.ID, SenderType: string(trainer.Kind), Content: "stale"},
	}}

	cache.Store(context.Background(), dto.MessageResponse{
		ID:             2,
		ConversationID: 1,
		SenderID:       trainer.ID,
		SenderType:     string(trainer.Kind),
		Content:        "fresh from cache",
		CreatedAt:      time.Now().UTC(),
	})

	svc := NewChatSummaryService(conversations, messages, cache, zerolog.Nop())

	summaries, err := svc.Summarize(context.Background(), member)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].LastMessage)
	require.Equal(t, "fresh from cache", summaries[0].LastMessage.Content)
}
