package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/dto"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/utils"
)

func newNotificationServiceForTest(repo *stubNotificationRepo, registry *PresenceRegistry) NotificationService {
	return NewNotificationService(repo, registry, nil, "", validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func TestNotificationServicePublishPersistsThenPushes(t *testing.T) {
	repo := &stubNotificationRepo{}
	registry := NewPresenceRegistry(zerolog.Nop())
	owner := models.ParticipantRef{Kind: models.ParticipantUser, ID: "41"}
	session := newTestSession(registry, owner, 8)
	defer registry.Leave(session)

	svc := newNotificationServiceForTest(repo, registry)

	response, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:   owner.ID,
		UserType: string(owner.Kind),
		Type:     models.NotificationTypeSuccess,
		Message:  "<b>Payment</b> received",
		Metadata: map[string]interface{}{"plan_id": 3},
	})
	require.NoError(t, err)
	require.Equal(t, "Payment received", response.Message, "markup is stripped from notification text")
	require.Len(t, repo.notifications, 1)

	require.Len(t, session.send, 2)
	first := <-session.send
	require.Equal(t, dto.EventNotificationNew, first.Event)
	second := <-session.send
	require.Equal(t, dto.EventUnreadCountUpdate, second.Event)
	badge, ok := second.Payload.(dto.UnreadCountUpdatePayload)
	require.True(t, ok)
	require.Equal(t, int64(1), badge.Count)
}

func TestNotificationServicePublishWithoutRoomStillPersists(t *testing.T) {
	repo := &stubNotificationRepo{}
	svc := newNotificationServiceForTest(repo, NewPresenceRegistry(zerolog.Nop()))

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "99",
		Type:    models.NotificationTypeInfo,
		Message: "You have a new message",
	})
	require.NoError(t, err, "an offline owner just misses the push")
	require.Len(t, repo.notifications, 1)
	require.Equal(t, string(models.ParticipantUser), repo.notifications[0].UserType, "missing user_type defaults to user")
}

func TestNotificationServicePublishValidation(t *testing.T) {
	svc := newNotificationServiceForTest(&stubNotificationRepo{}, NewPresenceRegistry(zerolog.Nop()))

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID: "41",
		Type:   "bogus",
	})
	require.Error(t, err)

	_, err = svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "41",
		Type:    models.NotificationTypeInfo,
		Message: "<script>alert(1)</script>",
	})
	require.True(t, utils.IsErrorCode(err, utils.ErrValidation), "a message that sanitizes to nothing is rejected")
}

func TestNotificationServiceMarkReadEmitsBadge(t *testing.T) {
	repo := &stubNotificationRepo{}
	registry := NewPresenceRegistry(zerolog.Nop())
	owner := models.ParticipantRef{Kind: models.ParticipantTrainer, ID: "7"}

	svc := newNotificationServiceForTest(repo, registry)

	created, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:   owner.ID,
		UserType: string(owner.Kind),
		Type:     models.NotificationTypeInfo,
		Message:  "New session request",
	})
	require.NoError(t, err)

	session := newTestSession(registry, owner, 8)
	defer registry.Leave(session)

	updated, err := svc.MarkRead(context.Background(), created.ID, owner)
	require.NoError(t, err)
	require.True(t, updated.Read)

	require.Len(t, session.send, 1)
	event := <-session.send
	require.Equal(t, dto.EventUnreadCountUpdate, event.Event)
	badge, ok := event.Payload.(dto.UnreadCountUpdatePayload)
	require.True(t, ok)
	require.Zero(t, badge.Count)
}

func TestNotificationServiceMarkReadUnknownID(t *testing.T) {
	svc := newNotificationServiceForTest(&stubNotificationRepo{}, NewPresenceRegistry(zerolog.Nop()))

	_, err := svc.MarkRead(context.Background(), 404, models.ParticipantRef{Kind: models.ParticipantUser, ID: "41"})
	require.True(t, utils.IsErrorCode(err, utils.ErrNotificationNotFound))
}

func TestNotificationServiceListScopedToOwner(t *testing.T) {
	repo := &stubNotificationRepo{}
	svc := newNotificationServiceForTest(repo, NewPresenceRegistry(zerolog.Nop()))

	owner := models.ParticipantRef{Kind: models.ParticipantUser, ID: "1"}
	other := models.ParticipantRef{Kind: models.ParticipantUser, ID: "2"}

	for _, target := range []models.ParticipantRef{owner, owner, other} {
		_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
			UserID:   target.ID,
			UserType: string(target.Kind),
			Type:     models.NotificationTypeInfo,
			Message:  "hello",
		})
		require.NoError(t, err)
	}

	notifications, err := svc.List(context.Background(), owner, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	count, err := svc.UnreadCount(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}
