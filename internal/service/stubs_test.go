package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/dto"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/repository"
)

type advanceCall struct {
	conversationID uint
	participant    models.ParticipantRef
	at             time.Time
}

type stubConversationRepo struct {
	conversations map[uint]models.Conversation
	members       map[uint][]models.ConversationUser
	createErr     error
	updateLastErr error
	advanceErr    error
	missOnce      bool
	lastMessage   map[uint]uint
	advances      []advanceCall
	created       int
}

func newStubConversationRepo() *stubConversationRepo {
	return &stubConversationRepo{
		conversations: make(map[uint]models.Conversation),
		members:       make(map[uint][]models.ConversationUser),
		lastMessage:   make(map[uint]uint),
	}
}

func (s *stubConversationRepo) addConversation(id uint, participants ...models.ParticipantRef) {
	s.conversations[id] = models.Conversation{ID: id}
	for _, p := range participants {
		s.members[id] = append(s.members[id], models.ConversationUser{
			ConversationID:  id,
			ParticipantID:   p.ID,
			ParticipantType: string(p.Kind),
		})
	}
}

func (s *stubConversationRepo) FindByID(ctx context.Context, id uint) (models.Conversation, error) {
	conversation, ok := s.conversations[id]
	if !ok {
		return models.Conversation{}, gorm.ErrRecordNotFound
	}
	return conversation, nil
}

func (s *stubConversationRepo) FindByParticipants(ctx context.Context, a, b models.ParticipantRef) (models.Conversation, error) {
	if s.missOnce {
		s.missOnce = false
		return models.Conversation{}, gorm.ErrRecordNotFound
	}
	for id, members := range s.members {
		foundA, foundB := false, false
		for _, member := range members {
			if member.Participant().Equal(a) {
				foundA = true
			}
			if member.Participant().Equal(b) {
				foundB = true
			}
		}
		if foundA && foundB {
			return s.conversations[id], nil
		}
	}
	return models.Conversation{}, gorm.ErrRecordNotFound
}

func (s *stubConversationRepo) CreateWithParticipants(ctx context.Context, conversation *models.Conversation, a, b models.ParticipantRef) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created++
	conversation.ID = uint(len(s.conversations) + 1)
	s.addConversation(conversation.ID, a, b)
	return nil
}

func (s *stubConversationRepo) Participants(ctx context.Context, conversationID uint) ([]models.ConversationUser, error) {
	return s.members[conversationID], nil
}

func (s *stubConversationRepo) IsParticipant(ctx context.Context, conversationID uint, participant models.ParticipantRef) (bool, error) {
	for _, member := range s.members[conversationID] {
		if member.Participant().Equal(participant) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubConversationRepo) MembershipsFor(ctx context.Context, participant models.ParticipantRef) ([]models.ConversationUser, error) {
	var memberships []models.ConversationUser
	for _, members := range s.members {
		for _, member := range members {
			if member.Participant().Equal(participant) {
				memberships = append(memberships, member)
			}
		}
	}
	return memberships, nil
}

func (s *stubConversationRepo) ParticipantsExcept(ctx context.Context, conversationIDs []uint, participant models.ParticipantRef) ([]models.ConversationUser, error) {
	var others []models.ConversationUser
	for _, id := range conversationIDs {
		for _, member := range s.members[id] {
			if !member.Participant().Equal(participant) {
				others = append(others, member)
			}
		}
	}
	return others, nil
}

func (s *stubConversationRepo) UpdateLastMessage(ctx context.Context, conversationID, messageID uint) error {
	if s.updateLastErr != nil {
		return s.updateLastErr
	}
	s.lastMessage[conversationID] = messageID
	return nil
}

func (s *stubConversationRepo) AdvanceLastRead(ctx context.Context, conversationID uint, participant models.ParticipantRef, at time.Time) error {
	if s.advanceErr != nil {
		return s.advanceErr
	}
	s.advances = append(s.advances, advanceCall{conversationID: conversationID, participant: participant, at: at})
	return nil
}

type stubMessageRepo struct {
	messages  []models.Message
	createErr error
	hasMore   bool
	unread    map[uint]int64
}

func (s *stubMessageRepo) Create(ctx context.Context, message *models.Message) error {
	if s.createErr != nil {
		return s.createErr
	}
	message.ID = uint(len(s.messages) + 1)
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	s.messages = append(s.messages, *message)
	return nil
}

func (s *stubMessageRepo) FindByID(ctx context.Context, id uint) (models.Message, error) {
	for _, message := range s.messages {
		if message.ID == id {
			return message, nil
		}
	}
	return models.Message{}, gorm.ErrRecordNotFound
}

func (s *stubMessageRepo) ListPage(ctx context.Context, conversationID uint, cursor repository.MessageCursor) ([]models.Message, bool, error) {
	var page []models.Message
	for _, message := range s.messages {
		if message.ConversationID == conversationID {
			page = append(page, message)
		}
	}
	return page, s.hasMore, nil
}

func (s *stubMessageRepo) LatestByConversations(ctx context.Context, conversationIDs []uint) (map[uint]models.Message, error) {
	result := make(map[uint]models.Message)
	for _, message := range s.messages {
		for _, id := range conversationIDs {
			if message.ConversationID == id {
				result[id] = message
			}
		}
	}
	return result, nil
}

func (s *stubMessageRepo) CountUnread(ctx context.Context, conversationID uint, participant models.ParticipantRef) (int64, error) {
	return s.unread[conversationID], nil
}

func (s *stubMessageRepo) CountUnreadByConversations(ctx context.Context, conversationIDs []uint, participant models.ParticipantRef) (map[uint]int64, error) {
	result := make(map[uint]int64)
	for _, id := range conversationIDs {
		if count, ok := s.unread[id]; ok {
			result[id] = count
		}
	}
	return result, nil
}

func (s *stubMessageRepo) ListUnread(ctx context.Context, conversationID uint, participant models.ParticipantRef) ([]models.Message, error) {
	var unread []models.Message
	for _, message := range s.messages {
		if message.ConversationID == conversationID && !message.Sender().Equal(participant) {
			unread = append(unread, message)
		}
	}
	return unread, nil
}

type stubReadRepo struct {
	upserts []models.MessageRead
}

func (s *stubReadRepo) Upsert(ctx context.Context, read *models.MessageRead) error {
	s.upserts = append(s.upserts, *read)
	return nil
}

func (s *stubReadRepo) UpsertAll(ctx context.Context, reads []models.MessageRead) error {
	s.upserts = append(s.upserts, reads...)
	return nil
}

func (s *stubReadRepo) FindForMessage(ctx context.Context, messageID uint, participant models.ParticipantRef) (models.MessageRead, error) {
	for _, read := range s.upserts {
		if read.MessageID == messageID {
			return read, nil
		}
	}
	return models.MessageRead{}, gorm.ErrRecordNotFound
}

type stubNotificationRepo struct {
	notifications []models.Notification
	createErr     error
}

func (s *stubNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	notification.ID = uint(len(s.notifications) + 1)
	s.notifications = append(s.notifications, *notification)
	return nil
}

func (s *stubNotificationRepo) ListByOwner(ctx context.Context, owner models.ParticipantRef, limit, offset int) ([]models.Notification, error) {
	var owned []models.Notification
	for _, notification := range s.notifications {
		if notification.Owner().Equal(owner) {
			owned = append(owned, notification)
		}
	}
	return owned, nil
}

func (s *stubNotificationRepo) MarkRead(ctx context.Context, id uint, owner models.ParticipantRef) (models.Notification, error) {
	for i, notification := range s.notifications {
		if notification.ID == id && notification.Owner().Equal(owner) {
			s.notifications[i].Read = true
			return s.notifications[i], nil
		}
	}
	return models.Notification{}, gorm.ErrRecordNotFound
}

func (s *stubNotificationRepo) CountUnread(ctx context.Context, owner models.ParticipantRef) (int64, error) {
	var count int64
	for _, notification := range s.notifications {
		if notification.Owner().Equal(owner) && !notification.Read {
			count++
		}
	}
	return count, nil
}

type stubPublisher struct {
	calls []dto.NotificationCreateRequest
}

func (s *stubPublisher) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	s.calls = append(s.calls, payload)
	return dto.NotificationResponse{UserID: payload.UserID, Type: payload.Type, Message: payload.Message}, nil
}

type staticCounter struct {
	count int64
}

func (s *staticCounter) UnreadCount(ctx context.Context, owner models.ParticipantRef) (int64, error) {
	return s.count, nil
}

// newTestSession attaches a connectionless session to the registry so tests
// can observe broadcasts through the send channel.
func newTestSession(registry *PresenceRegistry, participant models.ParticipantRef, buffer int) *SocketSession {
	session := &SocketSession{
		send:        make(chan dto.SocketEvent, buffer),
		participant: participant,
		registry:    registry,
		closed:      make(chan struct{}),
		log:         zerolog.Nop(),
	}
	registry.Join(session)
	return session
}
