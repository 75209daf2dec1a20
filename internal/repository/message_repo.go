package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
)

const (
	defaultMessagePageSize = 20
	maxMessagePageSize     = 100
)

// MessageCursor selects one page of messages relative to a message id.
// Before walks backward in time, After forward; at most one should be set.
type MessageCursor struct {
	Before *uint
	After  *uint
	Limit  int
}

// MessageRepository persists chat messages and answers unread queries.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	FindByID(ctx context.Context, id uint) (models.Message, error)
	ListPage(ctx context.Context, conversationID uint, cursor MessageCursor) ([]models.Message, bool, error)
	LatestByConversations(ctx context.Context, conversationIDs []uint) (map[uint]models.Message, error)
	CountUnread(ctx context.Context, conversationID uint, participant models.ParticipantRef) (int64, error)
	CountUnreadByConversations(ctx context.Context, conversationIDs []uint, participant models.ParticipantRef) (map[uint]int64, error)
	ListUnread(ctx context.Context, conversationID uint, participant models.ParticipantRef) ([]models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs a message repository backed by GORM.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id uint) (models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).First(&message, id).Error; err != nil {
		return models.Message{}, err
	}
	return message, nil
}

// ListPage fetches limit+1 rows ordered by (created_at, id) so hasMore is
// exact without a COUNT. Pages are always returned ascending.
func (r *messageRepository) ListPage(ctx context.Context, conversationID uint, cursor MessageCursor) ([]models.Message, bool, error) {
	limit := cursor.Limit
	if limit <= 0 {
		limit = defaultMessagePageSize
	}
	if limit > maxMessagePageSize {
		limit = maxMessagePageSize
	}

	query := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	descending := true

	switch {
	case cursor.Before != nil:
		pivot, err := r.FindByID(ctx, *cursor.Before)
		if err != nil {
			return nil, false, err
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", pivot.CreatedAt, pivot.CreatedAt, pivot.ID)
	case cursor.After != nil:
		pivot, err := r.FindByID(ctx, *cursor.After)
		if err != nil {
			return nil, false, err
		}
		query = query.Where("created_at > ? OR (created_at = ? AND id > ?)", pivot.CreatedAt, pivot.CreatedAt, pivot.ID)
		descending = false
	}

	order := "created_at DESC, id DESC"
	if !descending {
		order = "created_at ASC, id ASC"
	}

	var messages []models.Message
	if err := query.Order(order).Limit(limit + 1).Find(&messages).Error; err != nil {
		return nil, false, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	if descending {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	return messages, hasMore, nil
}

// LatestByConversations resolves the newest message of each conversation in a
// single query.
func (r *messageRepository) LatestByConversations(ctx context.Context, conversationIDs []uint) (map[uint]models.Message, error) {
	result := make(map[uint]models.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return result, nil
	}

	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.Message{}).
			Select("MAX(id)").
			Where("conversation_id IN ?", conversationIDs).
			Group("conversation_id")).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for _, message := range messages {
		result[message.ConversationID] = message
	}
	return result, nil
}

// Own messages are matched on (sender_id, sender_type): id strings are only
// unique per participant kind, so a bare sender_id compare would also drop
// messages from a counterpart that happens to share the reader's id.
const unreadFilter = `NOT (sender_id = ? AND sender_type = ?) AND NOT EXISTS (
	SELECT 1 FROM message_reads r
	WHERE r.message_id = messages.id
	  AND r.participant_id = ?
	  AND r.participant_type = ?
	  AND r.read_at IS NOT NULL
)`

func (r *messageRepository) CountUnread(ctx context.Context, conversationID uint, participant models.ParticipantRef) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Where(unreadFilter, participant.ID, string(participant.Kind), participant.ID, string(participant.Kind)).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountUnreadByConversations answers the unread badge for every conversation
// at once; part of the batched summary path.
func (r *messageRepository) CountUnreadByConversations(ctx context.Context, conversationIDs []uint, participant models.ParticipantRef) (map[uint]int64, error) {
	result := make(map[uint]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return result, nil
	}

	type row struct {
		ConversationID uint
		Total          int64
	}

	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS total").
		Where("conversation_id IN ?", conversationIDs).
		Where(unreadFilter, participant.ID, string(participant.Kind), participant.ID, string(participant.Kind)).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		result[r.ConversationID] = r.Total
	}
	return result, nil
}

// ListUnread returns the participant's unread messages in ascending order for
// the bulk mark-read path. Messages the participant sent never count.
func (r *messageRepository) ListUnread(ctx context.Context, conversationID uint, participant models.ParticipantRef) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Where(unreadFilter, participant.ID, string(participant.Kind), participant.ID, string(participant.Kind)).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
