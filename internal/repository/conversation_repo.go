package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
)

// ConversationRepository persists conversations and their membership rows.
type ConversationRepository interface {
	FindByID(ctx context.Context, id uint) (models.Conversation, error)
	FindByParticipants(ctx context.Context, a, b models.ParticipantRef) (models.Conversation, error)
	CreateWithParticipants(ctx context.Context, conversation *models.Conversation, a, b models.ParticipantRef) error
	Participants(ctx context.Context, conversationID uint) ([]models.ConversationUser, error)
	IsParticipant(ctx context.Context, conversationID uint, participant models.ParticipantRef) (bool, error)
	MembershipsFor(ctx context.Context, participant models.ParticipantRef) ([]models.ConversationUser, error)
	ParticipantsExcept(ctx context.Context, conversationIDs []uint, participant models.ParticipantRef) ([]models.ConversationUser, error)
	UpdateLastMessage(ctx context.Context, conversationID, messageID uint) error
	AdvanceLastRead(ctx context.Context, conversationID uint, participant models.ParticipantRef, at time.Time) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository constructs a conversation repository backed by GORM.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) FindByID(ctx context.Context, id uint) (models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).First(&conversation, id).Error; err != nil {
		return models.Conversation{}, err
	}
	return conversation, nil
}

// FindByParticipants looks up the 1:1 conversation for the unordered pair of
// participant references.
func (r *conversationRepository) FindByParticipants(ctx context.Context, a, b models.ParticipantRef) (models.Conversation, error) {
	memberOf := func(p models.ParticipantRef) *gorm.DB {
		return r.db.Model(&models.ConversationUser{}).
			Select("conversation_id").
			Where("participant_id = ? AND participant_type = ?", p.ID, string(p.Kind))
	}

	var conversation models.Conversation
	err := r.db.WithContext(ctx).
		Where("is_group = ?", false).
		Where("id IN (?)", memberOf(a)).
		Where("id IN (?)", memberOf(b)).
		Order("id ASC").
		First(&conversation).Error
	if err != nil {
		return models.Conversation{}, err
	}
	return conversation, nil
}

// CreateWithParticipants writes the conversation and both membership rows in
// one transaction so no orphaned conversation ever becomes visible.
func (r *conversationRepository) CreateWithParticipants(ctx context.Context, conversation *models.Conversation, a, b models.ParticipantRef) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conversation).Error; err != nil {
			return err
		}

		members := []models.ConversationUser{
			{ConversationID: conversation.ID, ParticipantID: a.ID, ParticipantType: string(a.Kind)},
			{ConversationID: conversation.ID, ParticipantID: b.ID, ParticipantType: string(b.Kind)},
		}
		return tx.Create(&members).Error
	})
}

func (r *conversationRepository) Participants(ctx context.Context, conversationID uint) ([]models.ConversationUser, error) {
	var members []models.ConversationUser
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *conversationRepository) IsParticipant(ctx context.Context, conversationID uint, participant models.ParticipantRef) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ConversationUser{}).
		Where("conversation_id = ? AND participant_id = ? AND participant_type = ?", conversationID, participant.ID, string(participant.Kind)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *conversationRepository) MembershipsFor(ctx context.Context, participant models.ParticipantRef) ([]models.ConversationUser, error) {
	var memberships []models.ConversationUser
	err := r.db.WithContext(ctx).
		Where("participant_id = ? AND participant_type = ?", participant.ID, string(participant.Kind)).
		Order("conversation_id ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

// ParticipantsExcept returns, in one query, every membership row across the
// given conversations that does not belong to the caller. It backs the
// batched summary path.
func (r *conversationRepository) ParticipantsExcept(ctx context.Context, conversationIDs []uint, participant models.ParticipantRef) ([]models.ConversationUser, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}

	var members []models.ConversationUser
	err := r.db.WithContext(ctx).
		Where("conversation_id IN ?", conversationIDs).
		Where("NOT (participant_id = ? AND participant_type = ?)", participant.ID, string(participant.Kind)).
		Order("conversation_id ASC, id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateLastMessage refreshes the advisory last-message pointer. Two senders
// racing here is tolerated; ordering is derived from the message rows.
func (r *conversationRepository) UpdateLastMessage(ctx context.Context, conversationID, messageID uint) error {
	return r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{
			"last_message_id": messageID,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// AdvanceLastRead moves the membership's LastReadAt forward. The WHERE guard
// makes the write monotonic: an older timestamp is silently ignored.
func (r *conversationRepository) AdvanceLastRead(ctx context.Context, conversationID uint, participant models.ParticipantRef, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ConversationUser{}).
		Where("conversation_id = ? AND participant_id = ? AND participant_type = ?", conversationID, participant.ID, string(participant.Kind)).
		Where("last_read_at IS NULL OR last_read_at < ?", at).
		Update("last_read_at", at).Error
}
