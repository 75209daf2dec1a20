package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
)

// MessageReadRepository persists read receipts with upsert semantics: at most
// one row per (message, participant) pair, the most recent read wins.
type MessageReadRepository interface {
	Upsert(ctx context.Context, read *models.MessageRead) error
	UpsertAll(ctx context.Context, reads []models.MessageRead) error
	FindForMessage(ctx context.Context, messageID uint, participant models.ParticipantRef) (models.MessageRead, error)
}

type messageReadRepository struct {
	db *gorm.DB
}

// NewMessageReadRepository constructs a receipt repository backed by GORM.
func NewMessageReadRepository(db *gorm.DB) MessageReadRepository {
	return &messageReadRepository{db: db}
}

var receiptConflict = clause.OnConflict{
	Columns: []clause.Column{
		{Name: "message_id"},
		{Name: "participant_id"},
		{Name: "participant_type"},
	},
	DoUpdates: clause.AssignmentColumns([]string{"read_at", "updated_at"}),
}

func (r *messageReadRepository) Upsert(ctx context.Context, read *models.MessageRead) error {
	return r.db.WithContext(ctx).Clauses(receiptConflict).Create(read).Error
}

// UpsertAll writes the whole batch in one transaction so a bulk mark-read is
// all-or-nothing; re-running it is idempotent anyway.
func (r *messageReadRepository) UpsertAll(ctx context.Context, reads []models.MessageRead) error {
	if len(reads) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(receiptConflict).Create(&reads).Error
	})
}

func (r *messageReadRepository) FindForMessage(ctx context.Context, messageID uint, participant models.ParticipantRef) (models.MessageRead, error) {
	var read models.MessageRead
	err := r.db.WithContext(ctx).
		Where("message_id = ? AND participant_id = ? AND participant_type = ?", messageID, participant.ID, string(participant.Kind)).
		First(&read).Error
	if err != nil {
		return models.MessageRead{}, err
	}
	return read, nil
}
