package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
)

// NotificationRepository handles persistence for notification entities.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByOwner(ctx context.Context, owner models.ParticipantRef, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uint, owner models.ParticipantRef) (models.Notification, error)
	CountUnread(ctx context.Context, owner models.ParticipantRef) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository backed by GORM.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) ListByOwner(ctx context.Context, owner models.ParticipantRef, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var notifications []models.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND user_type = ?", owner.ID, string(owner.Kind)).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uint, owner models.ParticipantRef) (models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND user_type = ?", id, owner.ID, string(owner.Kind)).
		First(&notification).Error; err != nil {
		return models.Notification{}, err
	}

	if notification.Read {
		return notification, nil
	}

	notification.Read = true
	if err := r.db.WithContext(ctx).Save(&notification).Error; err != nil {
		return models.Notification{}, err
	}

	return notification, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, owner models.ParticipantRef) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND user_type = ? AND read = ?", owner.ID, string(owner.Kind), false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
