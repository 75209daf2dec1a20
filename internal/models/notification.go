package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types pushed to clients.
const (
	NotificationTypeSuccess = "success"
	NotificationTypeError   = "error"
	NotificationTypeInfo    = "info"
)

// Notification represents a durable push notification owned by one user or
// trainer. Sockets only mirror it; the row is the record of truth.
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    string            `gorm:"size:64;not null;index" json:"user_id"`
	UserType  string            `gorm:"size:16;not null;default:user" json:"user_type"`
	Type      string            `gorm:"size:16;not null;default:info" json:"type"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Read      bool              `gorm:"not null;default:false" json:"read"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Owner returns the notification target as a tagged reference.
func (n Notification) Owner() ParticipantRef {
	return NewParticipantRef(n.UserID, n.UserType)
}
