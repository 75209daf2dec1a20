package dto

import (
	"time"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
)

// NotificationCreateRequest describes the payload to create a notification.
// Out-of-scope subsystems (payments, plan approvals) publish the same shape
// over the NATS bridge.
type NotificationCreateRequest struct {
	UserID   string                 `json:"user_id" validate:"required,max=64"`
	UserType string                 `json:"user_type" validate:"omitempty,oneof=user trainer"`
	Type     string                 `json:"type" validate:"required,oneof=success error info"`
	Message  string                 `json:"message" validate:"required,min=1,max=2000"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID        uint                   `json:"id"`
	UserID    string                 `json:"user_id"`
	UserType  string                 `json:"user_type"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	response := NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		UserType:  model.UserType,
		Type:      model.Type,
		Message:   model.Message,
		Read:      model.Read,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if model.Metadata != nil {
		response.Metadata = map[string]interface{}(model.Metadata)
	}
	return response
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}
