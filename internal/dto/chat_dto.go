package dto

import (
	"time"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
)

// ConversationCreateRequest bootstraps (or looks up) the 1:1 conversation
// between the authenticated caller and the counterpart.
type ConversationCreateRequest struct {
	CounterpartID   string `json:"counterpart_id" validate:"required,max=64"`
	CounterpartRole string `json:"counterpart_role" validate:"required,oneof=user trainer"`
}

// MessageSendRequest is the payload for posting a message into a conversation.
type MessageSendRequest struct {
	ConversationID uint   `json:"conversation_id" validate:"required"`
	SenderID       string `json:"sender_id" validate:"required,max=64"`
	SenderType     string `json:"sender_type" validate:"required,oneof=user trainer"`
	Content        string `json:"content" validate:"required,min=1,max=4000"`
}

// MessagesQuery carries cursor pagination parameters. Before and After are
// message ids, never page numbers, so pages stay stable under concurrent
// inserts.
type MessagesQuery struct {
	Before *uint `query:"before"`
	After  *uint `query:"after"`
	Limit  int   `query:"limit" validate:"omitempty,min=1,max=100"`
}

// MarkReadRequest marks a single message (MessageID set) or every unread
// message in the conversation (MessageID nil) as read.
type MarkReadRequest struct {
	ConversationID  uint   `json:"conversation_id" validate:"required"`
	UserID          string `json:"user_id" validate:"required,max=64"`
	ParticipantType string `json:"participant_type" validate:"required,oneof=user trainer"`
	MessageID       *uint  `json:"message_id,omitempty"`
}

// ConversationResponse is the serialized conversation.
type ConversationResponse struct {
	ID            uint      `json:"id"`
	Title         *string   `json:"title,omitempty"`
	IsGroup       bool      `json:"is_group"`
	LastMessageID *uint     `json:"last_message_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MessageResponse is the serialized representation of a chat message.
type MessageResponse struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderType     string    `json:"sender_type"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// MessagesPageResponse is one cursor page plus the exact hasMore flag derived
// from the fetch-one-extra trick.
type MessagesPageResponse struct {
	Messages []MessageResponse `json:"messages"`
	HasMore  bool              `json:"has_more"`
}

// ChatSummaryResponse is one summary row per conversation for the caller.
type ChatSummaryResponse struct {
	ParticipantID   string           `json:"participant_id"`
	ParticipantRole string           `json:"participant_role"`
	ConversationID  uint             `json:"conversation_id"`
	LastMessage     *MessageResponse `json:"last_message,omitempty"`
	UnreadCount     int64            `json:"unread_count"`
}

// NewConversationResponse converts a model into a DTO.
func NewConversationResponse(conversation models.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:            conversation.ID,
		Title:         conversation.Title,
		IsGroup:       conversation.IsGroup,
		LastMessageID: conversation.LastMessageID,
		CreatedAt:     conversation.CreatedAt,
		UpdatedAt:     conversation.UpdatedAt,
	}
}

// NewMessageResponse converts a model into a DTO.
func NewMessageResponse(message models.Message) MessageResponse {
	return MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		SenderType:     message.SenderType,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
	}
}

// NewMessageResponseSlice converts a slice of models into DTOs.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewMessageResponse(message))
	}
	return out
}
