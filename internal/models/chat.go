package models

import (
	"fmt"
	"strings"
	"time"
)

// ParticipantKind distinguishes the two identity spaces sharing the
// conversation machinery.
type ParticipantKind string

const (
	ParticipantUser    ParticipantKind = "user"
	ParticipantTrainer ParticipantKind = "trainer"
)

// ParticipantRef identifies one side of a conversation as a tagged variant
// instead of loose id/type string pairs threaded through every call.
type ParticipantRef struct {
	Kind ParticipantKind
	ID   string
}

// NewParticipantRef normalises a raw id/role pair into a ParticipantRef.
func NewParticipantRef(id, role string) ParticipantRef {
	kind := ParticipantUser
	if strings.EqualFold(strings.TrimSpace(role), string(ParticipantTrainer)) {
		kind = ParticipantTrainer
	}
	return ParticipantRef{Kind: kind, ID: strings.TrimSpace(id)}
}

// Valid reports whether the reference carries a usable identity.
func (p ParticipantRef) Valid() bool {
	if p.ID == "" {
		return false
	}
	return p.Kind == ParticipantUser || p.Kind == ParticipantTrainer
}

// Key returns the room key used by the presence registry.
func (p ParticipantRef) Key() string {
	return fmt.Sprintf("%s:%s", p.Kind, p.ID)
}

// Equal compares both the identity and the kind tag.
func (p ParticipantRef) Equal(other ParticipantRef) bool {
	return p.Kind == other.Kind && p.ID == other.ID
}

// Conversation is a thread between exactly two participants. LastMessageID is
// an advisory cache hint; message ordering is always derived from the message
// rows themselves.
type Conversation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         *string   `gorm:"size:255" json:"title,omitempty"`
	IsGroup       bool      `gorm:"not null;default:false" json:"is_group"`
	LastMessageID *uint     `json:"last_message_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ConversationUser binds a participant to a conversation. LastReadAt only
// ever moves forward.
type ConversationUser struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ConversationID  uint       `gorm:"not null;uniqueIndex:idx_conversation_participant" json:"conversation_id"`
	ParticipantID   string     `gorm:"size:64;not null;uniqueIndex:idx_conversation_participant" json:"participant_id"`
	ParticipantType string     `gorm:"size:16;not null;uniqueIndex:idx_conversation_participant" json:"participant_type"`
	LastReadAt      *time.Time `json:"last_read_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Participant returns the membership row's identity as a tagged reference.
func (u ConversationUser) Participant() ParticipantRef {
	return NewParticipantRef(u.ParticipantID, u.ParticipantType)
}

// Message is an append-only chat payload. CreatedAt together with ID is the
// pagination ordering key.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	SenderID       string    `gorm:"size:64;not null;index" json:"sender_id"`
	SenderType     string    `gorm:"size:16;not null" json:"sender_type"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Sender returns the message author as a tagged reference.
func (m Message) Sender() ParticipantRef {
	return NewParticipantRef(m.SenderID, m.SenderType)
}

// MessageRead records whether and when one participant read one message.
// Upsert on the unique key keeps the row count at most one per pair; a NULL
// ReadAt still counts as unread.
type MessageRead struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	MessageID       uint       `gorm:"not null;uniqueIndex:idx_message_participant" json:"message_id"`
	ParticipantID   string     `gorm:"size:64;not null;uniqueIndex:idx_message_participant" json:"participant_id"`
	ParticipantType string     `gorm:"size:16;not null;uniqueIndex:idx_message_participant" json:"participant_type"`
	ReadAt          *time.Time `json:"read_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
