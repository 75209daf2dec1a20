package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// AppError carries a machine-readable code alongside the human message so
// handlers can translate failures into the wire envelope without inspecting
// persistence errors.
type AppError struct {
	Code    string
	Message string
	Origin  error
}

func (e *AppError) Error() string {
	if e.Origin != nil {
		return e.Message + ": " + e.Origin.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Origin
}

// Error codes surfaced to clients.
const (
	ErrValidation                 = "VALIDATION_ERROR"
	ErrNotParticipant             = "NOT_PARTICIPANT"
	ErrUnauthorizedConversation   = "UNAUTHORIZED_CONVERSATION_ACCESS"
	ErrConversationNotFound       = "CONVERSATION_NOT_FOUND"
	ErrMessageNotFound            = "MESSAGE_NOT_FOUND"
	ErrNotificationNotFound       = "NOTIFICATION_NOT_FOUND"
	ErrConversationCreationFailed = "CONVERSATION_CREATION_FAILED"
	ErrMessageCreationFailed      = "MESSAGE_CREATION_FAILED"
	ErrUnauthenticated            = "UNAUTHENTICATED"
	ErrServer                     = "SERVER_ERROR"
)

// NewAppError builds an error with an explicit code.
func NewAppError(code, message string, origin error) *AppError {
	return &AppError{Code: code, Message: message, Origin: origin}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: ErrValidation, Message: message}
}

func NewNotParticipantError() *AppError {
	return &AppError{Code: ErrNotParticipant, Message: "requester is not a participant of this conversation"}
}

func NewUnauthorizedConversationError() *AppError {
	return &AppError{Code: ErrUnauthorizedConversation, Message: "conversation access denied"}
}

func NewMessageNotFoundError() *AppError {
	return &AppError{Code: ErrMessageNotFound, Message: "message not found in conversation"}
}

// IsErrorCode reports whether err is an AppError with the given code.
func IsErrorCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// AppErrorToHTTPStatus maps an error code to the HTTP status used in the envelope.
func AppErrorToHTTPStatus(code string) int {
	switch code {
	case ErrValidation:
		return fiber.StatusBadRequest
	case ErrUnauthenticated:
		return fiber.StatusUnauthorized
	case ErrNotParticipant, ErrUnauthorizedConversation:
		return fiber.StatusForbidden
	case ErrConversationNotFound, ErrMessageNotFound, ErrNotificationNotFound:
		return fiber.StatusNotFound
	case ErrConversationCreationFailed, ErrMessageCreationFailed, ErrServer:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}
