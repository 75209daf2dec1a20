package utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// APIResponse describes the common structure for API responses. The error
// object is present only on failures; data is omitted when empty.
type APIResponse struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError is the error body embedded in failure envelopes.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// SendError sends an error JSON response with the given status and error code.
func SendError(c *fiber.Ctx, status int, code, message string) error {
	if message == "" {
		message = "error"
	}
	if code == "" {
		code = ErrServer
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Status:  status,
		Message: message,
		Error:   &APIError{Code: code, Message: message},
	})
}

// SendAppError translates service-layer failures into the wire envelope.
// Validator errors map to 400; unknown errors collapse into SERVER_ERROR so
// persistence details never leak past the boundary.
func SendAppError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return SendError(c, AppErrorToHTTPStatus(appErr.Code), appErr.Code, appErr.Message)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return SendError(c, fiber.StatusBadRequest, ErrValidation, err.Error())
	}

	return SendError(c, fiber.StatusInternalServerError, ErrServer, "internal server error")
}
