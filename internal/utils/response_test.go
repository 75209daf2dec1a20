package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/utils"
)

func TestSendSuccessEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "message sent", map[string]string{"hello": "world"})
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool              `json:"success"`
		Status  int               `json:"status"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
		Error   *utils.APIError   `json:"error"`
	}
	decode(t, resp, &payload)

	require.True(t, payload.Success)
	require.Equal(t, fiber.StatusOK, payload.Status)
	require.Equal(t, "message sent", payload.Message)
	require.Equal(t, "world", payload.Data["hello"])
	require.Nil(t, payload.Error, "success envelopes carry no error object")
}

func TestSendSuccessDefaults(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, 0, "", nil)
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload map[string]interface{}
	decode(t, resp, &payload)

	require.Equal(t, "success", payload["message"])
	_, hasData := payload["data"]
	require.False(t, hasData, "empty data is omitted from the envelope")
}

func TestSendErrorEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusForbidden, utils.ErrNotParticipant, "requester is not a participant of this conversation")
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var payload struct {
		Success bool            `json:"success"`
		Status  int             `json:"status"`
		Error   *utils.APIError `json:"error"`
	}
	decode(t, resp, &payload)

	require.False(t, payload.Success)
	require.Equal(t, fiber.StatusForbidden, payload.Status)
	require.NotNil(t, payload.Error)
	require.Equal(t, utils.ErrNotParticipant, payload.Error.Code)
}

func TestSendAppErrorMapsCodes(t *testing.T) {
	app := fiber.New()
	app.Get("/forbidden", func(c *fiber.Ctx) error {
		return utils.SendAppError(c, utils.NewNotParticipantError())
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return utils.SendAppError(c, utils.NewMessageNotFoundError())
	})
	app.Get("/validation", func(c *fiber.Ctx) error {
		type payload struct {
			Name string `validate:"required"`
		}
		err := validator.New(validator.WithRequiredStructEnabled()).Struct(payload{})
		return utils.SendAppError(c, err)
	})
	app.Get("/unknown", func(c *fiber.Ctx) error {
		return utils.SendAppError(c, fiber.ErrTeapot)
	})

	resp := performRequest(t, app, http.MethodGet, "/forbidden")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = performRequest(t, app, http.MethodGet, "/missing")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = performRequest(t, app, http.MethodGet, "/validation")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var validationBody struct {
		Error *utils.APIError `json:"error"`
	}
	decode(t, resp, &validationBody)
	require.Equal(t, utils.ErrValidation, validationBody.Error.Code)

	resp = performRequest(t, app, http.MethodGet, "/unknown")
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	var unknownBody struct {
		Error *utils.APIError `json:"error"`
	}
	decode(t, resp, &unknownBody)
	require.Equal(t, utils.ErrServer, unknownBody.Error.Code)
	require.Equal(t, "internal server error", unknownBody.Error.Message, "internal details never leak to clients")
}

func performRequest(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
