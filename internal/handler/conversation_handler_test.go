package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/dto"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/handler"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/utils"
)

type mockConversationService struct {
	pairs    [][2]models.ParticipantRef
	response dto.ConversationResponse
	err      error
}

func (m *mockConversationService) CreateOrGet(_ context.Context, a, b models.ParticipantRef) (dto.ConversationResponse, error) {
	if m.err != nil {
		return dto.ConversationResponse{}, m.err
	}
	m.pairs = append(m.pairs, [2]models.ParticipantRef{a, b})
	return m.response, nil
}

func (m *mockConversationService) VerifyParticipation(_ context.Context, _ models.ParticipantRef, _ uint) error {
	return m.err
}

func newConversationApp(conversations *mockConversationService, messages *mockMessageService, auth fiber.Handler) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/conversations")
	if auth != nil {
		group.Use(auth)
	}
	handler.NewConversationHandler(conversations, messages, zerolog.Nop()).Register(group)
	return app
}

func TestConversationHandlerCreate(t *testing.T) {
	conversations := &mockConversationService{response: dto.ConversationResponse{ID: 5}}
	app := newConversationApp(conversations, &mockMessageService{}, authAs(41, "user"))

	payload := `{"counterpart_id":"7","counterpart_role":"trainer"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.True(t, body.Success)

	var conversation dto.ConversationResponse
	require.NoError(t, json.Unmarshal(body.Data, &conversation))
	require.Equal(t, uint(5), conversation.ID)

	require.Len(t, conversations.pairs, 1)
	require.Equal(t, models.ParticipantRef{Kind: models.ParticipantUser, ID: "41"}, conversations.pairs[0][0])
	require.Equal(t, models.ParticipantRef{Kind: models.ParticipantTrainer, ID: "7"}, conversations.pairs[0][1])
}

func TestConversationHandlerCreateValidationError(t *testing.T) {
	conversations := &mockConversationService{err: utils.NewValidationError("both participants are required")}
	app := newConversationApp(conversations, &mockMessageService{}, authAs(41, "user"))

	payload := `{"counterpart_id":"","counterpart_role":"trainer"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.False(t, body.Success)
	require.Equal(t, utils.ErrValidation, body.Error.Code)
}

func TestConversationHandlerListMessages(t *testing.T) {
	messages := &mockMessageService{page: dto.MessagesPageResponse{
		Messages: []dto.MessageResponse{{ID: 1, ConversationID: 3, Content: "hi"}},
		HasMore:  true,
	}}
	app := newConversationApp(&mockConversationService{}, messages, authAs(41, "user"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/3/messages?before=10&limit=20", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.True(t, body.Success)

	var page dto.MessagesPageResponse
	require.NoError(t, json.Unmarshal(body.Data, &page))
	require.True(t, page.HasMore)
	require.Len(t, page.Messages, 1)
}

func TestConversationHandlerListMessagesInvalidInput(t *testing.T) {
	app := newConversationApp(&mockConversationService{}, &mockMessageService{}, authAs(41, "user"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/abc/messages", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/conversations/3/messages?before=oops", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestConversationHandlerListMessagesForbidden(t *testing.T) {
	messages := &mockMessageService{pagesErr: utils.NewNotParticipantError()}
	app := newConversationApp(&mockConversationService{}, messages, authAs(99, "user"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/3/messages", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.Equal(t, utils.ErrNotParticipant, body.Error.Code)
	require.Equal(t, "requester is not a participant of this conversation", body.Error.Message)
}
