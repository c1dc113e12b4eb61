package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/models"
	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/services"
	chatws "github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/websocket"
)

type stubChatService struct {
	conversationsResult []models.ConversationSummary
	conversationsErr    error
	startConversation   *models.Conversation
	startMessage        *models.ChatMessage
	startErr            error
	detailResult        *models.ConversationDetail
	detailErr           error
	deliveryResult      *services.ChatDelivery
	deliveryErr         error
	readResult          *models.ChatMessage
	readErr             error
	toggleResult        *services.BlockToggle
	toggleErr           error
	hideErr             error
	lastActorID         int64
	lastRole            string
	lastStoreID         int64
	lastConversationID  int64
	lastMessageID       int64
	lastContent         string
}

func (s *stubChatService) ListConversations(_ context.Context, actorID int64, role string) ([]models.ConversationSummary, error) {
	s.lastActorID = actorID
	s.lastRole = role
	return s.conversationsResult, s.conversationsErr
}

func (s *stubChatService) StartConversation(_ context.Context, actorID int64, role string, input services.StartConversationInput) (*models.Conversation, *models.ChatMessage, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastStoreID = input.StoreID
	s.lastContent = input.Message
	return s.startConversation, s.startMessage, s.startErr
}

func (s *stubChatService) GetConversation(_ context.Context, actorID, conversationID int64) (*models.ConversationDetail, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	return s.detailResult, s.detailErr
}

func (s *stubChatService) SendMessage(_ context.Context, actorID, conversationID int64, content string) (*services.ChatDelivery, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	s.lastContent = content
	return s.deliveryResult, s.deliveryErr
}

func (s *stubChatService) MarkMessageRead(_ context.Context, actorID, messageID int64) (*models.ChatMessage, error) {
	s.lastActorID = actorID
	s.lastMessageID = messageID
	return s.readResult, s.readErr
}

func (s *stubChatService) ToggleBlock(_ context.Context, actorID, conversationID int64) (*services.BlockToggle, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	return s.toggleResult, s.toggleErr
}

func (s *stubChatService) HideConversation(_ context.Context, actorID, conversationID int64) error {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	return s.hideErr
}

func (s *stubChatService) ReportConversation(_ context.Context, actorID, conversationID int64) error {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	return nil
}

func (s *stubChatService) Typing(_ context.Context, actorID, conversationID int64) error {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	return nil
}

func newChatApp(service *stubChatService, role, userID string) (*fiber.App, *ChatHandler) {
	handler := NewChatHandler(service, chatws.NewHub(), "secret")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	return app, handler
}

func TestListConversationsReturnsConversationSummaries(t *testing.T) {
	service := &stubChatService{
		conversationsResult: []models.ConversationSummary{
			{
				Conversation: models.Conversation{ID: 17, BuyerID: 42, StoreID: 5},
				Store:        models.StoreSummary{ID: 5, Name: "Telas del Sur", OwnerID: 9},
				LastMessage: &models.ChatMessage{
					ID:             3,
					ConversationID: 17,
					SenderID:       9,
					Content:        "Le envío el muestrario",
					CreatedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				},
				UnreadCount: 2,
			},
		},
	}
	app, handler := newChatApp(service, "buyer", "42")
	app.Get("/api/v1/conversations", handler.ListConversations)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 || service.lastRole != "buyer" {
		t.Fatalf("unexpected actor context: %d %q", service.lastActorID, service.lastRole)
	}

	var body struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Conversations) != 1 || body.Conversations[0].UnreadCount != 2 {
		t.Fatalf("unexpected response: %+v", body.Conversations)
	}
}

func TestStartConversationReturnsConversationAndMessage(t *testing.T) {
	service := &stubChatService{
		startConversation: &models.Conversation{ID: 17, BuyerID: 42, StoreID: 5},
		startMessage:      &models.ChatMessage{ID: 1, ConversationID: 17, SenderID: 42, Content: "Hola"},
	}
	app, handler := newChatApp(service, "buyer", "42")
	app.Post("/api/v1/conversations", handler.StartConversation)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"store_id":5,"message":"Hola"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastStoreID != 5 || service.lastContent != "Hola" {
		t.Fatalf("unexpected forwarded input: store=%d message=%q", service.lastStoreID, service.lastContent)
	}

	var body struct {
		Conversation *models.Conversation `json:"conversation"`
		Message      *models.ChatMessage  `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Conversation == nil || body.Conversation.ID != 17 || body.Message == nil {
		t.Fatalf("unexpected response body: %+v", body)
	}
}

func TestStartConversationBlockedPairReturnsForbidden(t *testing.T) {
	service := &stubChatService{startErr: services.ErrConversationBlocked}
	app, handler := newChatApp(service, "buyer", "42")
	app.Post("/api/v1/conversations", handler.StartConversation)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"store_id":5,"message":"Hola"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestGetConversationReturnsNotFound(t *testing.T) {
	service := &stubChatService{detailErr: services.ErrConversationNotFound}
	app, handler := newChatApp(service, "buyer", "42")
	app.Get("/api/v1/conversations/:id", handler.GetConversation)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/99", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetConversationRejectsMalformedID(t *testing.T) {
	service := &stubChatService{}
	app, handler := newChatApp(service, "buyer", "42")
	app.Get("/api/v1/conversations/:id", handler.GetConversation)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/abc", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSendMessageReturnsPersistedMessage(t *testing.T) {
	service := &stubChatService{
		deliveryResult: &services.ChatDelivery{
			Conversation: &models.ConversationWithStore{
				Conversation: models.Conversation{ID: 17, BuyerID: 42, StoreID: 5},
				Store:        models.StoreSummary{ID: 5, OwnerID: 9},
			},
			Message: &models.ChatMessage{
				ID:             8,
				ConversationID: 17,
				SenderID:       42,
				Content:        "¿Tienen 20 metros?",
				CreatedAt:      time.Now().UTC(),
			},
			RecipientID: 9,
		},
	}
	app, handler := newChatApp(service, "buyer", "42")
	app.Post("/api/v1/messages", handler.SendMessage)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(`{"conversation_id":17,"content":"¿Tienen 20 metros?"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastConversationID != 17 {
		t.Fatalf("expected conversation 17, got %d", service.lastConversationID)
	}

	var body struct {
		Message *models.ChatMessage `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Message == nil || body.Message.ID != 8 {
		t.Fatalf("unexpected response body: %+v", body.Message)
	}
}

func TestSendMessageBlockedConversationReturnsForbidden(t *testing.T) {
	service := &stubChatService{deliveryErr: services.ErrConversationBlocked}
	app, handler := newChatApp(service, "buyer", "42")
	app.Post("/api/v1/messages", handler.SendMessage)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(`{"conversation_id":17,"content":"Hola"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestMarkOwnMessageReadReturnsBadRequest(t *testing.T) {
	service := &stubChatService{readErr: services.ErrOwnMessageRead}
	app, handler := newChatApp(service, "buyer", "42")
	app.Patch("/api/v1/messages/:id/read", handler.MarkMessageRead)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/messages/8/read", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMarkMessageReadReturnsUpdatedMessage(t *testing.T) {
	service := &stubChatService{
		readResult: &models.ChatMessage{ID: 8, ConversationID: 17, SenderID: 42, IsRead: true},
	}
	app, handler := newChatApp(service, "seller", "9")
	app.Patch("/api/v1/messages/:id/read", handler.MarkMessageRead)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/messages/8/read", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 9 || service.lastMessageID != 8 {
		t.Fatalf("unexpected forwarded ids: actor=%d message=%d", service.lastActorID, service.lastMessageID)
	}

	var body struct {
		Message *models.ChatMessage `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Message == nil || !body.Message.IsRead {
		t.Fatalf("unexpected response body: %+v", body.Message)
	}
}

func TestToggleBlockReturnsBlockState(t *testing.T) {
	service := &stubChatService{
		toggleResult: &services.BlockToggle{ConversationID: 17, ActorID: 42, OtherID: 9, Blocked: true},
	}
	app, handler := newChatApp(service, "buyer", "42")
	app.Post("/api/v1/conversations/:id/block", handler.ToggleBlock)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/17/block", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Blocked bool `json:"blocked"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !body.Blocked {
		t.Fatalf("expected blocked=true, got %+v", body)
	}
}

func TestToggleBlockForbiddenForOutsider(t *testing.T) {
	service := &stubChatService{toggleErr: services.ErrForbidden}
	app, handler := newChatApp(service, "buyer", "42")
	app.Post("/api/v1/conversations/:id/block", handler.ToggleBlock)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/17/block", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestHideConversationReturnsDeleted(t *testing.T) {
	service := &stubChatService{}
	app, handler := newChatApp(service, "buyer", "42")
	app.Delete("/api/v1/conversations/:id", handler.HideConversation)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/conversations/17", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastConversationID != 17 {
		t.Fatalf("expected conversation 17, got %d", service.lastConversationID)
	}

	var body struct {
		Deleted bool `json:"deleted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !body.Deleted {
		t.Fatalf("expected deleted=true, got %+v", body)
	}
}

func TestListConversationsWithoutRoleReturnsForbidden(t *testing.T) {
	service := &stubChatService{}
	handler := NewChatHandler(service, chatws.NewHub(), "secret")

	app := fiber.New()
	app.Get("/api/v1/conversations", handler.ListConversations)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
