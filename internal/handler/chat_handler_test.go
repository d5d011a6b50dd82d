package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/devlink/internal/middleware"
	"github.com/hitoshi/devlink/internal/model"
)

// --- モック定義 ---

type mockChatService struct {
	historyFn     func(ctx context.Context, userID, counterpartID string, limit int) ([]*model.ChatMessage, error)
	recentChatsFn func(ctx context.Context, userID string) ([]model.RecentChat, error)
}

func (m *mockChatService) History(ctx context.Context, userID, counterpartID string, limit int) ([]*model.ChatMessage, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, userID, counterpartID, limit)
	}
	return nil, nil
}

func (m *mockChatService) RecentChats(ctx context.Context, userID string) ([]model.RecentChat, error) {
	if m.recentChatsFn != nil {
		return m.recentChatsFn(ctx, userID)
	}
	return nil, nil
}

func authedChatRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "user-a"))
}

// --- テスト ---

func TestChatHandler_History(t *testing.T) {
	now := time.Now()
	svc := &mockChatService{
		historyFn: func(ctx context.Context, userID, counterpartID string, limit int) ([]*model.ChatMessage, error) {
			if userID != "user-a" || counterpartID != "user-b" {
				t.Errorf("pair = (%q, %q), want (user-a, user-b)", userID, counterpartID)
			}
			if limit != 20 {
				t.Errorf("limit = %d, want 20", limit)
			}
			return []*model.ChatMessage{
				{ID: "msg-1", SenderID: "user-a", ReceiverID: "user-b", Message: "hi", CreatedAt: now},
				{ID: "msg-2", SenderID: "user-b", ReceiverID: "user-a", Message: "hello", CreatedAt: now},
			}, nil
		},
	}
	h := NewChatHandler(svc)

	req := authedChatRequest(http.MethodGet, "/api/messages/user-b?limit=20")
	req = withURLParam(req, "userID", "user-b")
	w := httptest.NewRecorder()

	h.History(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got []chatMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("messages = %d, want 2", len(got))
	}
	if got[0].ID != "msg-1" || got[0].SenderID != "user-a" {
		t.Errorf("first message = %+v, want msg-1 from user-a", got[0])
	}
}

func TestChatHandler_History_InvalidLimit_Returns400(t *testing.T) {
	h := NewChatHandler(&mockChatService{})

	req := authedChatRequest(http.MethodGet, "/api/messages/user-b?limit=abc")
	req = withURLParam(req, "userID", "user-b")
	w := httptest.NewRecorder()

	h.History(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestChatHandler_History_CounterpartNotFound_Returns404(t *testing.T) {
	svc := &mockChatService{
		historyFn: func(ctx context.Context, userID, counterpartID string, limit int) ([]*model.ChatMessage, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewChatHandler(svc)

	req := authedChatRequest(http.MethodGet, "/api/messages/nonexistent")
	req = withURLParam(req, "userID", "nonexistent")
	w := httptest.NewRecorder()

	h.History(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestChatHandler_History_Unauthenticated_Returns401(t *testing.T) {
	h := NewChatHandler(&mockChatService{})

	req := httptest.NewRequest(http.MethodGet, "/api/messages/user-b", nil)
	req = withURLParam(req, "userID", "user-b")
	w := httptest.NewRecorder()

	h.History(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestChatHandler_RecentChats(t *testing.T) {
	now := time.Now()
	svc := &mockChatService{
		recentChatsFn: func(ctx context.Context, userID string) ([]model.RecentChat, error) {
			return []model.RecentChat{
				{CounterpartID: "user-b", CounterpartName: "B", LastMessage: "latest", LastMessageAt: now},
				{CounterpartID: "user-c", CounterpartName: "C", LastMessage: "older", LastMessageAt: now.Add(-time.Hour)},
			}, nil
		},
	}
	h := NewChatHandler(svc)

	req := authedChatRequest(http.MethodGet, "/api/recent-chats")
	w := httptest.NewRecorder()

	h.RecentChats(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got []recentChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("recent chats = %d, want 2", len(got))
	}
	if got[0].UserID != "user-b" || got[0].LastMessage != "latest" {
		t.Errorf("first entry = %+v, want user-b newest first", got[0])
	}
}

func TestChatHandler_RecentChats_Empty_ReturnsEmptyArray(t *testing.T) {
	h := NewChatHandler(&mockChatService{})

	req := authedChatRequest(http.MethodGet, "/api/recent-chats")
	w := httptest.NewRecorder()

	h.RecentChats(w, req)

	body := w.Body.String()
	if body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}
