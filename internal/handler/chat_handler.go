package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/devlink/internal/middleware"
	"github.com/hitoshi/devlink/internal/model"
)

// ChatServiceInterface はチャットハンドラーが必要とするサービスインターフェース。
type ChatServiceInterface interface {
	// History は自分と相手の2者間の直近メッセージを古い順で返す。
	History(ctx context.Context, userID, counterpartID string, limit int) ([]*model.ChatMessage, error)
	// RecentChats は相手ごとの最新メッセージサマリーを新しい順で返す。
	RecentChats(ctx context.Context, userID string) ([]model.RecentChat, error)
}

// ChatHandler はチャット履歴のHTTPハンドラー。
type ChatHandler struct {
	service ChatServiceInterface
}

// NewChatHandler はChatHandlerを生成する。
func NewChatHandler(service ChatServiceInterface) *ChatHandler {
	return &ChatHandler{
		service: service,
	}
}

// --- レスポンス型 ---

// chatMessageResponse はチャットメッセージのレスポンス。
type chatMessageResponse struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

// recentChatResponse は最近のチャット相手サマリーのレスポンス。
type recentChatResponse struct {
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	LastMessage   string    `json:"lastMessage"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

// History は相手との2者間のメッセージ履歴を取得する。
// GET /api/messages/{userID}?limit=50
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	counterpartID := chi.URLParam(r, "userID")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("limit must be an integer"))
			return
		}
	}

	messages, err := h.service.History(r.Context(), userID, counterpartID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]chatMessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = chatMessageResponse{
			ID:         m.ID,
			SenderID:   m.SenderID,
			ReceiverID: m.ReceiverID,
			Message:    m.Message,
			CreatedAt:  m.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// RecentChats は相手ごとの最新メッセージサマリー一覧を取得する。
// GET /api/recent-chats
func (h *ChatHandler) RecentChats(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	recents, err := h.service.RecentChats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]recentChatResponse, len(recents))
	for i, rc := range recents {
		responses[i] = recentChatResponse{
			UserID:        rc.CounterpartID,
			Name:          rc.CounterpartName,
			LastMessage:   rc.LastMessage,
			LastMessageAt: rc.LastMessageAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}
