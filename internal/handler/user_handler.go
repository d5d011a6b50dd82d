package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/devlink/internal/middleware"
	"github.com/hitoshi/devlink/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// GetByUsername はユーザー名でプロフィールを取得する。
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// UpdateProfile はプロフィールを部分更新する。
	UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (*model.User, error)
}

// UserHandler はユーザープロフィールのHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// profileUpdateRequest はプロフィール更新リクエストのボディ。
// 省略されたフィールドは変更しない部分更新を行う。
type profileUpdateRequest struct {
	Name         *string  `json:"name,omitempty"`
	About        *string  `json:"about,omitempty"`
	Location     *string  `json:"location,omitempty"`
	ResponseTime *string  `json:"responseTime,omitempty"`
	Skills       []string `json:"skills,omitempty"`
}

// profileResponse は公開プロフィールのレスポンス。
// メールアドレスは本人取得（/auth/me）のみで返すため含めない。
type profileResponse struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	Name         string   `json:"name"`
	AccountType  string   `json:"accountType"`
	About        string   `json:"about"`
	Location     string   `json:"location"`
	ResponseTime string   `json:"responseTime"`
	Skills       []string `json:"skills"`
}

func toProfileResponse(u *model.User) profileResponse {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return profileResponse{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		AccountType:  u.AccountType,
		About:        u.About,
		Location:     u.Location,
		ResponseTime: u.ResponseTime,
		Skills:       skills,
	}
}

// GetProfile はユーザー名で公開プロフィールを取得する。
// GET /api/users/{username}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	found, err := h.service.GetByUsername(r.Context(), username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProfileResponse(found))
}

// UpdateProfile は自分のプロフィールを部分更新する。
// PATCH /api/users/me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("invalid request body"))
		return
	}

	if req.Name == nil && req.About == nil && req.Location == nil && req.ResponseTime == nil && req.Skills == nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("no fields to update"))
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), userID, model.ProfileUpdate{
		Name:         req.Name,
		About:        req.About,
		Location:     req.Location,
		ResponseTime: req.ResponseTime,
		Skills:       req.Skills,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProfileResponse(updated))
}
