package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/devlink/internal/middleware"
)

// Pinger はヘルスチェックに必要なデータベース接続のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// サービス
	AccountService AccountServiceInterface
	AuthConfig     AuthHandlerConfig
	UserService    UserServiceInterface
	ChatService    ChatServiceInterface

	// WebSocketリレー（クエリトークンで自己認証する）
	RelayWS http.HandlerFunc

	// 運用エンドポイント
	MetricsHandler http.Handler
	DB             Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SecurityHeaders → Recovery → Logging
//	→（/apiグループのみ）Auth → RateLimit(General)
//
// 認証ルート（/auth/signup, /auth/signin）はIP単位のレート制限のみ適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	authMW := middleware.NewAuthMiddleware(deps.TokenVerifier)

	authHandler := NewAuthHandler(deps.AccountService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService)
	chatHandler := NewChatHandler(deps.ChatService)

	// --- 認証ルート ---
	// サインイン・サインアップはIP単位のレート制限を適用
	r.Route("/auth", func(r chi.Router) {
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/signup", authHandler.Signup)
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/signin", authHandler.Signin)
		r.Post("/logout", authHandler.Logout)
		r.With(authMW).Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(authMW)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// チャット履歴
		r.Get("/api/recent-chats", chatHandler.RecentChats)
		r.Get("/api/messages/{userID}", chatHandler.History)

		// プロフィール
		r.Route("/api/users", func(r chi.Router) {
			r.Patch("/me", userHandler.UpdateProfile)
			r.Get("/{username}", userHandler.GetProfile)
		})
	})

	// WebSocketリレー。クエリパラメータのトークンで自己認証する
	r.Get("/ws", deps.RelayWS)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	return r
}

// NewHealthHandler はDB接続を確認するヘルスチェックハンドラーを返す。
// GET /health
func NewHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := "ok"
		statusCode := http.StatusOK
		if db == nil {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		} else if err := db.PingContext(ctx); err != nil {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
