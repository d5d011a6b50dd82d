package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/devlink/internal/middleware"
	"github.com/hitoshi/devlink/internal/model"
	"github.com/hitoshi/devlink/internal/user"

	"golang.org/x/time/rate"
)

type routerVerifier struct{}

func (routerVerifier) Verify(tokenString string) (string, error) {
	if tokenString == "valid-token" {
		return "user-1", nil
	}
	return "", errors.New("invalid token")
}

type okPinger struct{}

func (okPinger) PingContext(ctx context.Context) error { return nil }

type failPinger struct{}

func (failPinger) PingContext(ctx context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T, db Pinger) (http.Handler, *bool) {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(100),
		GeneralBurst:    100,
		AuthRate:        rate.Limit(100),
		AuthBurst:       100,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)

	wsCalled := false
	deps := &RouterDeps{
		TokenVerifier:     routerVerifier{},
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       rl,
		AccountService: &mockAccountService{
			getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
				return &model.User{ID: id, Username: "taro"}, nil
			},
			signupFn: func(ctx context.Context, input user.SignupInput) (*user.AuthResult, error) {
				return &user.AuthResult{
					User:  &model.User{ID: "user-1", Username: "taro"},
					Token: "issued-token",
				}, nil
			},
		},
		AuthConfig:  testAuthConfig(),
		UserService: &mockUserService{},
		ChatService: &mockChatService{},
		RelayWS: func(w http.ResponseWriter, r *http.Request) {
			wsCalled = true
			w.WriteHeader(http.StatusOK)
		},
		DB: db,
	}

	return NewRouter(deps), &wsCalled
}

func TestRouter_APIRequiresAuthentication(t *testing.T) {
	router, _ := newTestRouter(t, okPinger{})

	paths := []string{"/api/recent-chats", "/api/messages/user-b", "/api/users/taro"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want %d", path, w.Result().StatusCode, http.StatusUnauthorized)
		}
	}
}

func TestRouter_APIAllowsAuthenticatedRequests(t *testing.T) {
	router, _ := newTestRouter(t, okPinger{})

	req := httptest.NewRequest(http.MethodGet, "/api/recent-chats", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "valid-token"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_SignupIsPublic(t *testing.T) {
	router, _ := newTestRouter(t, okPinger{})

	body := `{"name":"Taro","email":"taro@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
}

func TestRouter_MeRequiresAuthentication(t *testing.T) {
	router, _ := newTestRouter(t, okPinger{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestRouter_WSRouteWired(t *testing.T) {
	router, wsCalled := newTestRouter(t, okPinger{})

	req := httptest.NewRequest(http.MethodGet, "/ws?token=whatever", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if !*wsCalled {
		t.Error("expected /ws to be routed to the relay handler")
	}
}

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
	}{
		{name: "healthy db", db: okPinger{}, wantStatus: http.StatusOK},
		{name: "unreachable db", db: failPinger{}, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, tt.db)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Result().StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestRouter_CORSHeadersOnAllRoutes(t *testing.T) {
	router, _ := newTestRouter(t, okPinger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Result().Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:5173")
	}
}
