package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/msomdec/eventhub/internal/domain"
	"github.com/msomdec/eventhub/internal/handler"
	"github.com/msomdec/eventhub/internal/repository/sqlite"
	"github.com/msomdec/eventhub/internal/service"
)

const (
	testJWTSecret = "test-secret-for-handler-tests-0123456789"
	testPassword  = "Str0ng!Pass"
)

func newTestServices(t *testing.T) handler.Services {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return handler.Services{
		Auth:     service.NewAuthService(db.Users(), testJWTSecret, 4, service.DefaultTokenTTL),
		Users:    service.NewUserService(db.Users(), 4),
		Events:   service.NewEventService(db.Events(), db.Users()),
		Comments: service.NewCommentService(db.Comments(), db.Events(), db.Users()),
		DB:       db,
	}
}

func registerDirect(t *testing.T, auth *service.AuthService, email string, role domain.Role) (*domain.User, string) {
	t.Helper()
	user, token, err := auth.Register(context.Background(), service.RegisterInput{
		Name:     "Middleware User",
		Email:    email,
		Password: testPassword,
		Role:     role,
		Age:      30,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return user, token
}

func TestRequireAuth_ValidJWT(t *testing.T) {
	s := newTestServices(t)
	user, token := registerDirect(t, s.Auth, "valid@example.com", domain.RoleOrganizer)

	var got domain.Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = handler.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.RequireAuth(s.Auth, inner).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got.UserID != user.ID || got.Role != domain.RoleOrganizer {
		t.Fatalf("unexpected identity %+v", got)
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	s := newTestServices(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called")
	})

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer a b"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()

		handler.RequireAuth(s.Auth, inner).ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %d", header, w.Code)
		}
		if msg := decodeMsg(t, w.Body.Bytes()); msg != "No token, authorization denied" {
			t.Fatalf("%q: unexpected msg %q", header, msg)
		}
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	s := newTestServices(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid.jwt.token")
	w := httptest.NewRecorder()

	handler.RequireAuth(s.Auth, inner).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if msg := decodeMsg(t, w.Body.Bytes()); msg != "Token is not valid" {
		t.Fatalf("unexpected msg %q", msg)
	}
}

func TestRequireAuth_TamperedToken(t *testing.T) {
	s := newTestServices(t)
	_, token := registerDirect(t, s.Auth, "tamper@example.com", domain.RoleCustomer)

	tampered := token[:len(token)-1] + "X"
	if tampered == token {
		tampered = token[:len(token)-1] + "Y"
	}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tampered)
	w := httptest.NewRecorder()

	handler.RequireAuth(s.Auth, inner).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := service.NewRateLimiter(0.001, 2)
	t.Cleanup(limiter.Close)

	h := handler.RateLimit(limiter, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	for i := range 2 {
		if w := send("10.0.0.1:1234"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := send("10.0.0.1:5678")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	if w := send("10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Fatalf("other client: expected 200, got %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := handler.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff, got %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected DENY, got %q", got)
	}
}

func TestRequestLogging_RequestID(t *testing.T) {
	var seen string
	h := handler.RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = handler.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", w.Code)
	}
	if seen == "" || w.Header().Get(handler.RequestIDHeader) != seen {
		t.Fatalf("expected generated request id in context and header, got %q / %q", seen, w.Header().Get(handler.RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(handler.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen != "abc-123" {
		t.Fatalf("expected incoming request id to be reused, got %q", seen)
	}
}
