package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/models"
	"github.com/tempohq/tempo/internal/request"
)

type mockUserRepo struct {
	getOrCreateFunc func(ctx context.Context, telegramID string, username *string) (*models.User, error)
}

func (m *mockUserRepo) GetByID(context.Context, uuid.UUID) (*models.User, error) {
	return nil, database.ErrNotFound
}

func (m *mockUserRepo) GetByTelegramID(context.Context, string) (*models.User, error) {
	return nil, database.ErrNotFound
}

func (m *mockUserRepo) GetOrCreate(ctx context.Context, telegramID string, username *string) (*models.User, error) {
	return m.getOrCreateFunc(ctx, telegramID, username)
}

func TestAuthResolvesUser(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &mockUserRepo{
		getOrCreateFunc: func(_ context.Context, telegramID string, username *string) (*models.User, error) {
			if telegramID != "123456" {
				t.Errorf("expected telegram id 123456, got %q", telegramID)
			}
			if username == nil || *username != "alice" {
				t.Errorf("expected username alice, got %v", username)
			}
			return &models.User{ID: userID, TelegramID: telegramID, Username: username}, nil
		},
	}

	var gotUser *models.User
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotUser = request.UserFromContext(r)
	})

	handler := Auth(repo, zap.NewNop())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set(TelegramIDHeader, "123456")
	req.Header.Set(UsernameHeader, "alice")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUser == nil || gotUser.ID != userID {
		t.Errorf("expected user %v in context, got %+v", userID, gotUser)
	}
}

func TestAuthMissingHeader(t *testing.T) {
	t.Parallel()

	handler := Auth(&mockUserRepo{}, zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("next handler must not run without identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthInvalidTelegramID(t *testing.T) {
	t.Parallel()

	handler := Auth(&mockUserRepo{}, zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("next handler must not run with invalid identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set(TelegramIDHeader, "not a telegram id")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRepositoryFailure(t *testing.T) {
	t.Parallel()

	repo := &mockUserRepo{
		getOrCreateFunc: func(context.Context, string, *string) (*models.User, error) {
			return nil, errors.New("connection refused")
		},
	}

	handler := Auth(repo, zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("next handler must not run when resolution fails")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set(TelegramIDHeader, "123456")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
