package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/database"
	"github.com/ticvision/ticvision/internal/models"
)

type mockVerifier struct {
	verifyFunc func(ctx context.Context, token string) (*models.JWTClaims, error)
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (*models.JWTClaims, error) {
	return m.verifyFunc(ctx, token)
}

type mockUserStore struct {
	createFunc          func(ctx context.Context, user *models.User) error
	getByProviderIDFunc func(ctx context.Context, providerID string) (*models.User, error)
	updateFunc          func(ctx context.Context, user *models.User) error
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserStore) GetByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	if m.getByProviderIDFunc != nil {
		return m.getByProviderIDFunc(ctx, providerID)
	}
	return nil, fmt.Errorf("user: %w", database.ErrNotFound)
}

func (m *mockUserStore) Update(ctx context.Context, user *models.User) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, user)
	}
	return nil
}

func validVerifier() *mockVerifier {
	return &mockVerifier{verifyFunc: func(ctx context.Context, token string) (*models.JWTClaims, error) {
		if token != "good-token" {
			return nil, errors.New("bad signature")
		}
		return &models.JWTClaims{Sub: "uid-1", Email: "user@example.com", EmailVerified: true, Name: "User"}, nil
	}}
}

func TestAuth(t *testing.T) {
	t.Parallel()

	existingID := uuid.New()

	tests := []struct {
		name        string
		header      string
		users       *mockUserStore
		wantStatus  int
		wantCreated bool
		wantUserID  *uuid.UUID
	}{
		{
			name:       "missing header",
			header:     "",
			users:      &mockUserStore{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic abc",
			users:      &mockUserStore{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			header:     "Bearer bad-token",
			users:      &mockUserStore{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:        "first login creates user",
			header:      "Bearer good-token",
			users:       &mockUserStore{},
			wantStatus:  http.StatusOK,
			wantCreated: true,
		},
		{
			name:   "existing user",
			header: "bearer good-token",
			users: &mockUserStore{getByProviderIDFunc: func(ctx context.Context, providerID string) (*models.User, error) {
				return &models.User{ID: existingID, Email: "user@example.com", EmailVerified: true, Name: strPtr("User")}, nil
			}},
			wantStatus: http.StatusOK,
			wantUserID: &existingID,
		},
		{
			name:   "database error",
			header: "Bearer good-token",
			users: &mockUserStore{getByProviderIDFunc: func(ctx context.Context, providerID string) (*models.User, error) {
				return nil, errors.New("connection refused")
			}},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var created *models.User
			if tt.users.createFunc == nil {
				tt.users.createFunc = func(ctx context.Context, user *models.User) error {
					created = user
					return nil
				}
			}

			var seen *models.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = UserFromContext(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/api/v1/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			Auth(validVerifier(), tt.users, zap.NewNop())(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if seen != nil {
					t.Error("next handler should not run")
				}
				return
			}
			if seen == nil {
				t.Fatal("expected user in context")
			}
			if tt.wantCreated {
				if created == nil || created != seen {
					t.Fatal("expected created user to be attached")
				}
				if created.ProviderID == nil || *created.ProviderID != "uid-1" || !created.EmailVerified {
					t.Errorf("unexpected created user %+v", created)
				}
			}
			if tt.wantUserID != nil && seen.ID != *tt.wantUserID {
				t.Errorf("user ID = %s, want %s", seen.ID, *tt.wantUserID)
			}
		})
	}
}

func TestAuth_RefreshesProfile(t *testing.T) {
	t.Parallel()

	var updated *models.User
	users := &mockUserStore{
		getByProviderIDFunc: func(ctx context.Context, providerID string) (*models.User, error) {
			return &models.User{ID: uuid.New(), Email: "old@example.com"}, nil
		},
		updateFunc: func(ctx context.Context, user *models.User) error {
			updated = user
			return nil
		},
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	Auth(validVerifier(), users, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(w, req)

	if updated == nil {
		t.Fatal("expected profile update")
	}
	if updated.Email != "user@example.com" || updated.Name == nil || *updated.Name != "User" || !updated.EmailVerified {
		t.Errorf("unexpected updated user %+v", updated)
	}
}

func TestAuth_ConcurrentCreate(t *testing.T) {
	t.Parallel()

	winner := &models.User{ID: uuid.New()}
	calls := 0
	users := &mockUserStore{
		getByProviderIDFunc: func(ctx context.Context, providerID string) (*models.User, error) {
			calls++
			if calls == 1 {
				return nil, fmt.Errorf("user: %w", database.ErrNotFound)
			}
			return winner, nil
		},
		createFunc: func(ctx context.Context, user *models.User) error {
			return errors.New("duplicate key value violates unique constraint")
		},
	}

	var seen *models.User
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	Auth(validVerifier(), users, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r)
	})).ServeHTTP(w, req)

	if seen != winner {
		t.Errorf("expected the concurrently created user, got %+v", seen)
	}
}

func strPtr(s string) *string { return &s }
