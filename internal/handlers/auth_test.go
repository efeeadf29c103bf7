package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/models"
	"github.com/ticvision/ticvision/internal/services/oidc"
)

type mockLoginSource struct {
	gotProvider string
	config      *oidc.LoginConfig
	err         error
}

func (m *mockLoginSource) GetLoginConfig(ctx context.Context, providerName string) (*oidc.LoginConfig, error) {
	m.gotProvider = providerName
	return m.config, m.err
}

func TestAuthHandler_GetOIDCLogin(t *testing.T) {
	t.Parallel()

	src := &mockLoginSource{config: &oidc.LoginConfig{Issuer: "https://securetoken.google.com/ticvision", ClientID: "ticvision"}}
	h := NewAuthHandler(src, "firebase", zap.NewNop())

	w := httptest.NewRecorder()
	h.GetOIDCLogin(w, httptest.NewRequest("GET", "/api/v1/auth/oidc/login", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if src.gotProvider != "firebase" {
		t.Errorf("provider = %q, want firebase", src.gotProvider)
	}
	var cfg oidc.LoginConfig
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &cfg); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if cfg.ClientID != "ticvision" {
		t.Errorf("client_id = %q", cfg.ClientID)
	}

	failing := NewAuthHandler(&mockLoginSource{err: errors.New("no rows for provider firebase")}, "firebase", zap.NewNop())
	w = httptest.NewRecorder()
	failing.GetOIDCLogin(w, httptest.NewRequest("GET", "/api/v1/auth/oidc/login", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Message != "Failed to get OIDC configuration" {
		t.Errorf("internal error leaked: %q", env.Message)
	}
}

func TestAuthHandler_GetMe(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(&mockLoginSource{}, "firebase", zap.NewNop())
	user := &models.User{ID: uuid.New(), Email: "user@example.com", EventCount: 42}

	w := httptest.NewRecorder()
	h.GetMe(w, asUser(httptest.NewRequest("GET", "/api/v1/auth/me", nil), user))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var got models.User
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &got); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if got.ID != user.ID || got.EventCount != 42 {
		t.Errorf("unexpected user %+v", got)
	}

	w = httptest.NewRecorder()
	h.GetMe(w, httptest.NewRequest("GET", "/api/v1/auth/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}
