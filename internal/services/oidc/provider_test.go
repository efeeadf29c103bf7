package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ticvision/ticvision/internal/models"
)

type mockConfigStore struct {
	getByProviderFunc func(ctx context.Context, provider string) (*models.OIDCConfig, error)
}

func (m *mockConfigStore) GetByProvider(ctx context.Context, provider string) (*models.OIDCConfig, error) {
	return m.getByProviderFunc(ctx, provider)
}

func discoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(Discovery{
			Issuer:                server.URL,
			AuthorizationEndpoint: server.URL + "/authorize",
			TokenEndpoint:         server.URL + "/token",
			JWKSURI:               server.URL + "/keys",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestProvider_JWKSURL(t *testing.T) {
	t.Parallel()

	server := discoveryServer(t)
	p := NewProvider(nil)

	tests := []struct {
		name   string
		config *models.OIDCConfig
		want   string
	}{
		{
			name:   "explicit url",
			config: &models.OIDCConfig{Issuer: server.URL, JWKSUrl: stringPtr("https://keys.example.com/jwks")},
			want:   "https://keys.example.com/jwks",
		},
		{
			name:   "firebase issuer",
			config: &models.OIDCConfig{Issuer: FirebaseIssuer("ticvision-test")},
			want:   FirebaseJWKSURL,
		},
		{
			name:   "discovery",
			config: &models.OIDCConfig{Issuer: server.URL},
			want:   server.URL + "/keys",
		},
		{
			name:   "well-known fallback",
			config: &models.OIDCConfig{Issuer: server.URL + "/tenant/"},
			want:   server.URL + "/tenant/.well-known/jwks.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := p.JWKSURL(context.Background(), tt.config); got != tt.want {
				t.Errorf("JWKSURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsFirebaseIssuer(t *testing.T) {
	t.Parallel()

	if !IsFirebaseIssuer("https://securetoken.google.com/my-project") {
		t.Error("expected firebase issuer")
	}
	for _, issuer := range []string{"https://securetoken.google.com/", "https://accounts.google.com", ""} {
		if IsFirebaseIssuer(issuer) {
			t.Errorf("IsFirebaseIssuer(%q) = true", issuer)
		}
	}
}

func TestProvider_GetLoginConfig(t *testing.T) {
	t.Parallel()

	server := discoveryServer(t)
	store := &mockConfigStore{
		getByProviderFunc: func(ctx context.Context, provider string) (*models.OIDCConfig, error) {
			if provider != "firebase" {
				return nil, errors.New("not found")
			}
			return &models.OIDCConfig{Issuer: server.URL, ClientID: "client", RedirectURI: "http://localhost/cb"}, nil
		},
	}
	p := NewProvider(store)

	login, err := p.GetLoginConfig(context.Background(), "firebase")
	if err != nil {
		t.Fatalf("GetLoginConfig() error = %v", err)
	}
	if login.AuthorizationEndpoint != server.URL+"/authorize" || login.TokenEndpoint != server.URL+"/token" {
		t.Errorf("unexpected endpoints %+v", login)
	}
	if login.ClientID != "client" || login.Scope != "openid email profile" {
		t.Errorf("unexpected login config %+v", login)
	}

	if _, err := p.GetLoginConfig(context.Background(), "unknown"); err == nil {
		t.Error("expected error for unknown provider")
	}
}
