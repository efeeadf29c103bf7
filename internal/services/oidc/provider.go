package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ticvision/ticvision/internal/models"
)

const (
	// FirebaseIssuerPrefix prefixes the issuer of Firebase ID tokens; the project ID follows
	FirebaseIssuerPrefix = "https://securetoken.google.com/"
	// FirebaseJWKSURL publishes the keys that sign Firebase ID tokens
	FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// ConfigStore loads identity provider configuration
type ConfigStore interface {
	GetByProvider(ctx context.Context, provider string) (*models.OIDCConfig, error)
}

// Discovery is the subset of the OpenID discovery document used here
type Discovery struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// Provider manages OIDC provider configuration
type Provider struct {
	store      ConfigStore
	httpClient *http.Client
}

// NewProvider creates a new OIDC provider manager
func NewProvider(store ConfigStore) *Provider {
	return &Provider{
		store:      store,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// GetConfig retrieves OIDC configuration for a provider
func (p *Provider) GetConfig(ctx context.Context, providerName string) (*models.OIDCConfig, error) {
	config, err := p.store.GetByProvider(ctx, providerName)
	if err != nil {
		return nil, fmt.Errorf("failed to get OIDC config: %w", err)
	}
	return config, nil
}

// Discover fetches the issuer's discovery document
func (p *Provider) Discover(ctx context.Context, issuer string) (*Discovery, error) {
	url := strings.TrimSuffix(issuer, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}
	var d Discovery
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	return &d, nil
}

// JWKSURL resolves where the signing keys for config live.
// An explicit jwks_url wins, Firebase issuers use Google's key endpoint,
// and anything else goes through discovery with a well-known fallback.
func (p *Provider) JWKSURL(ctx context.Context, config *models.OIDCConfig) string {
	if config.JWKSUrl != nil && *config.JWKSUrl != "" {
		return *config.JWKSUrl
	}
	if IsFirebaseIssuer(config.Issuer) {
		return FirebaseJWKSURL
	}
	if d, err := p.Discover(ctx, config.Issuer); err == nil && d.JWKSURI != "" {
		return d.JWKSURI
	}
	return strings.TrimSuffix(config.Issuer, "/") + "/.well-known/jwks.json"
}

// IsFirebaseIssuer reports whether issuer belongs to a Firebase project
func IsFirebaseIssuer(issuer string) bool {
	return strings.HasPrefix(issuer, FirebaseIssuerPrefix) && len(issuer) > len(FirebaseIssuerPrefix)
}

// FirebaseIssuer returns the token issuer for a Firebase project
func FirebaseIssuer(projectID string) string {
	return FirebaseIssuerPrefix + projectID
}

// GetLoginConfig returns the configuration a client needs to start a login
func (p *Provider) GetLoginConfig(ctx context.Context, providerName string) (*LoginConfig, error) {
	config, err := p.GetConfig(ctx, providerName)
	if err != nil {
		return nil, err
	}

	issuer := strings.TrimSuffix(config.Issuer, "/")
	login := &LoginConfig{
		Issuer:                config.Issuer,
		AuthorizationEndpoint: issuer + "/oauth2/authorize",
		TokenEndpoint:         issuer + "/oauth2/token",
		ClientID:              config.ClientID,
		RedirectURI:           config.RedirectURI,
		Scope:                 "openid email profile",
	}
	if d, err := p.Discover(ctx, config.Issuer); err == nil {
		if d.AuthorizationEndpoint != "" {
			login.AuthorizationEndpoint = d.AuthorizationEndpoint
		}
		if d.TokenEndpoint != "" {
			login.TokenEndpoint = d.TokenEndpoint
		}
	}
	return login, nil
}

// LoginConfig contains OIDC login configuration for clients
type LoginConfig struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	ClientID              string `json:"client_id"`
	RedirectURI           string `json:"redirect_uri"`
	Scope                 string `json:"scope"`
}
