package oidc

import (
	"context"
	"fmt"
	"sync"

	"github.com/ticvision/ticvision/internal/models"
)

// Authenticator verifies bearer tokens for one configured provider.
// Configuration is read per call so operator changes apply without a restart;
// resolved JWKS URLs are cached per issuer.
type Authenticator struct {
	provider     *Provider
	jwks         *JWKSManager
	providerName string

	mu       sync.Mutex
	jwksURLs map[string]string
}

// NewAuthenticator creates an authenticator for providerName
func NewAuthenticator(provider *Provider, jwks *JWKSManager, providerName string) *Authenticator {
	return &Authenticator{
		provider:     provider,
		jwks:         jwks,
		providerName: providerName,
		jwksURLs:     make(map[string]string),
	}
}

// Verify checks tokenString against the provider's issuer, audience and keys
func (a *Authenticator) Verify(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	config, err := a.provider.GetConfig(ctx, a.providerName)
	if err != nil {
		return nil, err
	}

	jwksURL := a.jwksURL(ctx, config)
	claims, err := NewVerifier(a.jwks, config.Issuer, config.ClientID).Verify(ctx, tokenString, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("verify token for %s: %w", a.providerName, err)
	}
	return claims, nil
}

func (a *Authenticator) jwksURL(ctx context.Context, config *models.OIDCConfig) string {
	key := config.Issuer
	if config.JWKSUrl != nil {
		key += "|" + *config.JWKSUrl
	}

	a.mu.Lock()
	url, ok := a.jwksURLs[key]
	a.mu.Unlock()
	if ok {
		return url
	}

	url = a.provider.JWKSURL(ctx, config)
	a.mu.Lock()
	a.jwksURLs[key] = url
	a.mu.Unlock()
	return url
}
