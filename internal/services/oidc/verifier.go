package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/ticvision/ticvision/internal/models"
)

// ErrMissingSubject is returned for tokens without a sub claim
var ErrMissingSubject = errors.New("token missing subject claim")

// Verifier verifies bearer ID tokens against an issuer's key set
type Verifier struct {
	jwksManager *JWKSManager
	issuer      string
	audience    string
}

// NewVerifier creates a new JWT verifier. An empty audience skips the aud check.
// Firebase sets aud to the project ID, which is stored as the client ID.
func NewVerifier(jwksManager *JWKSManager, issuer, audience string) *Verifier {
	return &Verifier{
		jwksManager: jwksManager,
		issuer:      issuer,
		audience:    audience,
	}
}

// Verify verifies a JWT token and extracts claims
func (v *Verifier) Verify(ctx context.Context, tokenString string, jwksURL string) (*models.JWTClaims, error) {
	keys, err := v.jwksManager.GetJWKS(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	if token.Subject() == "" {
		return nil, ErrMissingSubject
	}

	claims := &models.JWTClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
		Exp: token.Expiration().Unix(),
		Iat: token.IssuedAt().Unix(),
	}
	if aud := token.Audience(); len(aud) > 0 {
		claims.Aud = aud[0]
	}
	if email, ok := token.Get("email"); ok {
		claims.Email, _ = email.(string)
	}
	if verified, ok := token.Get("email_verified"); ok {
		claims.EmailVerified, _ = verified.(bool)
	}
	if name, ok := token.Get("name"); ok {
		claims.Name, _ = name.(string)
	}

	return claims, nil
}
