package models

import (
	"time"

	"github.com/google/uuid"
)

// OIDCConfig represents the identity provider that issues bearer tokens.
// For Firebase the issuer is https://securetoken.google.com/<project-id>.
type OIDCConfig struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Provider     string    `json:"provider" db:"provider"`
	Issuer       string    `json:"issuer" db:"issuer"`
	Domain       *string   `json:"domain,omitempty" db:"domain"`
	ClientID     string    `json:"client_id" db:"client_id"`
	ClientSecret *string   `json:"client_secret,omitempty" db:"client_secret"`
	RedirectURI  string    `json:"redirect_uri" db:"redirect_uri"`
	JWKSUrl      *string   `json:"jwks_url,omitempty" db:"jwks_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
