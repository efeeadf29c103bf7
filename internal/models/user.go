package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the system
type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	ProviderID    *string   `json:"provider_id,omitempty" db:"provider_id"`
	Name          *string   `json:"name,omitempty" db:"name"`
	EmailVerified bool      `json:"email_verified" db:"email_verified"`
	EventCount    int       `json:"event_count" db:"event_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
