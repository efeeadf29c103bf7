package models

import (
	"time"

	"github.com/google/uuid"
)

// UserActivity records the last time a user touched the API
type UserActivity struct {
	UserID             uuid.UUID `json:"user_id" db:"user_id"`
	LastAPIInteraction time.Time `json:"last_api_interaction" db:"last_api_interaction"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}
