package models

import (
	"time"

	"github.com/google/uuid"
)

// CategorySummary tracks how many events a user has logged under a category
// and the display color assigned when the category was first seen.
type CategorySummary struct {
	UserID    uuid.UUID `json:"-" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Count     int       `json:"count" db:"count"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
