package models

import (
	"time"

	"github.com/google/uuid"
)

// Suggestion is AI-generated coping advice produced after every SuggestionInterval events
type Suggestion struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	EventCount      int       `json:"event_count" db:"event_count"`
	ContentMarkdown string    `json:"content_markdown" db:"content_markdown"`
	ContentHTML     string    `json:"content_html" db:"content_html"`
	Model           string    `json:"model" db:"model"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// SuggestionInterval is the number of events between suggestion requests
const SuggestionInterval = 10

// ShouldRequestSuggestion reports whether a user's new event total triggers suggestion generation
func ShouldRequestSuggestion(eventCount int) bool {
	return eventCount > 0 && eventCount%SuggestionInterval == 0
}
