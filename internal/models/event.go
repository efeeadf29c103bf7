package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeOfDay labels used by the logging form. Callers may also send a clock time such as "14:30".
const (
	TimeOfDayMorning   = "morning"
	TimeOfDayAfternoon = "afternoon"
	TimeOfDayEvening   = "evening"
	TimeOfDayNight     = "night"
)

// Intensity bounds for an event
const (
	MinIntensity = 1
	MaxIntensity = 10
)

// Event represents one logged tic occurrence
type Event struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Date        string    `json:"date" db:"event_date"` // YYYY-MM-DD, no time component
	TimeOfDay   string    `json:"time_of_day" db:"time_of_day"`
	Category    string    `json:"category" db:"category"`
	Intensity   int       `json:"intensity" db:"intensity"`
	Description *string   `json:"description,omitempty" db:"description"`
	Latitude    *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64  `json:"longitude,omitempty" db:"longitude"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
