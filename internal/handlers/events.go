package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/database"
	logpkg "github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/middleware"
	"github.com/ticvision/ticvision/internal/models"
	"github.com/ticvision/ticvision/internal/services/events"
)

// EventStore lists a user's events
type EventStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error)
}

// CategoryStore lists a user's category summaries
type CategoryStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CategorySummary, error)
}

// EventWriter records and deletes events
type EventWriter interface {
	Create(ctx context.Context, userID uuid.UUID, req events.CreateRequest) (*database.EventWriteResult, error)
	Delete(ctx context.Context, userID, eventID uuid.UUID) (*models.Event, error)
}

// EventHandler handles event-related requests
type EventHandler struct {
	events EventStore
	writer EventWriter
	clock  Clock
	logger *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(store EventStore, writer EventWriter, clock Clock, logger *zap.Logger) *EventHandler {
	return &EventHandler{events: store, writer: writer, clock: clock, logger: logger}
}

// RegisterRoutes registers event routes on the given router
// The router should already have the /events prefix
func (h *EventHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListEvents).Methods("GET")
	r.HandleFunc("", h.CreateEvent).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteEvent).Methods("DELETE")
}

// ListEventsResponse is the filtered event list
type ListEventsResponse struct {
	Events []models.Event  `json:"events"`
	Query  analytics.Query `json:"query"`
	Total  int             `json:"total"`
}

// CreateEventResponse is returned after an event is recorded
type CreateEventResponse struct {
	Event      *models.Event           `json:"event"`
	Category   *models.CategorySummary `json:"category"`
	EventCount int                     `json:"event_count"`
}

// ListEvents lists the user's events filtered by range and category
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", queryErrorMessage(err))
		return
	}

	all, err := h.events.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed_to_list_events",
			zap.String("user_id", logpkg.SanitizeUserID(user.ID.String())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve events")
		return
	}

	filtered := analytics.Filter(all, q, h.clock.now())
	analytics.SortEvents(filtered, q.Sort)

	respondJSON(w, http.StatusOK, ListEventsResponse{
		Events: filtered,
		Query:  q,
		Total:  len(filtered),
	})
}

// CreateEvent records a new event
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req events.CreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.writer.Create(r.Context(), user.ID, req)
	if err != nil {
		var vErr *events.ValidationError
		if errors.As(err, &vErr) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", vErr.Message)
			return
		}
		h.logger.Error("failed_to_create_event",
			zap.String("user_id", logpkg.SanitizeUserID(user.ID.String())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create event")
		return
	}

	respondJSON(w, http.StatusCreated, CreateEventResponse{
		Event:      result.Event,
		Category:   result.Category,
		EventCount: result.EventCount,
	})
}

// DeleteEvent deletes one of the user's events
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid event ID")
		return
	}

	if _, err := h.writer.Delete(r.Context(), user.ID, id); err != nil {
		switch {
		case errors.Is(err, events.ErrNotFound):
			respondJSONError(w, http.StatusNotFound, "Not Found", "Event not found")
		case errors.Is(err, events.ErrForbidden):
			respondJSONError(w, http.StatusForbidden, "Forbidden", "Event does not belong to user")
		default:
			h.logger.Error("failed_to_delete_event",
				zap.String("user_id", logpkg.SanitizeUserID(user.ID.String())),
				zap.String("event_id", id.String()),
				zap.String("error", logpkg.SanitizeError(err)),
			)
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete event")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
