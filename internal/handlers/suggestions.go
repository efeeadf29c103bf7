package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	logpkg "github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/middleware"
	"github.com/ticvision/ticvision/internal/models"
)

const (
	// DefaultSuggestionLimit is the default number of suggestions returned
	DefaultSuggestionLimit = 20
	// MaxSuggestionLimit caps the limit query parameter
	MaxSuggestionLimit = 100
)

// SuggestionStore lists generated suggestions, newest first
type SuggestionStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Suggestion, error)
}

// SuggestionHandler serves generated coping suggestions
type SuggestionHandler struct {
	suggestions SuggestionStore
	logger      *zap.Logger
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(suggestions SuggestionStore, logger *zap.Logger) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions, logger: logger}
}

// RegisterRoutes registers suggestion routes on the given router
func (h *SuggestionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListSuggestions).Methods("GET")
}

// ListSuggestions returns the user's suggestions, newest first
func (h *SuggestionHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit := DefaultSuggestionLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = min(parsed, MaxSuggestionLimit)
		}
	}

	suggestions, err := h.suggestions.ListByUser(r.Context(), user.ID, limit)
	if err != nil {
		h.logger.Error("failed_to_list_suggestions",
			zap.String("user_id", logpkg.SanitizeUserID(user.ID.String())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve suggestions")
		return
	}
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}

	respondJSON(w, http.StatusOK, suggestions)
}
