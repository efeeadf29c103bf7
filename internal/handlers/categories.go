package handlers

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	logpkg "github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/middleware"
	"github.com/ticvision/ticvision/internal/models"
)

// CategoryHandler serves category summaries
type CategoryHandler struct {
	categories CategoryStore
	logger     *zap.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories CategoryStore, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

// RegisterRoutes registers category routes on the given router
func (h *CategoryHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListCategories).Methods("GET")
}

// ListCategories returns the user's categories with counts and colors, sorted by name
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	summaries, err := h.categories.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed_to_list_categories",
			zap.String("user_id", logpkg.SanitizeUserID(user.ID.String())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve categories")
		return
	}

	if summaries == nil {
		summaries = []models.CategorySummary{}
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	respondJSON(w, http.StatusOK, summaries)
}
