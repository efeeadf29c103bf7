package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	logpkg "github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/middleware"
	"github.com/ticvision/ticvision/internal/services/oidc"
)

// LoginConfigSource supplies the public OIDC settings for the frontend
type LoginConfigSource interface {
	GetLoginConfig(ctx context.Context, providerName string) (*oidc.LoginConfig, error)
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	oidcProvider LoginConfigSource
	providerName string
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(oidcProvider LoginConfigSource, providerName string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{oidcProvider: oidcProvider, providerName: providerName, logger: logger}
}

// RegisterPublicRoutes registers unauthenticated auth routes
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/oidc/login", h.GetOIDCLogin).Methods("GET")
}

// RegisterRoutes registers authenticated auth routes
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// GetOIDCLogin returns OIDC configuration for frontend
func (h *AuthHandler) GetOIDCLogin(w http.ResponseWriter, r *http.Request) {
	loginConfig, err := h.oidcProvider.GetLoginConfig(r.Context(), h.providerName)
	if err != nil {
		h.logger.Error("failed_to_get_oidc_login_config",
			zap.String("provider", h.providerName),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to get OIDC configuration")
		return
	}

	respondJSON(w, http.StatusOK, loginConfig)
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
