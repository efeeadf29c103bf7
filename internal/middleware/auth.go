package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/database"
	logpkg "github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/models"
	"github.com/ticvision/ticvision/internal/request"
)

// TokenVerifier validates a bearer token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

// UserStore is the user storage the auth middleware needs
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// UserFromContext extracts the user from the request context
func UserFromContext(r *http.Request) *models.User {
	return request.UserFromContext(r)
}

// Auth validates the bearer token and attaches the matching user, creating it on first sight
func Auth(verifier TokenVerifier, users UserStore, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Missing or malformed Authorization header", logger)
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, tokenString)
			if err != nil {
				logger.Info("token_verification_failed",
					zap.String("error", logpkg.SanitizeError(err)),
					zap.String("request_id", request.RequestID(ctx)),
				)
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token", logger)
				return
			}

			user, err := resolveUser(ctx, users, claims, logger)
			if err != nil {
				logger.Error("user_resolution_failed",
					zap.String("error", logpkg.SanitizeError(err)),
					zap.String("request_id", request.RequestID(ctx)),
				)
				respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", "Failed to load user", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// resolveUser finds the user for claims.Sub, creating it when missing and
// refreshing the profile fields the identity provider owns.
func resolveUser(ctx context.Context, users UserStore, claims *models.JWTClaims, logger *zap.Logger) (*models.User, error) {
	user, err := users.GetByProviderID(ctx, claims.Sub)
	if err == nil {
		if refreshProfile(user, claims) {
			if err := users.Update(ctx, user); err != nil {
				logger.Warn("user_profile_update_failed",
					zap.String("user_id", logpkg.SanitizeUserID(user.ID.String())),
					zap.String("error", logpkg.SanitizeError(err)),
				)
			}
		}
		return user, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	sub := claims.Sub
	user = &models.User{
		ID:            uuid.New(),
		Email:         claims.Email,
		ProviderID:    &sub,
		EmailVerified: claims.EmailVerified,
	}
	if claims.Name != "" {
		name := claims.Name
		user.Name = &name
	}
	if err := users.Create(ctx, user); err != nil {
		// A concurrent first request may have created it
		if existing, getErr := users.GetByProviderID(ctx, claims.Sub); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	logger.Info("user_created", zap.String("user_id", user.ID.String()))
	return user, nil
}

func refreshProfile(user *models.User, claims *models.JWTClaims) bool {
	changed := false
	if claims.Email != "" && user.Email != claims.Email {
		user.Email = claims.Email
		changed = true
	}
	if claims.Name != "" && (user.Name == nil || *user.Name != claims.Name) {
		name := claims.Name
		user.Name = &name
		changed = true
	}
	if user.EmailVerified != claims.EmailVerified {
		user.EmailVerified = claims.EmailVerified
		changed = true
	}
	return changed
}
