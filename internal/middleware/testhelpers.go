package middleware

import (
	"context"

	"github.com/ticvision/ticvision/internal/models"
	"github.com/ticvision/ticvision/internal/request"
)

// SetUserInContext attaches user the same way Auth does.
// Exported so handler tests can simulate an authenticated request.
func SetUserInContext(ctx context.Context, user *models.User) context.Context {
	return request.WithUser(ctx, user)
}
