package handlers

import (
	"context"

	"github.com/fluentpal/fluentpal/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// SetUserInContext attaches the authenticated user for downstream handlers.
func SetUserInContext(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the authenticated user, or nil when the request
// carried no valid session.
func GetUserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}
