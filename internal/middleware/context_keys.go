package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// contextKey is a private key type to avoid collisions in context values.
type contextKey string

const (
	loggerCtxKey = contextKey("logger")
	userIDKey    = contextKey("userID")
	userRoleKey  = contextKey("userRole")
)

// RoleAdmin marks callers allowed to review withdrawals.
const RoleAdmin = "admin"

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		if v := c.Request.Context().Value(userIDKey); v != nil {
			return v.(string), true
		}
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		return "", false
	}
	return userID, true
}

// IsAdmin reports whether the authenticated caller carries the admin role.
func IsAdmin(c *gin.Context) bool {
	if v, exists := c.Get(string(userRoleKey)); exists {
		if role, ok := v.(string); ok {
			return role == RoleAdmin
		}
	}
	if v := c.Request.Context().Value(userRoleKey); v != nil {
		if role, ok := v.(string); ok {
			return role == RoleAdmin
		}
	}
	return false
}

// WithUserID returns a context carrying the given user ID. Used by tests and by
// non-HTTP entry points that reuse the service layer.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
