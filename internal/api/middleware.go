package api

import (
	"errors"
	"net/http"
	"strings"

	"alcyxob/material-approval/internal/access"
	"alcyxob/material-approval/internal/domain"
	"alcyxob/material-approval/internal/service"

	"github.com/gin-gonic/gin"
)

// Constants for context keys
const (
	ContextUserKey      = "user"
	ContextSessionIDKey = "sessionID"
)

// AuthMiddleware resolves the Bearer token to a live session and stores the
// identity in the context. Requests without a live session are rejected.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		user, sid, err := authService.ResolveSession(c.Request.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenExpired):
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			case errors.Is(err, service.ErrSessionNotFound):
				abortWithError(c, http.StatusUnauthorized, "Session has ended, please log in again")
			default:
				abortWithError(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextSessionIDKey, sid)
		c.Next()
	}
}

// RequireRoles gates a route with access.IsAllowed. An empty role list
// admits any authenticated session.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if !access.IsAllowed(user, roles) {
			if user == nil {
				abortWithError(c, http.StatusUnauthorized, "Authentication required")
				return
			}
			abortWithError(c, http.StatusForbidden, "Access denied: role '"+string(user.Role)+"' does not have permission")
			return
		}
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"message": message})
}

// currentUser returns the session identity, or nil outside AuthMiddleware.
func currentUser(c *gin.Context) *domain.User {
	raw, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, _ := raw.(*domain.User)
	return user
}

func currentSessionID(c *gin.Context) string {
	return c.GetString(ContextSessionIDKey)
}
