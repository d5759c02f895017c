package middleware

import (
	"net/http"
	"strings"

	"skbeauty-be/internal/logger"
	"skbeauty-be/internal/user"
	"skbeauty-be/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware parses the Bearer token when present and stores the user's
// identity in the request context. It never rejects by itself; RequireAuth and
// RequireAdmin gate the protected route groups.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := user.ParseJWT(jwtSecret, tokenStr)
		if err != nil {
			c.Next()
			return
		}

		ctx := utils.SetUserContext(
			c.Request.Context(),
			claims.UserID, claims.Username, claims.Email, claims.IsStaff,
		)
		ctx = logger.WithUserID(ctx, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireAuth rejects requests that did not carry a valid token.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIDFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required."})
			return
		}
		c.Next()
	}
}

// IsAdmin is the single authorization predicate for admin endpoints: staff flag
// or the distinguished admin username.
func IsAdmin(isStaff bool, username, adminUsername string) bool {
	return isStaff || username == adminUsername
}

// RequireAdmin rejects callers that fail the IsAdmin predicate.
func RequireAdmin(adminUsername string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if _, ok := utils.GetUserIDFromContext(ctx); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required."})
			return
		}
		if !IsAdmin(utils.GetIsStaffFromContext(ctx), utils.GetUsernameFromContext(ctx), adminUsername) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized. Admin access required."})
			return
		}
		c.Next()
	}
}
