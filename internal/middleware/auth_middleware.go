package middleware

import (
	"net/http"
	"strings"

	"tour_sales_backend/internal/models"
	"tour_sales_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const callerContextKey = "caller"

// AuthMiddleware creates a Gin middleware for JWT authentication. On success
// it stores the authenticated Caller in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format. Use Bearer <token>"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(callerContextKey, models.Caller{
			UserID:   claims.UserID,
			Username: claims.Username,
			FullName: claims.FullName,
			Role:     claims.Role,
		})

		c.Next()
	}
}

// CallerFromContext returns the authenticated caller set by AuthMiddleware.
func CallerFromContext(c *gin.Context) (models.Caller, bool) {
	value, exists := c.Get(callerContextKey)
	if !exists {
		return models.Caller{}, false
	}
	caller, ok := value.(models.Caller)
	return caller, ok
}

// RoleAuthMiddleware creates a Gin middleware for role-based authorization.
// It checks if the caller's role is one of the allowed roles.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFromContext(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Caller not found in context. Ensure AuthMiddleware runs first."})
			c.Abort()
			return
		}

		allowed := false
		for _, r := range allowedRoles {
			if strings.EqualFold(caller.Role, r) {
				allowed = true
				break
			}
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource. Required roles: " + strings.Join(allowedRoles, ", ")})
			c.Abort()
			return
		}

		c.Next()
	}
}
