package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/jwt"
)

// Context keys set by JWTAuthMiddleware
const (
	ContextUserID = "userID"
	ContextRole   = "userRole"
)

// JWTAuthMiddleware creates a gin middleware for JWT authentication.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		const BearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		if !strings.HasPrefix(authHeader, BearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer "})
			return
		}

		claims, err := jwt.Parse(secret, strings.TrimSpace(authHeader[len(BearerSchema):]))
		if err != nil {
			logger.FromContext(c.Request.Context()).Debug("token rejected", zap.Error(err))
			if errors.Is(err, jwt.ErrExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects requests whose token role is not one of roles. It must run
// after JWTAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

// UserID returns the authenticated user id
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
