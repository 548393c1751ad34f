package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/jwt"
)

var secret = []byte("test-secret")

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/me", JWTAuthMiddleware(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "requestId": logger.RequestID(c.Request.Context())})
	})
	r.GET("/admin", JWTAuthMiddleware(secret), RequireRole(jwt.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func token(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := jwt.Issue(secret, "user-1", role, ttl, time.Now())
	require.NoError(t, err)
	return tok
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"expired", "Bearer " + token(t, jwt.RoleBuyer, -time.Minute), http.StatusUnauthorized},
		{"valid", "Bearer " + token(t, jwt.RoleBuyer, time.Hour), http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
		})
	}

	t.Run("subject and request id reach the handler", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, jwt.RoleBuyer, time.Hour))
		req.Header.Set(HeaderRequestID, "req-42")
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":"user-1","requestId":"req-42"}`, w.Body.String())
	})
}

func TestRequireRole(t *testing.T) {
	r := newRouter()
	for _, tc := range []struct {
		role   string
		status int
	}{
		{jwt.RoleAdmin, http.StatusNoContent},
		{jwt.RoleBuyer, http.StatusForbidden},
		{jwt.RoleGateway, http.StatusForbidden},
	} {
		t.Run(tc.role, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token(t, tc.role, time.Hour))
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
