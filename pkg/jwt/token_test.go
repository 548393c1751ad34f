package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	secret := []byte("test-secret")

	t.Run("round trip", func(t *testing.T) {
		tok, err := Issue(secret, "2348031234567", RoleBuyer, time.Hour, time.Now())
		require.NoError(t, err)

		claims, err := Parse(secret, tok)
		require.NoError(t, err)
		assert.Equal(t, "2348031234567", claims.Subject)
		assert.Equal(t, RoleBuyer, claims.Role)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := Issue(secret, "u1", RoleAdmin, time.Hour, time.Now())
		require.NoError(t, err)
		_, err = Parse([]byte("other"), tok)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := Issue(secret, "u1", RoleAdmin, time.Minute, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		_, err = Parse(secret, tok)
		assert.ErrorIs(t, err, ErrExpired)
	})
}
