package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Roles carried in the role claim
const (
	RoleBuyer   = "buyer"
	RoleGateway = "gateway"
	RoleAdmin   = "admin"
)

// ErrExpired is returned by Parse for a token past its exp claim
var ErrExpired = errors.New("token has expired")

// Claims are the claims issued to buyers, payment gateways and administrators.
// Subject holds the user id.
type Claims struct {
	Role string `json:"role"`
	jwtlib.RegisteredClaims
}

// Issue signs an HS256 token for subject.
func Issue(secret []byte, subject, role string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies an HMAC signed token and returns its claims.
func Parse(secret []byte, token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwtlib.ParseWithClaims(token, &claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return &claims, nil
}
