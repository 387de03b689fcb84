// Package token validates the bearer tokens staff clients present. Tokens
// are HMAC-signed; the subject identifies the actor for history attribution.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"reentry/internal/platform/middleware"
)

type actorClaims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type JWTValidator struct {
	key []byte
}

func NewJWTValidator(key []byte) *JWTValidator {
	return &JWTValidator{key: key}
}

func (v *JWTValidator) ValidateToken(tokenString string) (*middleware.Claims, error) {
	var claims actorClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return v.key, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return &middleware.Claims{
		ActorID:   claims.Subject,
		ActorName: claims.Name,
		Role:      claims.Role,
	}, nil
}

// Sign issues a token for an actor. Used by tests and local tooling; the
// production issuer lives outside this service.
func Sign(key []byte, actorID, actorName string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := actorClaims{
		Name: actorName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}
