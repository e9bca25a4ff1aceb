package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the resolved caller: a stable opaque user ID plus the
// sign-in provider it came from. Tokens are issued by the OAuth
// front-end; this service only verifies them.
type Identity struct {
	UserID   string
	Provider string
}

const (
	ProviderGoogle    = "google"
	ProviderAnonymous = "anonymous"
)

type SessionClaims struct {
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a session token, returning the identity it
// carries. Only HS256 is accepted.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	var claims SessionClaims

	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parsing session token: %w", err)
	}

	if claims.Subject == "" {
		return nil, errors.New("session token missing subject")
	}

	provider := claims.Provider
	if provider == "" {
		provider = ProviderAnonymous
	}

	return &Identity{UserID: claims.Subject, Provider: provider}, nil
}
