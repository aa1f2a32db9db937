package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/ports"
)

// JWTVerifier validates HS256 guard tokens minted by the auth backend.
// The shared secret is held at adapter level so the application layer stays
// crypto-library agnostic.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier builds a verifier from the configured shared secret.
func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("guard token secret is required")
	}
	return &JWTVerifier{secret: []byte(secret)}, nil
}

type guardJWTClaims struct {
	PrincipalID string `json:"principal_id"`
	Email       string `json:"email"`
	SessionID   string `json:"session_id"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) Sign(claims ports.AuthClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, guardJWTClaims{
		PrincipalID: claims.PrincipalID,
		Email:       claims.Email,
		SessionID:   claims.SessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	return token.SignedString(v.secret)
}

func (v *JWTVerifier) ParseAndValidate(raw string) (ports.AuthClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &guardJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return ports.AuthClaims{}, err
	}
	claims, ok := parsed.Claims.(*guardJWTClaims)
	if !ok || !parsed.Valid {
		return ports.AuthClaims{}, errors.New("invalid token claims")
	}
	if claims.PrincipalID == "" {
		return ports.AuthClaims{}, errors.New("token missing principal_id")
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return ports.AuthClaims{}, fmt.Errorf("parse session_id: %w", err)
	}

	return ports.AuthClaims{
		PrincipalID: claims.PrincipalID,
		Email:       claims.Email,
		SessionID:   sessionID,
		IssuedAt:    claims.IssuedAt.Time.UTC(),
		ExpiresAt:   claims.ExpiresAt.Time.UTC(),
	}, nil
}
