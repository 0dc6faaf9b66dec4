package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const visitorIssuer = "changekit"

// VisitorClaims identify an anonymous visitor
type VisitorClaims struct {
	jwt.RegisteredClaims
}

// VisitorTokens issues and verifies signed visitor identity tokens
type VisitorTokens struct {
	key      []byte
	duration time.Duration
	now      func() time.Time
}

func NewVisitorTokens(key []byte, duration time.Duration) *VisitorTokens {
	return &VisitorTokens{key: key, duration: duration, now: time.Now}
}

// Issue creates a token for a new visitor and returns it with the visitor ID
func (v *VisitorTokens) Issue() (token, visitorID string, err error) {
	visitorID = GenerateSessionID()
	token, err = v.Sign(visitorID)
	return token, visitorID, err
}

// Sign creates a token for an existing visitor ID
func (v *VisitorTokens) Sign(visitorID string) (string, error) {
	now := v.now()
	claims := VisitorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    visitorIssuer,
			Subject:   visitorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.duration)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign visitor token: %w", err)
	}
	return signed, nil
}

// Verify returns the visitor ID of a valid token
func (v *VisitorTokens) Verify(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(visitorIssuer),
		jwt.WithTimeFunc(v.now),
	)
	claims := &VisitorClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid visitor token: %w", err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", errors.New("invalid visitor token: malformed subject")
	}
	return claims.Subject, nil
}
