// Package auth issues and verifies the bearer tokens that identify the user
// acting on a trip. Tokens are HS256 JWTs carrying the user id.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or signed
// with a different secret.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims understood by the trip planner.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Verifier signs and checks tokens with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier returns a Verifier using secret as the HMAC key.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Issue returns a signed token for userID that expires after ttl.
func (v *Verifier) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("auth.Verifier.Issue: empty user id")
	}
	now := v.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth.Verifier.Issue: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and returns the user id it was issued for.
func (v *Verifier) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("auth.Verifier.Verify: %w", ErrInvalidToken)
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("auth.Verifier.Verify: %w: no user id", ErrInvalidToken)
	}
	return claims.UserID, nil
}
