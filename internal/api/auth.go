package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of service bearer tokens
const DefaultTokenTTL = 5 * time.Minute

// TokenIssuer is the iss claim of service bearer tokens
const TokenIssuer = "resume-matcher"

// TokenSigner mints short-lived HS256 bearer tokens for the analysis service
type TokenSigner struct {
	secret   []byte
	clientID string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenSigner creates a signer. The client ID becomes the token subject.
func NewTokenSigner(secret, clientID string) (*TokenSigner, error) {
	if secret == "" {
		return nil, fmt.Errorf("service secret is required")
	}
	if clientID == "" {
		clientID = TokenIssuer
	}
	return &TokenSigner{
		secret:   []byte(secret),
		clientID: clientID,
		ttl:      DefaultTokenTTL,
		now:      time.Now,
	}, nil
}

// Sign returns a fresh signed token
func (s *TokenSigner) Sign() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    TokenIssuer,
		Subject:   s.clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
