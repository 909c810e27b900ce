package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer is written into and required from every token.
const tokenIssuer = "art-market"

// DefaultTokenTTL is how long a signed login token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// TokenService signs and validates HS256 JWTs whose subject is an account ID.
//
// JWT STRUCTURE:
// header.payload.signature, each base64url encoded. The payload is readable
// by anyone; the signature only proves that we issued it. Never put secrets
// in claims.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService requires a secret of at least 16 characters.
// ttl <= 0 means DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Sign issues a token for accountID valid for the service's TTL.
func (s *TokenService) Sign(accountID string) (string, error) {
	return s.SignWithDuration(accountID, s.ttl)
}

// SignWithDuration issues a token with an explicit lifetime. A negative d
// produces an already-expired token, which tests use.
func (s *TokenService) SignWithDuration(accountID string, d time.Duration) (string, error) {
	now := time.Now()

	c := jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    tokenIssuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Parse validates tokenStr and returns the account ID in its subject.
//
// WithValidMethods pins HS256 so a token claiming "alg: none" or an
// asymmetric algorithm is rejected before the key is ever consulted.
func (s *TokenService) Parse(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid || c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}
	return c.Subject, nil
}
