// Package token issues and validates the JWT access tokens handed out by the
// auth endpoints. Every access token carries a session_id claim referencing a
// sessions row; middleware rejects tokens whose session no longer exists.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "securevault"

var ErrInvalidToken = errors.New("invalid access token")

// Claims are the custom claims embedded in every access token.
type Claims struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// Provider signs and parses access tokens with a shared HMAC secret.
type Provider struct {
	secret []byte
	ttl    time.Duration
}

func NewProvider(secret string, ttl time.Duration) *Provider {
	return &Provider{secret: []byte(secret), ttl: ttl}
}

// TTL returns the access token lifetime.
func (p *Provider) TTL() time.Duration {
	return p.ttl
}

// Issue creates a signed access token for the given user and session.
func (p *Provider) Issue(userID, sessionID, email string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(p.ttl)

	claims := Claims{
		SessionID: sessionID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates the signature, issuer, and expiry of an access token and
// returns its claims. Returns ErrInvalidToken for anything unverifiable.
func (p *Provider) Parse(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
