package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/ports"
)

// TokenClaims is the payload of every token this service mints.
// Access and refresh tokens share this shape; only their lifetime differs.
type TokenClaims struct {
	Identity string `json:"identity"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies identity tokens with a server-held secret.
// It is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewTokenCodec builds a codec for the given HMAC algorithm (HS256, HS384 or HS512).
func NewTokenCodec(secret, algorithm string) (*TokenCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token codec: empty secret")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("token codec: unsupported algorithm %q", algorithm)
	}
	return &TokenCodec{secret: []byte(secret), method: method, now: time.Now}, nil
}

// Issue returns a signed token for identity that expires ttl from now.
func (c *TokenCodec) Issue(identity string, ttl time.Duration) (string, error) {
	claims := TokenClaims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(c.now().Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// IssuePair mints an access and a refresh token for the same identity.
func (c *TokenCodec) IssuePair(identity string, accessTTL, refreshTTL time.Duration) (ports.TokenPair, error) {
	access, err := c.Issue(identity, accessTTL)
	if err != nil {
		return ports.TokenPair{}, err
	}
	refresh, err := c.Issue(identity, refreshTTL)
	if err != nil {
		return ports.TokenPair{}, err
	}
	return ports.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
// Any failure yields domain.ErrInvalidToken, whatever the cause.
func (c *TokenCodec) Verify(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid || claims.Identity == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// Expiry returns the absolute expiry instant carried by the claims.
func (tc *TokenClaims) Expiry() time.Time {
	if tc.ExpiresAt == nil {
		return time.Time{}
	}
	return tc.ExpiresAt.Time
}
