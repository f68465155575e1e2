// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token configuration.
const (
	TokenTTL  = 14 * 24 * time.Hour
	TokenType = "Bearer"
)

// ErrEmptySigningSecret is returned when the signing secret is missing. It is
// a startup configuration error, never a request error.
var ErrEmptySigningSecret = errors.New("signing secret cannot be empty")

// SigningSecret is the process-wide HMAC key. It is constructed once at
// startup and never changes afterwards.
type SigningSecret struct {
	key []byte
}

// NewSigningSecret copies key into an immutable SigningSecret.
func NewSigningSecret(key []byte) (SigningSecret, error) {
	if len(key) == 0 {
		return SigningSecret{}, oops.Code("CONFIG_INVALID").Wrap(ErrEmptySigningSecret)
	}
	return SigningSecret{key: append([]byte(nil), key...)}, nil
}

// IsZero reports whether the secret was never initialised.
func (s SigningSecret) IsZero() bool {
	return len(s.key) == 0
}

// String redacts the key.
func (s SigningSecret) String() string {
	return "[REDACTED]"
}

// IdentityClaims is the verified payload of a signed token.
type IdentityClaims struct {
	Subject   int64
	Label     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SignedToken is what a successful login returns to the client.
type SignedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"-"`
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(userID int64, label string) (SignedToken, error)
}

// TokenVerifier turns a token string back into claims.
type TokenVerifier interface {
	Verify(token string) (*IdentityClaims, error)
}

// tokenClaims is the JWT payload. sub is numeric, so RegisteredClaims
// (string subject) cannot be embedded.
type tokenClaims struct {
	Sub   int64            `json:"sub"`
	Label string           `json:"label"`
	Exp   *jwt.NumericDate `json:"exp"`
	Iat   *jwt.NumericDate `json:"iat,omitempty"`
	Jti   string           `json:"jti,omitempty"`
}

func (c tokenClaims) GetExpirationTime() (*jwt.NumericDate, error) { return c.Exp, nil }
func (c tokenClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.Iat, nil }
func (c tokenClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c tokenClaims) GetIssuer() (string, error)                   { return "", nil }
func (c tokenClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }
func (c tokenClaims) GetSubject() (string, error) {
	return strconv.FormatInt(c.Sub, 10), nil
}

// TokenService signs and verifies HS256 identity tokens.
type TokenService struct {
	secret SigningSecret
	now    func() time.Time
	ttl    time.Duration
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the wall clock. Used by tests to mint expired tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a TokenService bound to secret.
func NewTokenService(secret SigningSecret, opts ...TokenOption) (*TokenService, error) {
	if secret.IsZero() {
		return nil, oops.Code("CONFIG_INVALID").Wrap(ErrEmptySigningSecret)
	}
	s := &TokenService{
		secret: secret,
		now:    time.Now,
		ttl:    TokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for userID that expires TokenTTL from now.
func (s *TokenService) Issue(userID int64, label string) (SignedToken, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := tokenClaims{
		Sub:   userID,
		Label: label,
		Exp:   jwt.NewNumericDate(expiresAt),
		Iat:   jwt.NewNumericDate(now),
		Jti:   ulid.Make().String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret.key)
	if err != nil {
		return SignedToken{}, wrapError(KindTokenCreation, err, "operation", "sign token", "user_id", userID)
	}

	return SignedToken{
		AccessToken: signed,
		TokenType:   TokenType,
		ExpiresAt:   claims.Exp.Time,
	}, nil
}

// Verify checks the token's signature and expiry. Malformed input, a bad
// signature and expiry all produce the same InvalidToken kind.
func (s *TokenService) Verify(token string) (*IdentityClaims, error) {
	if token == "" {
		return nil, newError(KindInvalidToken, "invalid token")
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, wrapError(KindInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, newError(KindInvalidToken, "invalid token")
	}

	id := &IdentityClaims{
		Subject:   claims.Sub,
		Label:     claims.Label,
		TokenID:   claims.Jti,
		ExpiresAt: claims.Exp.Time,
	}
	if claims.Iat != nil {
		id.IssuedAt = claims.Iat.Time
	}
	return id, nil
}

var (
	_ TokenIssuer   = (*TokenService)(nil)
	_ TokenVerifier = (*TokenService)(nil)
)
