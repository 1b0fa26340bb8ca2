package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lborres/bantay/core"
)

const MinSecretLength = 32

// TokenService issues and verifies stateless HS256 session tokens. The token
// binds only the subject id and expiry; roles are never embedded.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now for both issuing and verification.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret []byte, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, core.ErrSecretRequired
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w - minimum of %d characters", core.ErrSecretTooShort, MinSecretLength)
	}
	if ttl <= 0 {
		return nil, core.ErrInvalidTTL
	}

	s := &TokenService{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

func (s *TokenService) Issue(userID string) (string, *core.IdentityClaim, error) {
	if userID == "" {
		return "", nil, errors.New("cannot issue a token without a subject")
	}

	now := s.now()
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(s.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, &core.IdentityClaim{
		UserID:    userID,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

// Verify returns core.ErrTokenSignature, core.ErrTokenMalformed or
// core.ErrSessionExpired on failure. The signature is checked before expiry,
// so a tampered expired token reports a signature failure.
func (s *TokenService) Verify(token string) (*core.IdentityClaim, error) {
	if token == "" {
		return nil, core.ErrTokenMalformed
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, core.ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed) && parsed != nil && parsed.Method != nil:
		// header and claims decoded, so the signature segment is the
		// non-canonical one
		return nil, core.ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, core.ErrSessionExpired
	default:
		return nil, core.ErrTokenMalformed
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, core.ErrTokenMalformed
	}

	claim := &core.IdentityClaim{
		UserID:    claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		claim.IssuedAt = claims.IssuedAt.Time
	}
	return claim, nil
}
