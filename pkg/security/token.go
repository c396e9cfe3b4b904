package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMalformed    = errors.New("token is malformed")
	ErrTokenBadSignature = errors.New("token signature is invalid")
	ErrTokenExpired      = errors.New("token is expired")
)

// TokenService issues and verifies signed bearer tokens. It is stateless:
// validity is a pure function of the signature, the expiry claim and the
// clock, there is no revocation list.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the wall clock, used by tests to fake expiry
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue signs a new HS256 token binding subject and an absolute expiry
// of now + the configured TTL
func (s *TokenService) Issue(subject string) (string, error) {
	now := s.now()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})

	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token, %w", err)
	}

	return signed, nil
}

// Verify checks signature and expiry and returns the subject the token was
// issued for. Any failure is terminal, there is no partial trust.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		default:
			return "", ErrTokenBadSignature
		}
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrTokenMalformed
	}

	return claims.Subject, nil
}
