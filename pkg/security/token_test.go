package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	s := NewTokenService("super-secret", time.Hour)

	token, err := s.Issue("yoda")
	require.NoError(t, err)

	subject, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "yoda", subject)
}

func TestTokenService_Expired(t *testing.T) {
	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	issuer := NewTokenService("super-secret", time.Hour).
		WithClock(func() time.Time { return issuedAt })

	token, err := issuer.Issue("yoda")
	require.NoError(t, err)

	// Same secret, clock moved past the expiry
	verifier := NewTokenService("super-secret", time.Hour).
		WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_BadSignature(t *testing.T) {
	issuer := NewTokenService("right-secret", time.Hour)

	token, err := issuer.Issue("yoda")
	require.NoError(t, err)

	verifier := NewTokenService("wrong-secret", time.Hour)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestTokenService_Malformed(t *testing.T) {
	s := NewTokenService("super-secret", time.Hour)

	_, err := s.Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = s.Verify("")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenService_EmptySubjectRejected(t *testing.T) {
	s := NewTokenService("super-secret", time.Hour)

	token, err := s.Issue("")
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
