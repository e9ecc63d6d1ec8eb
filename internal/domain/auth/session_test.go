package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSession(CreateSessionParams{Token: "tok", UserID: "u1", Role: "user", TTL: time.Hour, Now: now})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)
	assert.False(t, s.Expired(now.Add(59*time.Minute)))
	assert.True(t, s.Expired(now.Add(time.Hour)))
}

func TestNewSessionValidation(t *testing.T) {
	_, err := NewSession(CreateSessionParams{UserID: "u1", TTL: time.Hour})
	assert.ErrorIs(t, err, ErrTokenRequired)
	_, err = NewSession(CreateSessionParams{Token: "t", TTL: time.Hour})
	assert.ErrorIs(t, err, ErrUserRequired)
	_, err = NewSession(CreateSessionParams{Token: "t", UserID: "u1"})
	assert.ErrorIs(t, err, ErrTTLInvalid)
}

func TestSessionRemaining(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSession(CreateSessionParams{Token: "  tok  ", UserID: "u1", TTL: 30 * time.Minute, Now: now})
	require.NoError(t, err)
	assert.Equal(t, Token("tok"), s.Token)
	assert.Equal(t, 10*time.Minute, s.Remaining(now.Add(20*time.Minute)))
	assert.Zero(t, s.Remaining(now.Add(2*time.Hour)))
	assert.True(t, Token(" ").Blank())
}
