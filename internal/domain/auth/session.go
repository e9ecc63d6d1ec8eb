// Package auth models bearer sessions issued after login or registration.
package auth

import (
	"context"
	"strings"
	"time"

	"homio/internal/domain/shared/fault"
	"homio/internal/domain/user"
)

var (
	ErrTokenRequired   = fault.New(fault.ErrUnauthenticated, "auth: token is required")
	ErrUserRequired    = fault.New(fault.ErrValidation, "auth: user is required")
	ErrTTLInvalid      = fault.New(fault.ErrValidation, "auth: ttl must be positive")
	ErrSessionNotFound = fault.New(fault.ErrUnauthenticated, "auth: session not found")
)

// Token is the opaque bearer value handed to clients.
type Token string

func (t Token) String() string { return string(t) }

// Blank reports whether t carries no usable characters.
func (t Token) Blank() bool { return strings.TrimSpace(string(t)) == "" }

// Session binds a token to an account and role until ExpiresAt.
type Session struct {
	Token     Token
	UserID    user.ID
	Role      user.Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

type CreateSessionParams struct {
	Token  Token
	UserID user.ID
	Role   user.Role
	TTL    time.Duration
	Now    time.Time
}

func (p CreateSessionParams) validate() error {
	switch {
	case p.Token.Blank():
		return ErrTokenRequired
	case strings.TrimSpace(string(p.UserID)) == "":
		return ErrUserRequired
	case p.TTL <= 0:
		return ErrTTLInvalid
	}
	return nil
}

func NewSession(params CreateSessionParams) (*Session, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	issued := utcOrNow(params.Now)
	return &Session{
		Token:     Token(strings.TrimSpace(string(params.Token))),
		UserID:    params.UserID,
		Role:      params.Role,
		CreatedAt: issued,
		ExpiresAt: issued.Add(params.TTL),
	}, nil
}

// Expired is true once at reaches ExpiresAt; the boundary itself counts as expired.
func (s *Session) Expired(at time.Time) bool {
	return s.Remaining(at) <= 0
}

// Remaining is the lifetime left at the given instant, never negative.
func (s *Session) Remaining(at time.Time) time.Duration {
	left := s.ExpiresAt.Sub(utcOrNow(at))
	if left < 0 {
		return 0
	}
	return left
}

func utcOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// SessionStore persists sessions keyed by token.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token Token) (*Session, error)
	Delete(ctx context.Context, token Token) error
}
