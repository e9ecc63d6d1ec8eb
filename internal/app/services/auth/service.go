// Package auth registers accounts and manages bearer sessions for guests and
// hosts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	domainauth "homio/internal/domain/auth"
	"homio/internal/domain/shared/fault"
	domainuser "homio/internal/domain/user"
)

const (
	minPasswordRunes  = 6
	maxPasswordRunes  = 100
	minNameRunes      = 2
	maxNameRunes      = 60
	defaultSessionTTL = 24 * time.Hour
	// decoyPassword is hashed once and compared against when the account does
	// not exist, so unknown emails cost as much as wrong passwords.
	decoyPassword = "homio-decoy-password"
)

var (
	ErrInvalidCredentials = fault.New(fault.ErrUnauthenticated, "auth: invalid credentials")
	ErrPasswordTooShort   = fault.New(fault.ErrValidation, "auth: password must be at least 6 characters")
	ErrPasswordTooLong    = fault.New(fault.ErrValidation, "auth: password must be at most 100 characters")
	ErrNameLength         = fault.New(fault.ErrValidation, "auth: name must be 2 to 60 characters")
	ErrSessionExpired     = fault.New(fault.ErrUnauthenticated, "auth: session expired")
	ErrMisconfigured      = errors.New("auth: service misconfigured")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Rehasher is implemented by hashers whose work factor can change between
// deployments. Stale hashes are upgraded on the next successful login.
type Rehasher interface {
	NeedsRehash(hash string) bool
}

type TokenGenerator interface {
	NewToken() (string, error)
}

type Service struct {
	Users      domainuser.Repository
	Sessions   domainauth.SessionStore
	Passwords  PasswordHasher
	Tokens     TokenGenerator
	SessionTTL time.Duration
	Clock      func() time.Time
	Logger     *slog.Logger

	decoyOnce sync.Once
	decoyHash string
}

type RegisterParams struct {
	Email    string
	Name     string
	Password string
	Role     string
}

type LoginParams struct {
	Email    string
	Password string
	Role     string
}

type AuthResult struct {
	User  *domainuser.User
	Token string
}

type ResolveResult struct {
	User    *domainuser.User
	Session *domainauth.Session
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	role, err := domainuser.ParseRole(params.Role)
	if err != nil {
		return nil, err
	}
	switch n := utf8.RuneCountInString(params.Password); {
	case n < minPasswordRunes:
		return nil, ErrPasswordTooShort
	case n > maxPasswordRunes:
		return nil, ErrPasswordTooLong
	}
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" {
		return nil, domainuser.ErrEmailRequired
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, domainuser.ErrNameRequired
	}
	if n := utf8.RuneCountInString(name); n < minNameRunes || n > maxNameRunes {
		return nil, ErrNameLength
	}
	switch _, err := s.Users.ByEmail(ctx, email, role); {
	case err == nil:
		return nil, domainuser.ErrEmailAlreadyUsed
	case !errors.Is(err, domainuser.ErrNotFound):
		return nil, err
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	user, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, user); err != nil {
		return nil, err
	}
	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log().InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return &AuthResult{User: user, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	role, err := domainuser.ParseRole(params.Role)
	if err != nil {
		return nil, err
	}
	user, err := s.Users.ByEmail(ctx, domainuser.NormalizeEmail(params.Email), role)
	switch {
	case errors.Is(err, domainuser.ErrNotFound):
		_ = s.Passwords.Compare(s.decoy(), params.Password)
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, err
	}
	if err := s.Passwords.Compare(user.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	s.upgradeHash(ctx, user, params.Password)
	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log().InfoContext(ctx, "user authenticated", "user_id", user.ID, "role", user.Role)
	return &AuthResult{User: user, Token: token}, nil
}

// Logout drops the session behind token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ready(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, domainauth.Token(token)); err != nil {
		return err
	}
	s.log().InfoContext(ctx, "session terminated")
	return nil
}

// ResolveToken maps a bearer token to its live session and account.
func (s *Service) ResolveToken(ctx context.Context, token string) (*ResolveResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainauth.ErrTokenRequired
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		_ = s.Sessions.Delete(ctx, session.Token)
		return nil, ErrSessionExpired
	}
	user, err := s.Users.ByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			_ = s.Sessions.Delete(ctx, session.Token)
			return nil, domainauth.ErrSessionNotFound
		}
		return nil, err
	}
	return &ResolveResult{User: user, Session: session}, nil
}

func (s *Service) issueSession(ctx context.Context, user *domainuser.User) (string, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return "", fmt.Errorf("auth: mint token: %w", err)
	}
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:  domainauth.Token(token),
		UserID: user.ID,
		Role:   user.Role,
		TTL:    ttl,
		Now:    s.now(),
	})
	if err != nil {
		return "", err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

// upgradeHash re-hashes password when the hasher's cost changed. Failures are
// logged; the login itself already succeeded.
func (s *Service) upgradeHash(ctx context.Context, user *domainuser.User, password string) {
	rehasher, ok := s.Passwords.(Rehasher)
	if !ok || !rehasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.Passwords.Hash(password)
	if err == nil {
		err = user.ReplacePasswordHash(hash, s.now())
	}
	if err == nil {
		err = s.Users.Save(ctx, user)
	}
	if err != nil {
		s.log().WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	s.log().InfoContext(ctx, "password hash upgraded", "user_id", user.ID)
}

func (s *Service) decoy() string {
	s.decoyOnce.Do(func() {
		s.decoyHash, _ = s.Passwords.Hash(decoyPassword)
	})
	return s.decoyHash
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) ready() error {
	var missing []string
	if s.Users == nil {
		missing = append(missing, "users")
	}
	if s.Sessions == nil {
		missing = append(missing, "sessions")
	}
	if s.Passwords == nil {
		missing = append(missing, "passwords")
	}
	if s.Tokens == nil {
		missing = append(missing, "tokens")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMisconfigured, strings.Join(missing, ", "))
	}
	return nil
}
