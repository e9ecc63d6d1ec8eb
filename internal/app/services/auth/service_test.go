package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	domainauth "homio/internal/domain/auth"
	"homio/internal/domain/shared/fault"
	domainuser "homio/internal/domain/user"
	"homio/internal/infra/security"
	"homio/internal/infra/storage/memory"
)

func newService() *Service {
	return &Service{
		Users:     memory.NewUserRepository(),
		Sessions:  memory.NewSessionStore(),
		Passwords: security.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens:    security.SessionTokens{},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterParams{Email: " Asha@Example.com ", Name: "Asha", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", reg.User.Email)
	assert.Equal(t, domainuser.RoleUser, reg.User.Role)
	assert.NotEmpty(t, reg.Token)

	login, err := svc.Login(ctx, LoginParams{Email: "asha@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	resolved, err := svc.ResolveToken(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, resolved.User.ID)
	assert.Equal(t, domainuser.RoleUser, resolved.Session.Role)

	require.NoError(t, svc.Logout(ctx, login.Token))
	_, err = svc.ResolveToken(ctx, login.Token)
	assert.ErrorIs(t, err, fault.ErrUnauthenticated)
}

func TestRegisterIsUniquePerEmailAndRole(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{Email: "ravi@example.com", Name: "Ravi", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterParams{Email: "RAVI@example.com", Name: "Ravi", Password: "password2"})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
	assert.ErrorIs(t, err, fault.ErrConflict)

	host, err := svc.Register(ctx, RegisterParams{Email: "ravi@example.com", Name: "Ravi", Password: "password3", Role: "host"})
	require.NoError(t, err)
	assert.Equal(t, domainuser.RoleHost, host.User.Role)

	// the traveler password does not open the host account
	_, err = svc.Login(ctx, LoginParams{Email: "ravi@example.com", Password: "password1", Role: "host"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginParams{Email: "ravi@example.com", Password: "password3", Role: "host"})
	assert.NoError(t, err)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{Email: "a@example.com", Name: "Ana", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = svc.Register(ctx, RegisterParams{Email: "a@example.com", Name: "Ana", Password: "longenough", Role: "admin"})
	assert.ErrorIs(t, err, domainuser.ErrInvalidRole)

	_, err = svc.Register(ctx, RegisterParams{Email: "", Name: "Ana", Password: "longenough"})
	assert.ErrorIs(t, err, fault.ErrValidation)

	_, err = svc.Register(ctx, RegisterParams{Email: "a@example.com", Name: "Ana", Password: strings.Repeat("p", 101)})
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	for _, name := range []string{" A ", strings.Repeat("n", 61)} {
		_, err = svc.Register(ctx, RegisterParams{Email: "a@example.com", Name: name, Password: "longenough"})
		assert.ErrorIs(t, err, ErrNameLength, name)
	}
}

func TestRegisterAcceptsBoundaryLengths(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterParams{Email: "jo@example.com", Name: " Jo ", Password: "six6ch"})
	require.NoError(t, err)
	assert.Equal(t, "Jo", reg.User.Name)

	_, err = svc.Register(ctx, RegisterParams{Email: "long@example.com", Name: strings.Repeat("n", 60), Password: "longenough"})
	assert.NoError(t, err)
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	_, err := newService().Login(context.Background(), LoginParams{Email: "ghost@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, fault.ErrUnauthenticated)
}

func TestResolveTokenExpiredSession(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	reg, err := svc.Register(ctx, RegisterParams{Email: "t@example.com", Name: "Tara", Password: "password1"})
	require.NoError(t, err)

	svc.Clock = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.ResolveToken(ctx, reg.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = svc.Sessions.Get(ctx, domainauth.Token(reg.Token))
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestLoginUpgradesStaleHash(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	reg, err := svc.Register(ctx, RegisterParams{Email: "h@example.com", Name: "Hari", Password: "password1", Role: "host"})
	require.NoError(t, err)
	oldHash := reg.User.PasswordHash

	svc.Passwords = security.BcryptHasher{Cost: bcrypt.MinCost + 1}
	_, err = svc.Login(ctx, LoginParams{Email: "h@example.com", Password: "password1", Role: "host"})
	require.NoError(t, err)

	stored, err := svc.Users.ByID(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, stored.PasswordHash)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)

	_, err = svc.Login(ctx, LoginParams{Email: "h@example.com", Password: "password1", Role: "host"})
	assert.NoError(t, err)
}

func TestServiceReportsMissingDependencies(t *testing.T) {
	_, err := (&Service{Users: memory.NewUserRepository()}).Login(context.Background(), LoginParams{Email: "x@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrMisconfigured)
	assert.Contains(t, err.Error(), "sessions, passwords, tokens")
}
