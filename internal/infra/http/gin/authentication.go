package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"homio/internal/app/services/auth"
	domainauth "homio/internal/domain/auth"
	domainuser "homio/internal/domain/user"
)

const (
	principalContextKey = "homio.principal"
	bearerScheme        = "bearer"
)

// principal is the authenticated caller of a request.
type principal struct {
	ID        string
	Email     string
	Name      string
	Role      domainuser.Role
	Token     string
	CreatedAt time.Time
}

func newPrincipal(u *domainuser.User, token string) principal {
	return principal{
		ID:        string(u.ID),
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Token:     token,
		CreatedAt: u.CreatedAt,
	}
}

// TokenResolver maps a bearer token to its account.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*auth.ResolveResult, error)
}

type AuthMiddleware struct {
	Resolver TokenResolver
	Logger   *slog.Logger
}

// Handle attaches the principal when a valid bearer token is present. Routes
// decide for themselves whether one is required, so an unknown token is
// treated like no token at all.
func (m AuthMiddleware) Handle(c *gin.Context) {
	defer c.Next()
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Resolver == nil {
		return
	}
	ctx := c.Request.Context()
	resolved, err := m.Resolver.ResolveToken(ctx, token)
	switch {
	case err == nil:
		c.Set(principalContextKey, newPrincipal(resolved.User, token))
	case !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil:
		m.Logger.DebugContext(ctx, "token validation failed", "error", err)
	}
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	p, ok := c.Value(principalContextKey).(principal)
	return p, ok
}

// requireRole aborts with 401 without a principal and 403 when role is set
// and differs from the principal's.
func requireRole(c *gin.Context, role domainuser.Role) (principal, bool) {
	p, ok := currentPrincipal(c)
	switch {
	case !ok:
		abortWith(c, http.StatusUnauthorized, "authentication required")
	case role != "" && p.Role != role:
		abortWith(c, http.StatusForbidden, "this action requires the "+string(role)+" role")
	default:
		return p, true
	}
	return principal{}, false
}

func abortWith(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// extractBearerToken returns the credentials of an "Authorization: Bearer x"
// header; the scheme is matched case-insensitively.
func extractBearerToken(header string) string {
	scheme, credentials, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}
	return strings.TrimSpace(credentials)
}
