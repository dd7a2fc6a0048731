package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Sonukamble/TodoApp/internal/auth"
	"github.com/Sonukamble/TodoApp/internal/models"
	"go.uber.org/zap"
)

// IdentityResolver resolves the caller of a request from its session cookie.
//
// It returns nil identity and nil error for an anonymous request,
// and an error matching models.ErrInvalidToken for a rejected token.
type IdentityResolver interface {
	ResolveRequest(r *http.Request) (*auth.Identity, error)
}

// SessionGate lets authenticated requests through and redirects everything else to the login page
type SessionGate struct {
	resolver     IdentityResolver
	loginPath    string
	secureCookie bool
	logger       *zap.Logger
}

// NewSessionGate creates a new session gate
func NewSessionGate(resolver IdentityResolver, loginPath string, secureCookie bool, logger *zap.Logger) *SessionGate {
	return &SessionGate{
		resolver:     resolver,
		loginPath:    loginPath,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Guard returns the caller's identity.
// When there is none, Guard has already written a redirect to the login page and returns false.
func (g *SessionGate) Guard(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, err := g.resolver.ResolveRequest(r)
	switch {
	case err == nil && identity != nil:
		return identity, true
	case err == nil:
		// Anonymous access
	case errors.Is(err, models.ErrInvalidToken):
		g.logger.Debug("rejected session token",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		http.SetCookie(w, auth.ExpiredSessionCookie(g.secureCookie))
	default:
		g.logger.Error("failed to resolve session",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
	}

	http.Redirect(w, r, g.loginPath, http.StatusFound)
	return nil, false
}

// Middleware guards every route of the wrapped handler and stores the identity in the request context
func (g *SessionGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := g.Guard(w, r)
		if !ok {
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity retrieves the caller's identity from context
func GetIdentity(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*auth.Identity)
	return identity, ok && identity != nil
}
