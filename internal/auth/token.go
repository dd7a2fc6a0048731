// Package auth issues and verifies session tokens and hashes passwords
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Sonukamble/TodoApp/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the cookie carrying the session token
const CookieName = "access_token"

// Claims is the payload of a session token.
// The subject claim carries the username.
type Claims struct {
	UserID *int   `json:"id,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the caller resolved from a valid session token
type Identity struct {
	Username  string
	UserID    int
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

// TokenIssuer signs session tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer with the default token lifetime
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the default token lifetime
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

// Issue signs a token for the user with the default lifetime
func (ti *TokenIssuer) Issue(username string, userID int, role models.Role) (string, *Claims, error) {
	return ti.IssueWithTTL(username, userID, role, ti.ttl)
}

// IssueWithTTL signs a token for the user that expires ttl from now
func (ti *TokenIssuer) IssueWithTTL(username string, userID int, role models.Role, ttl time.Duration) (string, *Claims, error) {
	if ttl <= 0 {
		return "", nil, fmt.Errorf("token ttl must be positive")
	}

	now := ti.now()
	id := userID
	claims := &Claims{
		UserID: &id,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, claims, nil
}

// RevocationChecker reports whether a token id was revoked before its expiry
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenVerifier resolves session tokens into identities
type TokenVerifier struct {
	secret  []byte
	revoked RevocationChecker
	now     func() time.Time
}

// NewTokenVerifier creates a token verifier. revoked may be nil.
func NewTokenVerifier(secret string, revoked RevocationChecker) *TokenVerifier {
	return &TokenVerifier{
		secret:  []byte(secret),
		revoked: revoked,
		now:     time.Now,
	}
}

// Resolve validates a token and returns the identity it carries.
//
// An empty token is anonymous access: nil identity and nil error.
// A token that fails signature, expiry, format or revocation checks returns an error matching models.ErrInvalidToken.
// A valid token without the subject or id claim is treated as anonymous.
func (tv *TokenVerifier) Resolve(ctx context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tv.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tv.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, models.ErrInvalidToken
	}

	if claims.Subject == "" || claims.UserID == nil {
		return nil, nil
	}

	if tv.revoked != nil && claims.ID != "" {
		revoked, err := tv.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", models.ErrInvalidToken)
		}
	}

	return &Identity{
		Username:  claims.Subject,
		UserID:    *claims.UserID,
		Role:      models.Role(claims.Role),
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ResolveRequest resolves the identity carried by the request's session cookie
func (tv *TokenVerifier) ResolveRequest(r *http.Request) (*Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidToken, err)
	}
	return tv.Resolve(r.Context(), cookie.Value)
}
