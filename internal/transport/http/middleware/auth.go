package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shop-auth-api/internal/domain"
	"github.com/shop-auth-api/internal/infrastructure/token"
)

type contextKey string

const identityKey contextKey = "identity"

// minTokenLen is the shortest string that could possibly be a signed token.
// Anything shorter is rejected before signature verification or any store
// lookup is attempted.
const minTokenLen = 32

// Identity is the authenticated principal and its session, attached to the
// request context once every gate has passed.
type Identity struct {
	Principal *domain.Principal
	Session   *domain.Session
}

// TokenVerifier checks a token's signature and returns its claims.
type TokenVerifier interface {
	Verify(tokenStr string) (*token.Claims, error)
}

// SessionValidator applies the expiry policy and lazy deletion.
type SessionValidator interface {
	Validate(ctx context.Context, sessionID string) (*domain.Session, error)
}

// PrincipalGetter loads a principal from one credential-store partition.
type PrincipalGetter interface {
	Get(ctx context.Context, principalID string) (*domain.Principal, error)
}

// Auth returns the per-request gate: token extraction, signature check,
// session validation, principal load, restricted check. One instance per
// partition — the user router group and the admin group each get their own.
// On any failure the client-held cookie is cleared so a stale credential is
// not retried verbatim.
func Auth(codec TokenVerifier, sessions SessionValidator, principals PrincipalGetter, principalType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := ExtractToken(r)
			if len(tokenStr) < minTokenLen {
				unauthorized(w)
				return
			}
			claims, err := codec.Verify(tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}
			sess, err := sessions.Validate(r.Context(), claims.SessionID)
			if err != nil {
				unauthorized(w)
				return
			}
			if sess.PrincipalID != claims.PrincipalID || sess.PrincipalType != principalType {
				unauthorized(w)
				return
			}
			p, err := principals.Get(r.Context(), claims.PrincipalID)
			if err != nil || p.Restricted {
				unauthorized(w)
				return
			}
			sess.Principal = p
			ctx := context.WithValue(r.Context(), identityKey, &Identity{Principal: p, Session: sess})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken pulls the bearer token from the cookie, falling back to the
// Authorization header.
func ExtractToken(r *http.Request) string {
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// IdentityFromContext extracts the authenticated identity from the request context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

func unauthorized(w http.ResponseWriter) {
	ClearTokenCookie(w)
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}
