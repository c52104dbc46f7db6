// Package authn enforces bearer session tokens on HTTP routes.
package authn

import (
	"context"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

type ctxKey struct{}

// TokenVerifier resolves a session token to its user.
type TokenVerifier interface {
	Verify(token string) (core.User, error)
}

// Middleware rejects requests without a valid "Authorization: Bearer"
// token, except for paths for which public returns true. onDenied writes
// the rejection.
func Middleware(v TokenVerifier, public func(path string) bool, onDenied func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public != nil && public(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearerToken(r)
			if !ok {
				onDenied(w, r)
				return
			}
			u, err := v.Verify(token)
			if err != nil {
				onDenied(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func WithUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(core.User)
	return u, ok
}
