package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Voltaic314/DataRoom/types/api"
)

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// FromContext returns the claims stored by Protect.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// IsAdmin reports whether the request context belongs to an admin.
func IsAdmin(ctx context.Context) bool {
	c, _ := FromContext(ctx)
	return c.IsAdmin()
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	// websocket clients cannot set headers
	return r.URL.Query().Get("token")
}

// Protect rejects requests without a valid bearer token. A missing or
// expired token is 401, any other failure 403.
func (t *Tokens) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			api.Unauthorized(w, "Unauthorized: token missing")
			return
		}
		claims, err := t.Parse(raw)
		switch {
		case errors.Is(err, ErrTokenExpired):
			api.Unauthorized(w, "Token expired")
			return
		case err != nil:
			api.Forbidden(w, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// Identify attaches the caller's claims when a valid bearer token is sent
// and otherwise lets the request through anonymously.
func (t *Tokens) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := bearerToken(r); raw != "" {
			if claims, err := t.Parse(raw); err == nil {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin must run after Protect.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			api.Forbidden(w, "Admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireOrganization must run after Protect.
func RequireOrganization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := FromContext(r.Context())
		if !ok || c.Type != TokenTypeOrganization {
			api.Forbidden(w, "Invalid token type. Organization token required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
