package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
)

type rolesKey struct{}

// Admin checks for the 'admin' role in an OAuth token.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), Claims, admin).Handler(next)
	}
}

// OptionalBearer validates the bearer token when one is sent, and lets
// anonymous requests through untouched.
func OptionalBearer(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authorized := chi.Chain(oauth.Authorize(secret, nil), Claims).Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			authorized.ServeHTTP(w, r)
		})
	}
}

// Claims copies the token's roles and subject into the request context.
func Claims(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)
		ctx := context.WithValue(r.Context(), rolesKey{}, principal{
			user:  claims["sub"],
			roles: splitRoles(claims["roles"]),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type principal struct {
	user  string
	roles []string
}

func splitRoles(claim string) []string {
	var roles []string
	for _, role := range strings.Split(claim, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

// Roles returns the roles of the authenticated caller, nil when anonymous.
func Roles(r *http.Request) []string {
	p, _ := r.Context().Value(rolesKey{}).(principal)
	return p.roles
}

// User returns the authenticated username, "" when anonymous.
func User(r *http.Request) string {
	p, _ := r.Context().Value(rolesKey{}).(principal)
	return p.user
}

// HasAnyRole reports whether the caller holds at least one of allowed.
func HasAnyRole(r *http.Request, allowed []string) bool {
	for _, have := range Roles(r) {
		for _, want := range allowed {
			if have == want {
				return true
			}
		}
	}
	return false
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !HasAnyRole(r, []string{"admin"}) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
