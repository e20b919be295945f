package middleware

import (
	"net/http"
	"strings"

	"github.com/docspot/docspot-api/internal/session"
)

// SessionAuth validates the bearer token, checks that the session has not
// been revoked, and attaches the session to the request context. A nil
// store skips the revocation check.
func SessionAuth(issuer *session.TokenIssuer, store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")

			sess, err := issuer.Parse(tokenString)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			active, err := store.Active(r.Context(), sess.TokenID)
			if err != nil {
				http.Error(w, "failed to validate session", http.StatusInternalServerError)
				return
			}
			if !active {
				http.Error(w, "session expired or revoked", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

// RequireRole rejects requests whose session is not one of the given roles.
// It must run after SessionAuth.
func RequireRole(roles ...session.Role) func(http.Handler) http.Handler {
	allowed := make(map[session.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				http.Error(w, "missing session", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[sess.Role]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelfOrAdmin rejects requests where the session user does not match
// the named URL parameter, unless the caller is an admin. It must run after
// SessionAuth.
func RequireSelfOrAdmin(param func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				http.Error(w, "missing session", http.StatusUnauthorized)
				return
			}
			if sess.Role != session.RoleAdmin && sess.UserID != param(r) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
