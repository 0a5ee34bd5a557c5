package auth

import (
	"context"
	"net/http"
)

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session the middleware put on the request, or nil
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// RequireAdmin lets through requests with an admin session; with roles given, the user's role must be one of them
func (m *Manager) RequireAdmin(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := m.FromRequest(r, KindAdmin)
			if err != nil {
				m.unauthorized(w, r, err)
				return
			}

			if len(roles) > 0 && !hasRole(s.Role, roles) {
				m.unauthorized(w, r, ErrForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RequireSeller lets through requests with a verified seller session
func (m *Manager) RequireSeller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.FromRequest(r, KindSeller)
		if err != nil {
			m.unauthorized(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
