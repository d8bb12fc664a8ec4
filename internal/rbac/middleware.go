// Package rbac guards HTTP routes with bearer tokens and authorization masks.
package rbac

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/odyssey-auth/internal/permission"
	"github.com/odyssey-erp/odyssey-auth/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-auth/internal/session"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
	"github.com/odyssey-erp/odyssey-auth/internal/token"
)

// Middleware wires token authentication and mask checks for HTTP handlers.
type Middleware struct {
	Tokens *token.Service
	Logger *slog.Logger
	Mode   permission.CheckMode
}

// Authenticate verifies the bearer token and stores its record in the request
// context. The session cache is not consulted.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := token.FromRequest(r)
		if err != nil {
			httpx.RespondError(w, r, shared.ErrUnauthorized)
			return
		}
		rec, ok := m.Tokens.Verify(raw)
		if !ok {
			httpx.RespondError(w, r, shared.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.ContextWithRecord(r.Context(), rec)))
	})
}

// RequireAccess ensures the authenticated record holds the permissions with
// the given ordinals, as judged by the configured check mode. It must run
// after Authenticate. Without ordinals it lets every request through.
func (m Middleware) RequireAccess(ordinals ...uint64) func(http.Handler) http.Handler {
	required := make([]uint64, 0, len(ordinals))
	for _, o := range ordinals {
		required = append(required, permission.Encode(o))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			rec := session.RecordFromContext(r.Context())
			if rec == nil {
				httpx.RespondError(w, r, shared.ErrUnauthorized)
				return
			}
			if m.Mode.Check(rec.Auth, required) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac access denied", slog.String("user", rec.UserName), slog.Uint64("auth", rec.Auth))
			}
			httpx.RespondError(w, r, shared.ErrForbidden)
		})
	}
}
