package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-botlist-server/guard"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyIdentity stores the *guard.Identity established for the request
const ContextKeyIdentity ContextKey = "identity"

// RequireAuth authenticates the request against op and stores the identity in
// the request context. Public operations get a StrategyNone identity.
func (s *Server) RequireAuth(op guard.Operation) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identity, err := s.deps.Guard.Authenticate(r.Context(), op, r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next(w, r.WithContext(ctx))
		}
	}
}

// IdentityFromContext returns the identity stored by RequireAuth, or nil.
func IdentityFromContext(ctx context.Context) *guard.Identity {
	identity, _ := ctx.Value(ContextKeyIdentity).(*guard.Identity)
	return identity
}
