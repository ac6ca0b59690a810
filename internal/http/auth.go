package http

import (
	"net/http"
	"strings"

	"fintrack/internal/identity"
	"fintrack/internal/log"
)

// ownerHandler is a handler that runs for an authenticated owner.
type ownerHandler func(w http.ResponseWriter, r *http.Request, ownerID int64)

// authed requires "Authorization: Bearer <token>" and passes the token's
// owner id to h.
func (s *Server) authed(h ownerHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			UnauthorizedError("missing token").Write(w)
			return
		}

		ownerID, err := s.svc.Identity.Authenticate(strings.TrimSpace(token))
		if err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).
				DebugContext(r.Context(), "Token rejected", log.NewFields().WithError(err).ToSlice()...)
			UnauthorizedError(identity.ErrInvalidToken.Error()).Write(w)
			return
		}

		ctx := log.NewContext(r.Context(), log.FromContext(r.Context()).With(log.FieldOwnerID, ownerID))
		h(w, r.WithContext(ctx), ownerID)
	})
}
