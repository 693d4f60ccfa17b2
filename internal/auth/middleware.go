package auth

import (
	"context"
	"net/http"
	"time"
)

type contextKey string

// OrganizerIDKey carries the authenticated organizer's id through the
// request context.
const OrganizerIDKey contextKey = "organizer_id"

// RequireOrganizer rejects requests without a valid session cookie. Gated
// operations compose this guard explicitly in the router; nothing is gated
// implicitly.
func (h *Handler) RequireOrganizer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(cookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "autenticação necessária")
			return
		}

		organizerID, exp, err := h.parseToken(cookie.Value)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "sessão inválida ou expirada")
			return
		}

		// Sliding session: reissue once the token is past half its lifetime.
		if !exp.IsZero() && time.Until(exp) < TokenDuration/2 {
			if token, err := h.GenerateToken(organizerID); err == nil {
				http.SetCookie(w, sessionCookie(token, time.Now().Add(TokenDuration)))
			}
		}

		ctx := context.WithValue(r.Context(), OrganizerIDKey, organizerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
