package httpx

import (
	"net/http"
	"strings"

	"github.com/fernwood-health/apothecary/pkg/sessiontoken"
	"github.com/fernwood-health/apothecary/pkg/slogx"
)

// SessionMiddleware authenticates requests carrying a session token, read
// from the named cookie or from an Authorization bearer header as a
// fallback. The specific verification failure (malformed, bad signature,
// expired) is logged but never surfaced to the client, so responses cannot
// be used as a verification oracle.
func SessionMiddleware(codec *sessiontoken.Codec, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := extractToken(r, cookieName)
			if raw == "" {
				writeUnauthenticated(w)
				return
			}

			claims, err := codec.Verify(raw)
			if err != nil {
				log.Warn("session token rejected", "err", err)
				writeUnauthenticated(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithSession(ctx, claims)))
		})
	}
}

// extractToken pulls the raw token from the session cookie, falling back to
// an RFC 6750 style bearer header for non-browser clients.
func extractToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	}
	return ""
}

// writeUnauthenticated is the single 401 shape for every authentication
// failure on this middleware.
func writeUnauthenticated(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, map[string]any{
		"authenticated": false,
		"message":       "authentication required",
	})
}
