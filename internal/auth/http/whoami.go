package http

import (
	"net/http"

	"github.com/fernwood-health/apothecary/internal/auth/domain"
	"github.com/fernwood-health/apothecary/pkg/httpx"
)

type WhoamiHandler struct{}

// ServeHTTP handles GET /whoami. SessionMiddleware has already verified
// the token by the time this runs; the claims are the response.
func (h *WhoamiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromCtx(r.Context())
	if !ok {
		// Unreachable behind SessionMiddleware, kept as a guard for
		// accidental unwrapped mounting.
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authenticatedResponse{
		Authenticated: true,
		User: domain.PublicUser{
			ID:          claims.Subject,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
			Role:        claims.Role,
		},
	})
}
