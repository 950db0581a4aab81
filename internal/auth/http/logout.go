package http

import (
	"net/http"

	"github.com/fernwood-health/apothecary/pkg/cookiex"
	"github.com/fernwood-health/apothecary/pkg/httpx"
)

type LogoutHandler struct {
	Cookies *cookiex.Manager
}

// ServeHTTP handles POST /logout. It never fails and never requires a
// valid session: every call emits the full cookie deletion matrix so a
// stale cookie is cleared no matter which attribute combination set it.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, c := range h.Cookies.DeleteMatrix() {
		http.SetCookie(w, c)
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}
