package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fernwood-health/apothecary/internal/auth/service"
	"github.com/fernwood-health/apothecary/pkg/cookiex"
	"github.com/fernwood-health/apothecary/pkg/httpx"
	"github.com/fernwood-health/apothecary/pkg/slogx"
)

type VerifyCodeHandler struct {
	LoginService *service.LoginService
	Cookies      *cookiex.Manager
	Metrics      *Metrics
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ServeHTTP handles POST /verify-code. Acceptance issues the session that
// login withheld. The failure messages guide the user (retry vs request a
// new code) but an unknown email reads identically to a missing code.
func (h *VerifyCodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}
	if req.Email == "" || req.Code == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "email and code are required"})
		return
	}

	res, err := h.LoginService.CompleteVerification(ctx, req.Email, req.Code)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrCodeMismatch):
		h.Metrics.CountVerification("mismatch")
		httpx.WriteJSON(w, http.StatusUnauthorized, messageResponse{Message: "incorrect code"})
		return
	case errors.Is(err, service.ErrTooManyAttempts):
		h.Metrics.CountVerification("too_many_attempts")
		httpx.WriteJSON(w, http.StatusUnauthorized, messageResponse{Message: "too many attempts, request a new code"})
		return
	case errors.Is(err, service.ErrCodeNotFound):
		h.Metrics.CountVerification("not_found")
		httpx.WriteJSON(w, http.StatusUnauthorized, messageResponse{Message: "code expired or not found, request a new code"})
		return
	default:
		log.Error("verify code failed", "err", err)
		h.Metrics.CountVerification("error")
		httpx.WriteJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal server error"})
		return
	}

	h.Metrics.CountVerification("success")
	http.SetCookie(w, h.Cookies.Issue(res.Token))
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authenticatedResponse{
		Authenticated: true,
		User:          res.User,
	})
}
