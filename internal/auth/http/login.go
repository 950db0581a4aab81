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

type LoginHandler struct {
	LoginService *service.LoginService
	Cookies      *cookiex.Manager
	Metrics      *Metrics
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeHTTP handles POST /login. A successful login either sets the
// session cookie immediately or parks the attempt behind an emailed
// verification code. Credential failures return 401 without revealing
// whether the email has an account.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "email and password are required"})
		return
	}

	res, err := h.LoginService.Login(ctx, req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		h.Metrics.CountLogin("invalid_credentials")
		httpx.WriteJSON(w, http.StatusUnauthorized, messageResponse{Message: "invalid email or password"})
		return
	case errors.Is(err, service.ErrAccountNotVerified):
		h.Metrics.CountLogin("not_verified")
		httpx.WriteJSON(w, http.StatusUnauthorized, messageResponse{Message: "account email is not verified"})
		return
	default:
		log.Error("login failed", "err", err)
		h.Metrics.CountLogin("error")
		httpx.WriteJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal server error"})
		return
	}

	if res.RequiresVerification {
		h.Metrics.CountLogin("requires_verification")
		httpx.WriteJSON(w, http.StatusOK, pendingVerificationResponse{RequiresVerification: true})
		return
	}

	h.Metrics.CountLogin("success")
	http.SetCookie(w, h.Cookies.Issue(res.Token))
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authenticatedResponse{
		Authenticated: true,
		User:          res.User,
	})
}
