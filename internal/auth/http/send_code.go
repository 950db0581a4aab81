package http

import (
	"encoding/json"
	"net/http"

	"github.com/fernwood-health/apothecary/internal/auth/service"
	"github.com/fernwood-health/apothecary/pkg/httpx"
	"github.com/fernwood-health/apothecary/pkg/slogx"
)

type SendCodeHandler struct {
	LoginService *service.LoginService
}

type sendCodeRequest struct {
	Email string `json:"email"`
}

// ServeHTTP handles POST /send-code. The response is the same whether or
// not the email has an account, so the endpoint cannot be used to
// enumerate addresses.
func (h *SendCodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}
	if req.Email == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "email is required"})
		return
	}

	if err := h.LoginService.SendCode(ctx, req.Email); err != nil {
		log.Error("send code failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal server error"})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, codeSentResponse{Sent: true})
}
