package http

import "github.com/fernwood-health/apothecary/internal/auth/domain"

type messageResponse struct {
	Message string `json:"message"`
}

type authenticatedResponse struct {
	Authenticated bool              `json:"authenticated"`
	User          domain.PublicUser `json:"user"`
}

type pendingVerificationResponse struct {
	RequiresVerification bool `json:"requiresVerification"`
}

type codeSentResponse struct {
	Sent bool `json:"sent"`
}
