package sessiontoken

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the default session lifetime. Sessions are deliberately
// long-lived since there is no refresh-token mechanism; logout and expiry
// are the only ways a session ends.
const DefaultTTL = 7 * 24 * time.Hour

// Claims are the session-token claims. The payload is self-contained so a
// request can be authenticated without a database lookup.
type Claims struct {
	jwt.RegisteredClaims

	// Email is the account email the session was issued for.
	Email string `json:"email,omitempty"`

	// DisplayName is the user-facing name shown in the UI shell.
	DisplayName string `json:"name,omitempty"`

	// Role is the account role ("customer", "pharmacist", "admin").
	Role string `json:"role,omitempty"`
}

// NewClaims builds session claims for a subject. expiry is always
// strictly after issuedAt (ttl <= 0 falls back to DefaultTTL).
func NewClaims(
	subject, email, displayName, role string,
	issuer string,
	ttl time.Duration,
	now time.Time,
) Claims {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:       email,
		DisplayName: displayName,
		Role:        role,
	}
}
