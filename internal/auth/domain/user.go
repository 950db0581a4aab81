package domain

import "time"

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string // argon2 encoded
	Role         string // "customer", "pharmacist", "admin"

	// EmailVerified gates login; accounts must confirm their address first.
	EmailVerified bool

	// TwoFactorEnabled requires an emailed code (or enrolled TOTP) before a
	// session is issued.
	TwoFactorEnabled bool

	// TOTPSecret is set when the user enrolled an authenticator app
	// (nullable, base32 encoded). Enrollment is managed elsewhere; login
	// only honors it.
	TOTPSecret *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the user payload returned to authenticated clients. It
// never carries credential material.
type PublicUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}
