package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fernwood-health/apothecary/internal/auth/domain"
	"github.com/fernwood-health/apothecary/internal/auth/store"
	"github.com/fernwood-health/apothecary/pkg/cryptox"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// Callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrAccountNotVerified = errors.New("account email not verified")
)

// dummyHash is a well-formed Argon2id hash of nothing in particular. It
// keeps the unknown-email path doing the same KDF work as a real check.
const dummyHash = "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$" +
	"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// CredentialService checks email/password pairs against the user store.
type CredentialService struct {
	Users store.Users
}

// Authenticate resolves the email and verifies the password. Unknown
// email and password mismatch both come back as ErrInvalidCredentials.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(password, dummyHash)
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("verify password: %w", err)
	}

	if !user.EmailVerified {
		return domain.User{}, ErrAccountNotVerified
	}

	return user, nil
}
