package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fernwood-health/apothecary/internal/auth/domain"
	"github.com/fernwood-health/apothecary/internal/auth/store"
	"github.com/fernwood-health/apothecary/pkg/sessiontoken"
)

// LoginService drives the login flow end to end: credential check, the
// optional email verification step, and session token issuance. No token
// exists until every required step has passed.
type LoginService struct {
	Credentials *CredentialService
	TwoFactor   *TwoFactorService
	Mailer      Mailer
	Users       store.Users
	Codec       *sessiontoken.Codec
	Logger      *slog.Logger

	Issuer   string
	TokenTTL time.Duration
}

// Login checks the credentials and either issues a session immediately
// or parks the login behind an emailed verification code. A mail delivery
// failure surfaces as an error, but the stored code survives so the user
// can ask for a resend.
func (s *LoginService) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	user, err := s.Credentials.Authenticate(ctx, email, password)
	if err != nil {
		return domain.LoginResult{}, err
	}

	if !user.TwoFactorEnabled {
		return s.issueSession(user)
	}

	code, err := s.TwoFactor.IssueCode(ctx, user.Email)
	if err != nil {
		return domain.LoginResult{}, err
	}
	if err := s.Mailer.SendVerificationCode(ctx, user.Email, code); err != nil {
		return domain.LoginResult{}, fmt.Errorf("send verification code: %w", err)
	}

	return domain.LoginResult{RequiresVerification: true}, nil
}

// SendCode issues a fresh verification code for the email, replacing any
// outstanding one. Unknown emails are a silent success so the endpoint
// cannot be used to probe which addresses hold accounts.
func (s *LoginService) SendCode(ctx context.Context, email string) error {
	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Logger.Debug("verification code requested for unknown email", "email", domain.NormalizeEmail(email))
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	code, err := s.TwoFactor.IssueCode(ctx, user.Email)
	if err != nil {
		return err
	}
	if err := s.Mailer.SendVerificationCode(ctx, user.Email, code); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}
	return nil
}

// CompleteVerification redeems a verification code and, on success,
// issues the session withheld at login. An unknown email reads the same
// as a missing code.
func (s *LoginService) CompleteVerification(ctx context.Context, email, code string) (domain.LoginResult, error) {
	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResult{}, ErrCodeNotFound
		}
		return domain.LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.TwoFactor.VerifyCode(ctx, user, code); err != nil {
		return domain.LoginResult{}, err
	}

	return s.issueSession(user)
}

func (s *LoginService) issueSession(user domain.User) (domain.LoginResult, error) {
	claims := sessiontoken.NewClaims(
		user.ID,
		user.Email,
		user.DisplayName,
		user.Role,
		s.Issuer,
		s.TokenTTL,
		time.Now(),
	)
	token, err := s.Codec.Issue(claims)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("issue session token: %w", err)
	}
	return domain.LoginResult{Token: token, User: user.Public()}, nil
}
