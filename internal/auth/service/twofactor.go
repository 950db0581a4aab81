package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/fernwood-health/apothecary/internal/auth/domain"
	"github.com/fernwood-health/apothecary/internal/auth/store"
	"github.com/fernwood-health/apothecary/pkg/cryptox"
)

const (
	// DefaultCodeTTL bounds how long an emailed code stays redeemable.
	DefaultCodeTTL = 10 * time.Minute

	// DefaultMaxAttempts is the guess budget per issued code.
	DefaultMaxAttempts = 5

	emergencyCodeLength = 6
)

var (
	// ErrCodeNotFound means no live code exists for the email. Expired
	// codes look exactly like codes that were never issued.
	ErrCodeNotFound = errors.New("no verification code on record")

	// ErrCodeMismatch means the submitted code was wrong but attempts remain.
	ErrCodeMismatch = errors.New("verification code mismatch")

	// ErrTooManyAttempts means the guess budget is spent and the code
	// has been revoked. The user must request a fresh one.
	ErrTooManyAttempts = errors.New("too many verification attempts")
)

// TwoFactorService owns the email verification code lifecycle: issue,
// check, revoke. Codes are single use and attempt limited.
type TwoFactorService struct {
	Codes  store.VerificationCodes
	Logger *slog.Logger

	CodeTTL     time.Duration
	MaxAttempts int

	// EmergencySecret enables the break-glass daily code when non-empty.
	EmergencySecret string

	// Now overrides the clock in tests. Nil means time.Now.
	Now func() time.Time
}

func (s *TwoFactorService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TwoFactorService) codeTTL() time.Duration {
	if s.CodeTTL > 0 {
		return s.CodeTTL
	}
	return DefaultCodeTTL
}

func (s *TwoFactorService) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return DefaultMaxAttempts
}

// IssueCode generates a fresh 6-digit code for the email and stores it,
// replacing any previous code and resetting the attempt counter.
func (s *TwoFactorService) IssueCode(ctx context.Context, email string) (string, error) {
	code, err := cryptox.GenerateNumericCode(cryptox.VerificationCodeDigits)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}

	now := s.now().UTC()
	rec := domain.VerificationCode{
		Code:        code,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.codeTTL()),
		MaxAttempts: s.maxAttempts(),
	}
	if err := s.Codes.Put(ctx, email, rec); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}
	return code, nil
}

// VerifyCode checks a submitted code for the user. Acceptance order:
// the break-glass emergency code, the user's TOTP authenticator if
// enrolled, then the stored email code. A wrong guess burns one attempt
// and reads as a mismatch; once the budget is spent, the next submission
// is refused outright and the code revoked. Success revokes it too, so a
// code never redeems twice.
func (s *TwoFactorService) VerifyCode(ctx context.Context, user domain.User, code string) error {
	email := domain.NormalizeEmail(user.Email)

	if s.EmergencySecret != "" &&
		cryptox.ConstantTimeEquals(code, EmergencyCode(s.now(), s.EmergencySecret)) {
		s.Logger.Warn("emergency verification code used",
			"email", email,
			"user_id", user.ID,
		)
		_ = s.Codes.Delete(ctx, email)
		return nil
	}

	if user.TOTPSecret != nil && *user.TOTPSecret != "" && totp.Validate(code, *user.TOTPSecret) {
		_ = s.Codes.Delete(ctx, email)
		return nil
	}

	rec, err := s.Codes.Get(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCodeNotFound
		}
		return fmt.Errorf("load verification code: %w", err)
	}

	if rec.Attempts >= rec.MaxAttempts {
		_ = s.Codes.Delete(ctx, email)
		return ErrTooManyAttempts
	}

	if !cryptox.ConstantTimeEquals(code, rec.Code) {
		// Every wrong guess reads as a mismatch. The budget gate above
		// answers ErrTooManyAttempts on the submission after the last
		// allowed one, right code or not.
		if _, err := s.Codes.IncrementAttempts(ctx, email); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("count verification attempt: %w", err)
		}
		return ErrCodeMismatch
	}

	if err := s.Codes.Delete(ctx, email); err != nil {
		return fmt.Errorf("revoke verification code: %w", err)
	}
	return nil
}

// EmergencyCode derives the break-glass code for a given day. It rotates
// at UTC midnight and is only valid while the secret is configured.
func EmergencyCode(at time.Time, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(at.UTC().Format("2006-01-02")))
	sum := mac.Sum(nil)
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum)
	return encoded[:emergencyCodeLength]
}
