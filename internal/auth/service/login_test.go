package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fernwood-health/apothecary/internal/auth/store/drivers/memory"
	"github.com/fernwood-health/apothecary/pkg/sessiontoken"
)

type captureMailer struct {
	sent []string // codes in delivery order
	fail error
}

func (m *captureMailer) SendVerificationCode(_ context.Context, _ string, code string) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, code)
	return nil
}

func newLoginFixture(t *testing.T) (*LoginService, *memory.Users, *memory.Codes, *captureMailer) {
	t.Helper()

	users := memory.NewUsers()
	codes := memory.NewCodes()
	mailer := &captureMailer{}

	codec := sessiontoken.NewCodec([]byte("0123456789abcdef0123456789abcdef"), "apothecary-auth")
	svc := &LoginService{
		Credentials: &CredentialService{Users: users},
		TwoFactor: &TwoFactorService{
			Codes:       codes,
			Logger:      discardLogger(),
			CodeTTL:     10 * time.Minute,
			MaxAttempts: 5,
		},
		Mailer:   mailer,
		Users:    users,
		Codec:    codec,
		Logger:   discardLogger(),
		Issuer:   "apothecary-auth",
		TokenTTL: time.Hour,
	}
	return svc, users, codes, mailer
}

func TestLoginDirect(t *testing.T) {
	ctx := context.Background()
	svc, users, _, mailer := newLoginFixture(t)
	seeded := seedUser(t, users, "freya@example.com", "correct horse", true)

	res, err := svc.Login(ctx, "freya@example.com", "correct horse")
	require.NoError(t, err)
	require.False(t, res.RequiresVerification)
	require.NotEmpty(t, res.Token)
	require.Equal(t, seeded.ID, res.User.ID)
	require.Empty(t, mailer.sent, "no code mailed when two-factor is off")

	claims, err := svc.Codec.Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, seeded.ID, claims.Subject)
	require.Equal(t, seeded.Email, claims.Email)
	require.Equal(t, seeded.Role, claims.Role)
}

func TestLoginRequiresVerification(t *testing.T) {
	ctx := context.Background()
	svc, users, codes, mailer := newLoginFixture(t)

	u := seedUser(t, users, "freya@example.com", "correct horse", true)
	u.TwoFactorEnabled = true
	require.NoError(t, users.ReplaceUser(ctx, u))

	res, err := svc.Login(ctx, "freya@example.com", "correct horse")
	require.NoError(t, err)
	require.True(t, res.RequiresVerification)
	require.Empty(t, res.Token, "no session before the code is accepted")
	require.Len(t, mailer.sent, 1)
	require.Equal(t, 1, codes.Len())

	complete, err := svc.CompleteVerification(ctx, "freya@example.com", mailer.sent[0])
	require.NoError(t, err)
	require.NotEmpty(t, complete.Token)
	require.Equal(t, u.ID, complete.User.ID)
	require.Equal(t, 0, codes.Len(), "code revoked on redemption")
}

func TestLoginBadCredentialsIssueNoCode(t *testing.T) {
	ctx := context.Background()
	svc, users, codes, mailer := newLoginFixture(t)

	u := seedUser(t, users, "freya@example.com", "correct horse", true)
	u.TwoFactorEnabled = true
	require.NoError(t, users.ReplaceUser(ctx, u))

	_, err := svc.Login(ctx, "freya@example.com", "battery staple")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Empty(t, mailer.sent)
	require.Equal(t, 0, codes.Len())
}

func TestLoginMailerFailureKeepsCode(t *testing.T) {
	ctx := context.Background()
	svc, users, codes, mailer := newLoginFixture(t)

	u := seedUser(t, users, "freya@example.com", "correct horse", true)
	u.TwoFactorEnabled = true
	require.NoError(t, users.ReplaceUser(ctx, u))

	mailer.fail = errors.New("smtp down")
	_, err := svc.Login(ctx, "freya@example.com", "correct horse")
	require.Error(t, err)
	require.Equal(t, 1, codes.Len(), "code stays redeemable for a resend")

	// Resend succeeds once mail recovers and replaces the stuck code.
	mailer.fail = nil
	require.NoError(t, svc.SendCode(ctx, "freya@example.com"))
	require.Len(t, mailer.sent, 1)

	res, err := svc.CompleteVerification(ctx, "freya@example.com", mailer.sent[0])
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
}

func TestSendCodeUnknownEmail(t *testing.T) {
	ctx := context.Background()
	svc, _, codes, mailer := newLoginFixture(t)

	require.NoError(t, svc.SendCode(ctx, "nobody@example.com"))
	require.Empty(t, mailer.sent)
	require.Equal(t, 0, codes.Len())
}

func TestCompleteVerificationUnknownEmail(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newLoginFixture(t)

	_, err := svc.CompleteVerification(ctx, "nobody@example.com", "123456")
	require.ErrorIs(t, err, ErrCodeNotFound)
}
