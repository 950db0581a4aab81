package service

import (
	"context"
	"log/slog"
)

// Mailer delivers verification codes to an email address. Production
// wires a real provider; development logs the code instead of sending it.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email string, code string) error
}

// LogMailer writes the code to the log. Development only.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendVerificationCode(ctx context.Context, email string, code string) error {
	m.Logger.Info("verification code issued (dev mailer, not sent)",
		"email", email,
		"code", code,
	)
	return nil
}
