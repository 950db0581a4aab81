package domain

import (
	"strings"
	"time"
)

// VerificationCode is the pending one-time email code for an identity.
// Records are keyed by normalized email in the store; at most one record
// exists per identity and a resend overwrites it.
type VerificationCode struct {
	Code        string // 6 ASCII digits
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Attempts    int
	MaxAttempts int
}

// Usable reports whether the record can still be redeemed: not expired and
// under the attempt budget.
func (c VerificationCode) Usable(now time.Time) bool {
	return now.Before(c.ExpiresAt) && c.Attempts < c.MaxAttempts
}

// Expired reports whether the record has passed its TTL.
func (c VerificationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// NormalizeEmail produces the canonical store/lookup key for an email
// address. Lookups and writes must agree on this, or a resend would not
// overwrite the prior code.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
