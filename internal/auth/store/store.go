package store

import (
	"context"
	"errors"

	"github.com/fernwood-health/apothecary/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Users is the credential-store interface. Concrete drivers (sqlite for
// deployments, memory for dev/tests) implement this; the auth services
// only ever see the interface so test doubles are trivial.
type Users interface {
	// GetUserByEmail looks up a user by normalized email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// SetEmailVerified marks the account email as confirmed.
	SetEmailVerified(ctx context.Context, userID string) error
}

// VerificationCodes maps a normalized email to its single pending
// one-time code record. Implementations must key by
// domain.NormalizeEmail(email) and must treat expired-but-unswept records
// as absent.
type VerificationCodes interface {
	// Put stores a fresh record, overwriting any prior record for the
	// identity.
	Put(ctx context.Context, email string, rec domain.VerificationCode) error

	// Get returns the pending record; expired or missing records yield
	// ErrNotFound.
	Get(ctx context.Context, email string) (domain.VerificationCode, error)

	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, email string) error

	// IncrementAttempts bumps the failed-attempt counter and returns the
	// new count. The increment must be atomic with respect to concurrent
	// verification attempts for the same email: two simultaneous wrong
	// submissions must observe distinct counts.
	IncrementAttempts(ctx context.Context, email string) (int, error)

	// DeleteExpired sweeps records past their TTL (housekeeping).
	DeleteExpired(ctx context.Context) error
}

// Pinger is implemented by drivers backed by an external system so
// readiness checks can probe connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
