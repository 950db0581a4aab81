// Package memory provides in-process store drivers used in dev mode and
// throughout the test suites.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fernwood-health/apothecary/internal/auth/domain"
	"github.com/fernwood-health/apothecary/internal/auth/store"
)

// Codes is an in-memory VerificationCodes driver. All mutations happen
// under one mutex, so attempt counting is serialized: concurrent wrong
// submissions cannot both read the same pre-increment count.
type Codes struct {
	mu      sync.Mutex
	records map[string]domain.VerificationCode

	// now is the clock source; overridable for TTL tests.
	now func() time.Time
}

func NewCodes() *Codes {
	return &Codes{
		records: make(map[string]domain.VerificationCode),
		now:     time.Now,
	}
}

// WithClock swaps the clock source. Test helper; not safe to call once the
// store is shared.
func (c *Codes) WithClock(now func() time.Time) *Codes {
	c.now = now
	return c
}

func (c *Codes) Put(_ context.Context, email string, rec domain.VerificationCode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[domain.NormalizeEmail(email)] = rec
	return nil
}

func (c *Codes) Get(_ context.Context, email string) (domain.VerificationCode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := domain.NormalizeEmail(email)
	rec, ok := c.records[key]
	if !ok {
		return domain.VerificationCode{}, store.ErrNotFound
	}
	// Expired-but-unswept records are absent as far as callers can tell;
	// drop them on access so the map doesn't rely on the periodic sweep.
	if rec.Expired(c.now()) {
		delete(c.records, key)
		return domain.VerificationCode{}, store.ErrNotFound
	}
	return rec, nil
}

func (c *Codes) Delete(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, domain.NormalizeEmail(email))
	return nil
}

func (c *Codes) IncrementAttempts(_ context.Context, email string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := domain.NormalizeEmail(email)
	rec, ok := c.records[key]
	if !ok || rec.Expired(c.now()) {
		return 0, store.ErrNotFound
	}

	rec.Attempts++
	c.records[key] = rec
	return rec.Attempts, nil
}

func (c *Codes) DeleteExpired(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, rec := range c.records {
		if rec.Expired(now) {
			delete(c.records, key)
		}
	}
	return nil
}

// Len reports the number of live records, expired entries included until
// swept. Used by housekeeping tests.
func (c *Codes) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Ping always succeeds; the store lives in process memory.
func (c *Codes) Ping(_ context.Context) error { return nil }
