// Package redis implements the verification code store on top of a Redis
// hash per email. Attempt counting uses HINCRBY so concurrent guesses are
// serialized by the server, and record lifetime rides on the key TTL.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fernwood-health/apothecary/internal/auth/domain"
	"github.com/fernwood-health/apothecary/internal/auth/store"
)

const keyPrefix = "avc:"

const (
	fieldCode        = "code"
	fieldCreatedAt   = "created_at"
	fieldExpiresAt   = "expires_at"
	fieldAttempts    = "attempts"
	fieldMaxAttempts = "max_attempts"
)

// Codes is a store.VerificationCodes driver backed by Redis.
type Codes struct {
	rdb *redis.Client
	now func() time.Time
}

// NewCodes wraps an existing client. The caller owns the client lifecycle.
func NewCodes(rdb *redis.Client) *Codes {
	return &Codes{rdb: rdb, now: time.Now}
}

// WithClock replaces the time source. Test hook.
func (c *Codes) WithClock(now func() time.Time) *Codes {
	c.now = now
	return c
}

func key(email string) string {
	return keyPrefix + domain.NormalizeEmail(email)
}

func (c *Codes) Put(ctx context.Context, email string, rec domain.VerificationCode) error {
	k := key(email)
	ttl := rec.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		// Already expired, make sure nothing stale survives.
		return c.Delete(ctx, email)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k,
		fieldCode, rec.Code,
		fieldCreatedAt, rec.CreatedAt.UTC().Unix(),
		fieldExpiresAt, rec.ExpiresAt.UTC().Unix(),
		fieldAttempts, rec.Attempts,
		fieldMaxAttempts, rec.MaxAttempts,
	)
	pipe.Expire(ctx, k, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put verification code: %w", err)
	}
	return nil
}

func (c *Codes) Get(ctx context.Context, email string) (domain.VerificationCode, error) {
	fields, err := c.rdb.HGetAll(ctx, key(email)).Result()
	if err != nil {
		return domain.VerificationCode{}, fmt.Errorf("get verification code: %w", err)
	}
	if len(fields) == 0 {
		return domain.VerificationCode{}, store.ErrNotFound
	}

	rec, err := recordFromFields(fields)
	if err != nil {
		return domain.VerificationCode{}, err
	}
	// Belt and braces: Redis expiry normally handles this, but a record
	// whose key outlived its stamp must still read as absent.
	if rec.Expired(c.now()) {
		return domain.VerificationCode{}, store.ErrNotFound
	}
	return rec, nil
}

func (c *Codes) Delete(ctx context.Context, email string) error {
	if err := c.rdb.Del(ctx, key(email)).Err(); err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}

func (c *Codes) IncrementAttempts(ctx context.Context, email string) (int, error) {
	k := key(email)

	exists, err := c.rdb.Exists(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	if exists == 0 {
		return 0, store.ErrNotFound
	}

	n, err := c.rdb.HIncrBy(ctx, k, fieldAttempts, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	return int(n), nil
}

// DeleteExpired is a no-op: Redis reaps expired keys on its own.
func (c *Codes) DeleteExpired(ctx context.Context) error {
	return nil
}

// Ping reports Redis reachability for readiness checks.
func (c *Codes) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func recordFromFields(fields map[string]string) (domain.VerificationCode, error) {
	createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return domain.VerificationCode{}, fmt.Errorf("decode verification code created_at: %w", err)
	}
	expiresAt, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return domain.VerificationCode{}, fmt.Errorf("decode verification code expires_at: %w", err)
	}
	attempts, err := strconv.Atoi(fields[fieldAttempts])
	if err != nil {
		return domain.VerificationCode{}, fmt.Errorf("decode verification code attempts: %w", err)
	}
	maxAttempts, err := strconv.Atoi(fields[fieldMaxAttempts])
	if err != nil {
		return domain.VerificationCode{}, fmt.Errorf("decode verification code max_attempts: %w", err)
	}

	return domain.VerificationCode{
		Code:        fields[fieldCode],
		CreatedAt:   time.Unix(createdAt, 0).UTC(),
		ExpiresAt:   time.Unix(expiresAt, 0).UTC(),
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
	}, nil
}
