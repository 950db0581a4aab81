package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fernwood-health/apothecary/internal/auth/domain"
	"github.com/fernwood-health/apothecary/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func testRecord(now time.Time) domain.VerificationCode {
	return domain.VerificationCode{
		Code:        "042137",
		CreatedAt:   now,
		ExpiresAt:   now.Add(10 * time.Minute),
		MaxAttempts: 5,
	}
}

func TestCodesPutGetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Now().UTC()
	codes := NewCodes()

	_, err := codes.Get(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, codes.Put(ctx, "Freya@Example.com ", testRecord(now)))

	// Lookup normalizes the same way Put does.
	rec, err := codes.Get(ctx, "freya@example.com")
	require.NoError(t, err)
	require.Equal(t, "042137", rec.Code)

	require.NoError(t, codes.Delete(ctx, "FREYA@example.com"))
	_, err = codes.Get(ctx, "freya@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, codes.Delete(ctx, "freya@example.com"), "double delete is fine")
}

func TestCodesPutOverwrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Now().UTC()
	codes := NewCodes()

	first := testRecord(now)
	require.NoError(t, codes.Put(ctx, "a@b.c", first))
	_, err := codes.IncrementAttempts(ctx, "a@b.c")
	require.NoError(t, err)

	second := testRecord(now)
	second.Code = "991100"
	require.NoError(t, codes.Put(ctx, "a@b.c", second))

	rec, err := codes.Get(ctx, "a@b.c")
	require.NoError(t, err)
	require.Equal(t, "991100", rec.Code)
	require.Zero(t, rec.Attempts, "overwrite resets the attempt counter")
}

func TestCodesExpiryIsAbsence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	current := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	codes := NewCodes().WithClock(clock)

	require.NoError(t, codes.Put(ctx, "a@b.c", testRecord(current)))

	// 11 minutes later the unswept record must read as absent.
	mu.Lock()
	current = current.Add(11 * time.Minute)
	mu.Unlock()

	_, err := codes.Get(ctx, "a@b.c")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = codes.IncrementAttempts(ctx, "a@b.c")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCodesDeleteExpiredSweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	current := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	codes := NewCodes().WithClock(clock)

	stale := testRecord(current)
	require.NoError(t, codes.Put(ctx, "old@b.c", stale))

	mu.Lock()
	current = current.Add(11 * time.Minute)
	mu.Unlock()

	fresh := testRecord(current)
	require.NoError(t, codes.Put(ctx, "new@b.c", fresh))
	require.Equal(t, 2, codes.Len())

	require.NoError(t, codes.DeleteExpired(ctx))
	require.Equal(t, 1, codes.Len())

	_, err := codes.Get(ctx, "new@b.c")
	require.NoError(t, err)
}

func TestCodesIncrementAttemptsSerialized(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	codes := NewCodes()
	require.NoError(t, codes.Put(ctx, "a@b.c", testRecord(time.Now().UTC())))

	const workers = 32
	counts := make(chan int, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := codes.IncrementAttempts(ctx, "a@b.c")
			require.NoError(t, err)
			counts <- n
		}()
	}
	wg.Wait()
	close(counts)

	// Every concurrent increment must observe a distinct count; a lost
	// update here is exactly the race that lets a brute force slip past
	// the attempt budget.
	seen := make(map[int]bool)
	for n := range counts {
		require.False(t, seen[n], "duplicate post-increment count %d", n)
		seen[n] = true
	}
	require.Len(t, seen, workers)
	require.True(t, seen[workers], "final count must equal the number of attempts")
}
