package sessiontoken_test

import (
	"strings"
	"testing"
	"time"

	"github.com/fernwood-health/apothecary/pkg/sessiontoken"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("unit-test-secret-do-not-reuse")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	codec := sessiontoken.NewCodec(testSecret, "apothecary-auth").WithClock(fixedClock(now))

	claims := sessiontoken.NewClaims(
		"01JABCDEF0123456789ABCDEFG",
		"freya@example.com",
		"Freya Olsen",
		"customer",
		"apothecary-auth",
		7*24*time.Hour,
		now,
	)

	token, err := codec.Issue(claims)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	got, err := codec.Verify(token)
	require.NoError(t, err)
	require.Equal(t, claims.Subject, got.Subject)
	require.Equal(t, claims.Email, got.Email)
	require.Equal(t, claims.DisplayName, got.DisplayName)
	require.Equal(t, claims.Role, got.Role)
	require.Equal(t, claims.IssuedAt.Unix(), got.IssuedAt.Unix())
	require.Equal(t, claims.ExpiresAt.Unix(), got.ExpiresAt.Unix())
}

func TestCodecIssueDeterministic(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	codec := sessiontoken.NewCodec(testSecret, "apothecary-auth").WithClock(fixedClock(now))
	claims := sessiontoken.NewClaims("sub", "a@b.c", "A", "customer", "apothecary-auth", time.Hour, now)

	first, err := codec.Issue(claims)
	require.NoError(t, err)
	second, err := codec.Issue(claims)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCodecExpiryIssuedAtInvariant(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	claims := sessiontoken.NewClaims("sub", "a@b.c", "A", "customer", "iss", 0, now)
	require.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))

	claims = sessiontoken.NewClaims("sub", "a@b.c", "A", "customer", "iss", -time.Hour, now)
	require.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time), "non-positive ttl falls back to default")
}

func TestCodecVerifyTamperedSignature(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	codec := sessiontoken.NewCodec(testSecret, "apothecary-auth").WithClock(fixedClock(now))
	claims := sessiontoken.NewClaims("sub", "a@b.c", "A", "customer", "apothecary-auth", time.Hour, now)

	token, err := codec.Issue(claims)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := parts[2]

	// Corrupt every position of the signature segment in turn; each variant
	// must fail signature verification, never round down to Malformed.
	for i := range sig {
		// Replacement chars differing in their high base64 bits, so the
		// decoded signature always changes even at the final (partially
		// padded) position.
		alt := byte('Q')
		if sig[i] == alt {
			alt = 'e'
		}
		tampered := parts[0] + "." + parts[1] + "." + sig[:i] + string(alt) + sig[i+1:]

		_, err := codec.Verify(tampered)
		require.ErrorIs(t, err, sessiontoken.ErrInvalidSig, "tampered at position %d", i)
	}
}

func TestCodecVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	issuer := sessiontoken.NewCodec(testSecret, "apothecary-auth").WithClock(fixedClock(now))
	verifier := sessiontoken.NewCodec([]byte("a-different-secret"), "apothecary-auth").WithClock(fixedClock(now))

	token, err := issuer.Issue(
		sessiontoken.NewClaims("sub", "a@b.c", "A", "customer", "apothecary-auth", time.Hour, now))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, sessiontoken.ErrInvalidSig)
}

func TestCodecVerifyExpired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	codec := sessiontoken.NewCodec(testSecret, "apothecary-auth")

	token, err := codec.WithClock(fixedClock(issuedAt)).Issue(
		sessiontoken.NewClaims("sub", "a@b.c", "A", "customer", "apothecary-auth", time.Second, issuedAt))
	require.NoError(t, err)

	// One second past expiry.
	late := codec.WithClock(fixedClock(issuedAt.Add(2 * time.Second)))
	_, err = late.Verify(token)
	require.ErrorIs(t, err, sessiontoken.ErrExpired)

	// A token whose expiry is already in the past at issue time fails
	// immediately.
	preExpired, err := codec.WithClock(fixedClock(issuedAt)).Issue(sessiontoken.Claims{
		RegisteredClaims: sessiontoken.NewClaims(
			"sub", "a@b.c", "A", "customer", "apothecary-auth", time.Hour, issuedAt.Add(-2*time.Hour),
		).RegisteredClaims,
	})
	require.NoError(t, err)
	_, err = codec.WithClock(fixedClock(issuedAt)).Verify(preExpired)
	require.ErrorIs(t, err, sessiontoken.ErrExpired)
}

func TestCodecVerifyMalformed(t *testing.T) {
	t.Parallel()

	codec := sessiontoken.NewCodec(testSecret, "apothecary-auth")

	for name, input := range map[string]string{
		"empty":        "",
		"one segment":  "justsomegarbage",
		"two segments": "abc.def",
		"four":         "a.b.c.d",
		"not base64":   "ab!!.cd??.ef%%",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Verify(input)
			require.ErrorIs(t, err, sessiontoken.ErrMalformed)
		})
	}
}

func TestCodecVerifyIssuerMismatch(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	other := sessiontoken.NewCodec(testSecret, "some-other-service").WithClock(fixedClock(now))
	codec := sessiontoken.NewCodec(testSecret, "apothecary-auth").WithClock(fixedClock(now))

	token, err := other.Issue(
		sessiontoken.NewClaims("sub", "a@b.c", "A", "customer", "some-other-service", time.Hour, now))
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.ErrorIs(t, err, sessiontoken.ErrMalformed)
}
