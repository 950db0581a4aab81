package sessiontoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("sessiontoken: malformed token")
	ErrInvalidSig = errors.New("sessiontoken: invalid signature")
	ErrExpired    = errors.New("sessiontoken: token expired")
)

// Codec issues and verifies HMAC-SHA256 signed session tokens. It holds no
// mutable state and is safe for concurrent use from any number of request
// handlers.
type Codec struct {
	secret []byte
	issuer string

	// now is the clock source; overridable for tests.
	now func() time.Time
}

// NewCodec creates a Codec signing with the given server-held secret.
func NewCodec(secret []byte, issuer string) *Codec {
	return &Codec{
		secret: secret,
		issuer: issuer,
		now:    time.Now,
	}
}

// WithClock returns a copy of the codec using the supplied clock. Issue and
// Verify are deterministic given identical claims, secret and clock.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Issue serializes and signs the claims into a compact
// header.payload.signature string.
func (c *Codec) Issue(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify parses a token string and returns its claims, or exactly one of
// ErrMalformed, ErrInvalidSig, ErrExpired. The HMAC comparison inside the
// jwt library is constant-time.
func (c *Codec) Verify(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
		jwt.WithExpirationRequired(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return Claims{}, ErrInvalidSig
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		default:
			return Claims{}, ErrMalformed
		}
	}

	if c.issuer != "" && claims.Issuer != c.issuer {
		return Claims{}, ErrMalformed
	}

	return claims, nil
}
