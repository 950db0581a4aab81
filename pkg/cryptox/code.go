package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// VerificationCodeDigits is the length of emailed verification codes.
const VerificationCodeDigits = 6

// GenerateNumericCode returns a uniformly random code of the given number
// of ASCII digits, suitable for one-time email verification codes. Leading
// zeros are allowed ("004217" is a valid code).
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", digits)
	}

	code := make([]byte, digits)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random code: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// ConstantTimeEquals compares two short secrets without leaking the
// position of the first differing byte. Length differences still short
// circuit, which is fine for fixed-length codes.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
