package domain

// LoginResult is the outcome of a successful credential or code
// submission. Exactly one of the two shapes is populated: either the login
// is pending a verification code (no token exists yet), or a session token
// was issued.
type LoginResult struct {
	// RequiresVerification is true when a code was dispatched and the
	// caller must complete two-factor verification. Token is empty in this
	// case; no session may exist before a code is accepted.
	RequiresVerification bool

	// Token is the signed session token, set only on full authentication.
	Token string

	// User is the public identity, set only on full authentication.
	User PublicUser
}
