// Package cookiex constructs the Set-Cookie directives for session issuance
// and for exhaustive session invalidation on logout.
package cookiex

import (
	"net/http"
	"time"
)

// Config describes how the canonical session cookie is issued and which
// historical attribute variants the deletion matrix must cover.
type Config struct {
	// Name is the canonical session cookie name.
	Name string

	// Domain is the production cookie domain (e.g. "fernwood.health").
	// Empty means host-only cookies, which is what dev setups use.
	Domain string

	// TTL bounds the cookie lifetime and must match the session token TTL.
	TTL time.Duration

	// Secure is disabled only for plain-http dev environments.
	Secure bool

	// LegacyNames are cookie names earlier code paths issued sessions
	// under. The deletion matrix covers them; issuance never uses them.
	LegacyNames []string

	// LegacyPaths are path prefixes cookies were historically scoped to,
	// beyond the canonical "/".
	LegacyPaths []string
}

// Manager builds cookie directives. Construction is pure data
// transformation with no failure modes.
type Manager struct {
	cfg Config
}

func NewManager(cfg Config) *Manager {
	if cfg.Name == "" {
		cfg.Name = "session_auth"
	}
	return &Manager{cfg: cfg}
}

// Name returns the canonical session cookie name.
func (m *Manager) Name() string { return m.cfg.Name }

// Issue returns the single canonical session cookie carrying the signed
// token value.
func (m *Manager) Issue(token string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.Name,
		Value:    token,
		Domain:   m.cfg.Domain,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		Secure:   m.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
