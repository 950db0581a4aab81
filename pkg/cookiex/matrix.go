package cookiex

import (
	"net/http"
	"time"
)

// epoch is the Expires value stamped on every deletion directive. Any past
// date works; the epoch is unambiguous.
var epoch = time.Unix(0, 0).UTC()

var sameSiteVariants = []http.SameSite{
	http.SameSiteLaxMode,
	http.SameSiteStrictMode,
	http.SameSiteNoneMode,
}

// DeleteMatrix generates a deletion directive for the cartesian product of
// every cookie name, domain, path and attribute combination this origin
// could plausibly have set a session cookie under.
//
// A browser only honors a deletion whose attributes match how the cookie
// was originally set, and the historical attribute set is not reliably
// known, so deletion is attempted under all of them. Every directive
// carries an empty value, Max-Age=0 and an epoch Expires.
func (m *Manager) DeleteMatrix() []*http.Cookie {
	names := dedupe(append([]string{m.cfg.Name}, m.cfg.LegacyNames...))
	paths := dedupe(append([]string{"/"}, m.cfg.LegacyPaths...))
	domains := m.domainVariants()

	out := make([]*http.Cookie, 0, len(names)*len(domains)*len(paths)*2*2*len(sameSiteVariants))
	for _, name := range names {
		for _, domain := range domains {
			for _, path := range paths {
				for _, secure := range []bool{true, false} {
					for _, httpOnly := range []bool{true, false} {
						for _, sameSite := range sameSiteVariants {
							out = append(out, &http.Cookie{
								Name:     name,
								Value:    "",
								Domain:   domain,
								Path:     path,
								MaxAge:   -1, // serializes as Max-Age=0
								Expires:  epoch,
								Secure:   secure,
								HttpOnly: httpOnly,
								SameSite: sameSite,
							})
						}
					}
				}
			}
		}
	}
	return out
}

// domainVariants returns the Domain attribute values deletion must cover:
// host-only (no attribute), the bare configured domain, its dot-prefixed
// form, and localhost for dev-issued cookies.
func (m *Manager) domainVariants() []string {
	variants := []string{""}
	if m.cfg.Domain != "" {
		bare := m.cfg.Domain
		if bare[0] == '.' {
			bare = bare[1:]
		}
		variants = append(variants, bare, "."+bare)
	}
	variants = append(variants, "localhost")
	return dedupe(variants)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
