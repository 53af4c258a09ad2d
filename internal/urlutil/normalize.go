// Package urlutil canonicalizes user-supplied URLs into the comparable form
// used as the cache key and provider lookup identifier.
package urlutil

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Normalize canonicalizes a raw string into an absolute https URL: lowercase
// host, no query/fragment/userinfo, no port, and a trailing slash on
// the path. When the input has no scheme, https is assumed. When the first
// parse does not yield a dotted host, a second attempt with a "www." prefix
// is made before giving up. The result is idempotent: normalizing an already
// normalized URL returns it unchanged.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrMalformedURL
	}

	if !hasHTTPScheme(s) {
		s = "https://" + s
	}

	attempts := []string{s}
	if !strings.HasPrefix(hostPart(s), "www.") {
		attempts = append(attempts, withWWW(s))
	}

	for _, candidate := range attempts {
		u, err := url.Parse(candidate)
		if err != nil {
			continue
		}

		host := strings.ToLower(u.Hostname())
		if !validHost(host) {
			continue
		}

		u.Scheme = "https"
		u.Host = host
		u.User = nil
		u.RawQuery = ""
		u.Fragment = ""
		u.RawFragment = ""

		if u.Path == "" {
			u.Path = "/"
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}

		return u.String(), nil
	}

	return "", ErrMalformedURL
}

// Hostname returns the host component of a normalized URL, or "" when the
// value cannot be parsed.
func Hostname(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// RegistrableDomain returns the eTLD+1 for a host, falling back to the host
// itself when the public suffix list has no answer (e.g. bare test domains).
// IP literals have no registrable domain and yield "".
func RegistrableDomain(host string) string {
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}

	return registrable
}

// validHost requires at least two non-empty dot-separated labels
func validHost(host string) bool {
	if host == "" {
		return false
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" {
			return false
		}
	}
	return true
}

// hasHTTPScheme reports whether the string starts with http:// or https://
func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// hostPart extracts the authority portion of an http(s) URL string without
// parsing, used only to decide whether a www. retry makes sense.
func hostPart(s string) string {
	rest := s
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.ToLower(rest)
}

// withWWW rewrites the authority of an http(s) URL string with a www. prefix
func withWWW(s string) string {
	if idx := strings.Index(s, "://"); idx >= 0 {
		return "https://www." + s[idx+3:]
	}
	return "https://www." + s
}
