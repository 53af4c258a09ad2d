// Package heuristics runs cheap lexical checks against a URL and derives the
// quick-scan verdict. Nothing here touches the network; the checks only look
// at the URL's own shape.
package heuristics

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Quick-scan verdicts, ordered from worst to best.
const (
	// VerdictWarning means a threat-intel hit or repeated community reports
	VerdictWarning = "WARNING"
	// VerdictCommunityReported means at least one community report exists
	VerdictCommunityReported = "COMMUNITY_REPORTED"
	// VerdictUnknown means lexical checks found something suspicious
	VerdictUnknown = "UNKNOWN"
	// VerdictSafe means nothing stood out
	VerdictSafe = "SAFE"
)

const (
	maxHostLength    = 60
	maxHostLabels    = 4
	maxQueryLength   = 100
	reportsToWarning = 3
)

// phishingKeywords are common credential-bait words
var phishingKeywords = []string{"login", "verify", "secure", "update"}

// Evaluate returns the human-readable reasons a URL looks lexically
// suspicious. The checks run against the URL as submitted, before any
// normalization strips userinfo or the query string. An empty slice means
// the URL's shape raised no flags.
func Evaluate(rawURL string) []string {
	var reasons []string

	if strings.Contains(rawURL, "@") {
		reasons = append(reasons, "URL contains an @ character, often used to disguise the real destination")
	}

	lower := strings.ToLower(rawURL)
	for _, keyword := range phishingKeywords {
		if strings.Contains(lower, keyword) {
			reasons = append(reasons, fmt.Sprintf("URL contains the bait keyword %q", keyword))
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return append(reasons, "URL could not be parsed")
	}

	host := strings.ToLower(parsed.Hostname())

	if strings.Contains(host, "xn--") {
		reasons = append(reasons, "hostname uses punycode, which can imitate familiar domains")
	}

	if len(host) > maxHostLength {
		reasons = append(reasons, "hostname is unusually long")
	}

	if strings.Count(host, ".") >= maxHostLabels {
		reasons = append(reasons, "hostname has an unusually deep subdomain chain")
	}

	if net.ParseIP(host) != nil {
		reasons = append(reasons, "URL points at a bare IP address instead of a domain")
	}

	if len(parsed.RawQuery) > maxQueryLength {
		reasons = append(reasons, "query string is unusually long")
	}

	return reasons
}

// Verdict combines the lexical reasons with the stored signals: intel hits
// and community report counts outrank the lexical checks.
func Verdict(reasons []string, intelHit bool, reportCount int) string {
	switch {
	case intelHit || reportCount >= reportsToWarning:
		return VerdictWarning
	case reportCount > 0:
		return VerdictCommunityReported
	case len(reasons) > 0:
		return VerdictUnknown
	default:
		return VerdictSafe
	}
}
