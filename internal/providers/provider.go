// Package providers wraps the external threat-intelligence services behind a
// uniform adapter contract. Every adapter settles into a Result; transport
// errors, missing credentials, and exhausted poll budgets never escape as Go
// errors past the adapter boundary.
package providers

import (
	"context"
	"encoding/json"
)

// Name identifies a provider in the technical details bag. The values match
// the keys existing callers expect in technical_details.
type Name string

const (
	// NameVirusTotal is the URL reputation provider (submit-and-poll)
	NameVirusTotal Name = "virusTotal"
	// NameSafeBrowsing is the malware URL list provider
	NameSafeBrowsing Name = "googleSafeBrowsing"
	// NameWhois is the domain registration provider
	NameWhois Name = "whois"
	// NameSSLLabs is the certificate grading provider
	NameSSLLabs Name = "sslLabs"
	// NameScreenshot is the visual snapshot provider
	NameScreenshot Name = "screenshot"
)

// Status describes how an adapter call settled.
type Status string

const (
	// StatusOK means the provider returned usable data
	StatusOK Status = "ok"
	// StatusUnavailable means the provider is not configured for this deployment
	StatusUnavailable Status = "unavailable"
	// StatusFailed means the call errored or timed out
	StatusFailed Status = "failed"
	// StatusPending means a submit-and-poll provider had no verdict within budget
	StatusPending Status = "pending"
)

// Target is the analysis subject handed to each adapter.
type Target struct {
	// URL is the normalized URL under analysis
	URL string
	// Host is the full hostname from the normalized URL
	Host string
	// Domain is the registrable domain (eTLD+1), empty when none was derivable
	Domain string
}

// Adapter is the common provider contract. Analyze must settle within the
// adapter's own timeout budget and encode every failure mode in the Result.
type Adapter interface {
	// Name returns the provider's key in the technical details bag
	Name() Name
	// DomainScoped reports whether the adapter looks up by domain rather than
	// URL; domain-scoped adapters are skipped entirely when no domain exists
	DomainScoped() bool
	// Analyze queries the provider for the target
	Analyze(ctx context.Context, target Target) Result
}

// Result is the tagged union every adapter settles into. Exactly one variant
// is populated: Data when Status is ok, Reason when failed, neither for
// unavailable and pending.
type Result struct {
	Status Status
	Reason string
	Data   Payload
}

// Payload is implemented by the per-provider structured payloads.
type Payload interface {
	payload()
}

// OK wraps a provider payload in a successful Result.
func OK(data Payload) Result {
	return Result{Status: StatusOK, Data: data}
}

// Unavailable marks a provider as not configured; it contributes nothing to
// scoring and is never retried.
func Unavailable() Result {
	return Result{Status: StatusUnavailable}
}

// Failed marks a provider call as errored or timed out.
func Failed(reason string) Result {
	return Result{Status: StatusFailed, Reason: reason}
}

// Pending marks a submit-and-poll provider whose verdict did not materialize
// within the polling budget.
func Pending() Result {
	return Result{Status: StatusPending}
}

// MarshalJSON renders the interop shapes used in technical_details: the raw
// provider payload on success, {"unavailable":true}, {"error":"..."}, or
// {"pending":true}.
func (r Result) MarshalJSON() ([]byte, error) {
	switch r.Status {
	case StatusUnavailable:
		return []byte(`{"unavailable":true}`), nil
	case StatusPending:
		return []byte(`{"pending":true}`), nil
	case StatusFailed:
		return json.Marshal(map[string]string{"error": r.Reason})
	}

	if r.Data == nil {
		return []byte(`{}`), nil
	}

	return json.Marshal(r.Data)
}

// ReputationStats holds the URL reputation verdict counters.
type ReputationStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`

	// Raw is the provider's full response, passed through for transparency
	Raw json.RawMessage `json:"-"`
}

func (ReputationStats) payload() {}

// MarshalJSON prefers the raw provider body when present.
func (s ReputationStats) MarshalJSON() ([]byte, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}

	type stats ReputationStats

	return json.Marshal(stats(s))
}

// ThreatMatches holds the malware list lookup outcome.
type ThreatMatches struct {
	Matches int `json:"matches"`

	Raw json.RawMessage `json:"-"`
}

func (ThreatMatches) payload() {}

// MarshalJSON prefers the raw provider body when present.
func (m ThreatMatches) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}

	type matches ThreatMatches

	return json.Marshal(matches(m))
}

// Registration holds domain registration metadata. CreatedDate is kept as
// the provider's string form; an unparseable date means age unknown.
type Registration struct {
	CreatedDate string `json:"created_date,omitempty"`
	Registrar   string `json:"registrar,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (Registration) payload() {}

// MarshalJSON prefers the raw provider body when present.
func (r Registration) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}

	type registration Registration

	return json.Marshal(registration(r))
}

// CertificateGrades holds the per-endpoint TLS grades.
type CertificateGrades struct {
	Grades []string `json:"grades"`

	Raw json.RawMessage `json:"-"`
}

func (CertificateGrades) payload() {}

// MarshalJSON prefers the raw provider body when present.
func (g CertificateGrades) MarshalJSON() ([]byte, error) {
	if len(g.Raw) > 0 {
		return g.Raw, nil
	}

	type grades CertificateGrades

	return json.Marshal(grades(g))
}

// Screenshot holds a rendered snapshot of the target page.
type Screenshot struct {
	// Image is the PNG bytes, base64-encoded on the wire
	Image []byte `json:"base64"`
	// SourceURL is where the image was fetched from
	SourceURL string `json:"-"`
}

func (Screenshot) payload() {}

// screenshotMeta describes where the snapshot came from
type screenshotMeta struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// MarshalJSON mirrors the {base64, meta} shape existing callers consume.
func (s Screenshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Base64 []byte         `json:"base64"`
		Meta   screenshotMeta `json:"meta"`
	}{
		Base64: s.Image,
		Meta:   screenshotMeta{Source: "urlscan", URL: s.SourceURL},
	})
}
