package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/theopenlane/httpsling"
)

const (
	// defaultSSLLabsBaseURL is the SSL Labs v3 API root
	defaultSSLLabsBaseURL = "https://api.ssllabs.com/api/v3"
	// sslLabsTimeout bounds the cached-assessment lookup
	sslLabsTimeout = 15 * time.Second
)

// SSLLabs fetches cached TLS assessment grades for a domain. The public API
// requires no credential, so this adapter is never unavailable.
type SSLLabs struct {
	baseURL    string
	httpClient *http.Client
}

// SSLLabsOption configures the SSLLabs adapter
type SSLLabsOption func(*SSLLabs)

// WithSSLLabsBaseURL overrides the API base URL
func WithSSLLabsBaseURL(baseURL string) SSLLabsOption {
	return func(s *SSLLabs) {
		if baseURL != "" {
			s.baseURL = baseURL
		}
	}
}

// WithSSLLabsHTTPClient overrides the HTTP client
func WithSSLLabsHTTPClient(client *http.Client) SSLLabsOption {
	return func(s *SSLLabs) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// NewSSLLabs creates the certificate grading adapter.
func NewSSLLabs(opts ...SSLLabsOption) *SSLLabs {
	s := &SSLLabs{
		baseURL:    defaultSSLLabsBaseURL,
		httpClient: &http.Client{Timeout: sslLabsTimeout},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name implements Adapter
func (s *SSLLabs) Name() Name { return NameSSLLabs }

// DomainScoped implements Adapter; assessments are per host
func (s *SSLLabs) DomainScoped() bool { return true }

// sslLabsReport mirrors the slice of the assessment the adapter reads
type sslLabsReport struct {
	Endpoints []struct {
		Grade string `json:"grade"`
	} `json:"endpoints"`
}

// Analyze fetches the cached assessment and collects per-endpoint grades.
func (s *SSLLabs) Analyze(ctx context.Context, target Target) Result {
	ctx, cancel := context.WithTimeout(ctx, sslLabsTimeout)
	defer cancel()

	host := target.Host
	if host == "" {
		host = target.Domain
	}

	reqURL := fmt.Sprintf("%s/analyze?host=%s&fromCache=on&all=done", s.baseURL, url.QueryEscape(host))

	requester := httpsling.MustNew(
		httpsling.URL(reqURL),
		httpsling.Method(http.MethodGet),
		httpsling.WithHTTPClient(s.httpClient),
	)

	var raw json.RawMessage

	resp, err := requester.ReceiveWithContext(ctx, &raw)
	if err != nil {
		return Failed(failureReason(err))
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode != http.StatusOK {
		return Failed(fmt.Sprintf("%v: %d", ErrUnexpectedStatus, resp.StatusCode))
	}

	var report sslLabsReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return Failed(err.Error())
	}

	grades := make([]string, 0, len(report.Endpoints))
	for _, endpoint := range report.Endpoints {
		if endpoint.Grade != "" {
			grades = append(grades, endpoint.Grade)
		}
	}

	return OK(CertificateGrades{Grades: grades, Raw: raw})
}
