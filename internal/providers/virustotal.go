package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/theopenlane/httpsling"
)

const (
	// defaultVirusTotalBaseURL is the root endpoint for the VirusTotal v3 API
	defaultVirusTotalBaseURL = "https://www.virustotal.com/api/v3"
	// vtLookupTimeout bounds a single lookup or poll request
	vtLookupTimeout = 12 * time.Second
	// vtSubmitTimeout bounds the URL submission request
	vtSubmitTimeout = 15 * time.Second
	// vtPollDelay is the fixed delay between poll attempts
	vtPollDelay = 2500 * time.Millisecond
	// vtPollAttempts is the poll budget after a submission
	vtPollAttempts = 3
)

// VirusTotal looks up URL reputation verdicts. Most verdicts exist only for
// previously seen URLs, so a not-found lookup falls back to the
// submit-and-poll protocol: submit the URL for analysis, then poll a bounded
// number of times, alternating between the analysis job and the canonical URL
// record, preferring whichever yields usable statistics first.
type VirusTotal struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollDelay    time.Duration
	pollAttempts int
}

// VirusTotalOption configures the VirusTotal adapter
type VirusTotalOption func(*VirusTotal)

// WithVirusTotalBaseURL overrides the API base URL
func WithVirusTotalBaseURL(baseURL string) VirusTotalOption {
	return func(v *VirusTotal) {
		if baseURL != "" {
			v.baseURL = baseURL
		}
	}
}

// WithVirusTotalHTTPClient overrides the HTTP client
func WithVirusTotalHTTPClient(client *http.Client) VirusTotalOption {
	return func(v *VirusTotal) {
		if client != nil {
			v.httpClient = client
		}
	}
}

// WithVirusTotalPollDelay overrides the inter-poll delay
func WithVirusTotalPollDelay(delay time.Duration) VirusTotalOption {
	return func(v *VirusTotal) {
		if delay > 0 {
			v.pollDelay = delay
		}
	}
}

// NewVirusTotal creates the VirusTotal adapter. An empty API key yields an
// adapter that reports unavailable without any network calls.
func NewVirusTotal(apiKey string, opts ...VirusTotalOption) *VirusTotal {
	v := &VirusTotal{
		apiKey:       apiKey,
		baseURL:      defaultVirusTotalBaseURL,
		httpClient:   &http.Client{Timeout: vtLookupTimeout},
		pollDelay:    vtPollDelay,
		pollAttempts: vtPollAttempts,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Name implements Adapter
func (v *VirusTotal) Name() Name { return NameVirusTotal }

// DomainScoped implements Adapter; lookups are by full URL
func (v *VirusTotal) DomainScoped() bool { return false }

// Analyze looks up the URL by its content-derived identifier, falling back to
// submit-and-poll when the provider has no opinion yet.
func (v *VirusTotal) Analyze(ctx context.Context, target Target) Result {
	if v.apiKey == "" {
		return Unavailable()
	}

	id := base64.RawURLEncoding.EncodeToString([]byte(target.URL))

	raw, status, err := v.getJSON(ctx, v.baseURL+"/urls/"+id, vtLookupTimeout)
	if err != nil {
		return Failed(failureReason(err))
	}

	// Not found means the provider has no opinion yet, not a failure.
	if status == http.StatusNotFound {
		return v.submitAndPoll(ctx, target.URL, id)
	}

	if status != http.StatusOK {
		return Failed(fmt.Sprintf("%v: %d", ErrUnexpectedStatus, status))
	}

	if stats := lastAnalysisStats(raw); stats != nil {
		return reputationResult(stats, raw)
	}

	// Known URL without settled statistics contributes nothing to scoring but
	// the raw record is still surfaced for transparency.
	return OK(ReputationStats{Raw: raw})
}

// submitAndPoll runs the 4-state protocol: submit, then poll the analysis job
// and the canonical URL record until statistics appear or the budget runs out.
func (v *VirusTotal) submitAndPoll(ctx context.Context, targetURL, id string) Result {
	submitRaw, status, err := v.postForm(ctx, v.baseURL+"/urls", url.Values{"url": {targetURL}})
	if err != nil {
		return Failed(failureReason(err))
	}

	if status != http.StatusOK {
		return Failed(fmt.Sprintf("%v: %d", ErrUnexpectedStatus, status))
	}

	var submission vtEnvelope
	_ = json.Unmarshal(submitRaw, &submission)
	analysisID := submission.Data.ID

	for i := 0; i < v.pollAttempts; i++ {
		if err := sleep(ctx, v.pollDelay); err != nil {
			return Failed(failureReason(err))
		}

		if analysisID != "" {
			if raw, status, err := v.getJSON(ctx, v.baseURL+"/analyses/"+url.PathEscape(analysisID), vtLookupTimeout); err == nil && status == http.StatusOK {
				if stats := analysisStats(raw); stats != nil {
					return reputationResult(stats, raw)
				}
			}
		}

		if raw, status, err := v.getJSON(ctx, v.baseURL+"/urls/"+id, vtLookupTimeout); err == nil && status == http.StatusOK {
			if stats := lastAnalysisStats(raw); stats != nil {
				return reputationResult(stats, raw)
			}
		}
	}

	return Pending()
}

// getJSON performs a GET with the API key header and returns the raw body
func (v *VirusTotal) getJSON(ctx context.Context, reqURL string, timeout time.Duration) (json.RawMessage, int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	requester := httpsling.MustNew(
		httpsling.URL(reqURL),
		httpsling.Method(http.MethodGet),
		httpsling.Header("x-apikey", v.apiKey),
		httpsling.WithHTTPClient(v.httpClient),
	)

	var raw json.RawMessage

	resp, err := requester.ReceiveWithContext(ctx, &raw)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	return raw, resp.StatusCode, nil
}

// postForm submits a form-encoded body with the API key header
func (v *VirusTotal) postForm(ctx context.Context, reqURL string, form url.Values) (json.RawMessage, int, error) {
	ctx, cancel := context.WithTimeout(ctx, vtSubmitTimeout)
	defer cancel()

	requester := httpsling.MustNew(
		httpsling.URL(reqURL),
		httpsling.Post(),
		httpsling.Header("x-apikey", v.apiKey),
		httpsling.Form(),
		httpsling.Body(form),
		httpsling.WithHTTPClient(v.httpClient),
	)

	var raw json.RawMessage

	resp, err := requester.ReceiveWithContext(ctx, &raw)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	return raw, resp.StatusCode, nil
}

// vtStats mirrors the analysis statistics object. Malicious is a pointer
// because its presence is the readiness signal for polled verdicts.
type vtStats struct {
	Malicious  *int `json:"malicious"`
	Suspicious int  `json:"suspicious"`
	Harmless   int  `json:"harmless"`
}

// vtEnvelope mirrors the slice of the VirusTotal response the adapter reads
type vtEnvelope struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Stats             *vtStats `json:"stats"`
			LastAnalysisStats *vtStats `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

// lastAnalysisStats extracts settled statistics from a URL record
func lastAnalysisStats(raw json.RawMessage) *vtStats {
	var envelope vtEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}

	if stats := envelope.Data.Attributes.LastAnalysisStats; stats != nil && stats.Malicious != nil {
		return stats
	}

	return nil
}

// analysisStats extracts statistics from an analysis job record
func analysisStats(raw json.RawMessage) *vtStats {
	var envelope vtEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}

	if stats := envelope.Data.Attributes.Stats; stats != nil && stats.Malicious != nil {
		return stats
	}

	return nil
}

// reputationResult builds the successful Result from settled statistics
func reputationResult(stats *vtStats, raw json.RawMessage) Result {
	return OK(ReputationStats{
		Malicious:  *stats.Malicious,
		Suspicious: stats.Suspicious,
		Harmless:   stats.Harmless,
		Raw:        raw,
	})
}

// sleep waits for the given duration unless the context ends first
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// failureReason normalizes transport errors into the stored failure reason
func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	return err.Error()
}
