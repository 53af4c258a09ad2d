package providers

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/theopenlane/httpsling"
)

const (
	// defaultURLScanBaseURL is the urlscan.io API root
	defaultURLScanBaseURL = "https://urlscan.io/api/v1"
	// urlscanSubmitTimeout bounds the scan submission
	urlscanSubmitTimeout = 12 * time.Second
	// urlscanImageTimeout bounds the screenshot download
	urlscanImageTimeout = 12 * time.Second
	// urlscanPollDelay is the fixed delay between result polls
	urlscanPollDelay = 3 * time.Second
	// urlscanPollAttempts is the poll budget after a submission
	urlscanPollAttempts = 3
)

// URLScan renders a visual snapshot of the target page via urlscan.io. A
// missing screenshot must never fail the overall analysis, so every failure
// mode settles as unavailable rather than failed.
type URLScan struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	pollDelay  time.Duration
}

// URLScanOption configures the URLScan adapter
type URLScanOption func(*URLScan)

// WithURLScanBaseURL overrides the API base URL
func WithURLScanBaseURL(baseURL string) URLScanOption {
	return func(u *URLScan) {
		if baseURL != "" {
			u.baseURL = baseURL
		}
	}
}

// WithURLScanHTTPClient overrides the HTTP client
func WithURLScanHTTPClient(client *http.Client) URLScanOption {
	return func(u *URLScan) {
		if client != nil {
			u.httpClient = client
		}
	}
}

// WithURLScanPollDelay overrides the inter-poll delay
func WithURLScanPollDelay(delay time.Duration) URLScanOption {
	return func(u *URLScan) {
		if delay > 0 {
			u.pollDelay = delay
		}
	}
}

// NewURLScan creates the snapshot adapter. An empty API key yields an
// adapter that reports unavailable without any network calls.
func NewURLScan(apiKey string, opts ...URLScanOption) *URLScan {
	u := &URLScan{
		apiKey:     apiKey,
		baseURL:    defaultURLScanBaseURL,
		httpClient: &http.Client{Timeout: urlscanSubmitTimeout},
		pollDelay:  urlscanPollDelay,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// Name implements Adapter
func (u *URLScan) Name() Name { return NameScreenshot }

// DomainScoped implements Adapter; scans are by full URL
func (u *URLScan) DomainScoped() bool { return false }

// scanSubmission mirrors the submission response
type scanSubmission struct {
	UUID string `json:"uuid"`
}

// scanResult mirrors the slice of the result the adapter reads; the
// screenshot reference has appeared under several keys over time
type scanResult struct {
	Screenshot    string `json:"screenshot"`
	ScreenshotURL string `json:"screenshotURL"`
	Task          struct {
		ScreenshotURL string `json:"screenshotURL"`
	} `json:"task"`
}

// Analyze submits the URL for rendering, polls for a screenshot reference,
// and downloads the image bytes.
func (u *URLScan) Analyze(ctx context.Context, target Target) Result {
	if u.apiKey == "" {
		return Unavailable()
	}

	uuid, err := u.submit(ctx, target.URL)
	if err != nil {
		return Unavailable()
	}

	screenshotURL, err := u.pollForScreenshot(ctx, uuid)
	if err != nil {
		return Unavailable()
	}

	image, err := u.fetchImage(ctx, screenshotURL)
	if err != nil {
		return Unavailable()
	}

	return OK(Screenshot{Image: image, SourceURL: screenshotURL})
}

// submit starts a private scan and returns the job UUID
func (u *URLScan) submit(ctx context.Context, targetURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, urlscanSubmitTimeout)
	defer cancel()

	body := struct {
		URL        string `json:"url"`
		Visibility string `json:"visibility"`
	}{URL: targetURL, Visibility: "private"}

	requester := httpsling.MustNew(
		httpsling.URL(u.baseURL+"/scan"),
		httpsling.Post(),
		httpsling.Header("API-Key", u.apiKey),
		httpsling.JSONBody(body),
		httpsling.WithHTTPClient(u.httpClient),
	)

	var submission scanSubmission

	resp, err := requester.ReceiveWithContext(ctx, &submission)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode != http.StatusOK {
		return "", ErrUnexpectedStatus
	}

	if submission.UUID == "" {
		return "", ErrNoSubmissionID
	}

	return submission.UUID, nil
}

// pollForScreenshot waits for the rendered image reference to appear
func (u *URLScan) pollForScreenshot(ctx context.Context, uuid string) (string, error) {
	for i := 0; i < urlscanPollAttempts; i++ {
		if err := sleep(ctx, u.pollDelay); err != nil {
			return "", err
		}

		requester := httpsling.MustNew(
			httpsling.URL(u.baseURL+"/result/"+url.PathEscape(uuid)+"/"),
			httpsling.Method(http.MethodGet),
			httpsling.WithHTTPClient(u.httpClient),
		)

		var result scanResult

		resp, err := requester.ReceiveWithContext(ctx, &result)
		if err != nil {
			continue
		}
		resp.Body.Close() //nolint:errcheck // response body close error is non-critical

		switch {
		case result.Screenshot != "":
			return result.Screenshot, nil
		case result.Task.ScreenshotURL != "":
			return result.Task.ScreenshotURL, nil
		case result.ScreenshotURL != "":
			return result.ScreenshotURL, nil
		}
	}

	return "", ErrNoScreenshot
}

// fetchImage downloads the rendered screenshot bytes
func (u *URLScan) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, urlscanImageTimeout)
	defer cancel()

	requester := httpsling.MustNew(
		httpsling.URL(imageURL),
		httpsling.Method(http.MethodGet),
		httpsling.WithHTTPClient(u.httpClient),
	)

	var buf bytes.Buffer

	resp, _, err := requester.ReceiveTo(ctx, &buf)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnexpectedStatus
	}

	return buf.Bytes(), nil
}
