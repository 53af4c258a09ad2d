package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theopenlane/httpsling"
)

const (
	// defaultWhoisBaseURL is the WhoisXML API service root
	defaultWhoisBaseURL = "https://www.whoisxmlapi.com/whoisserver/WhoisService"
	// whoisTimeout bounds the initial registration lookup
	whoisTimeout = 20 * time.Second
	// whoisRetryTimeout bounds the single retry after an aborted response
	whoisRetryTimeout = 22 * time.Second
	// whoisRetryDelay is how long to wait before the retry
	whoisRetryDelay = 1200 * time.Millisecond
)

// Whois looks up domain registration metadata by domain name. The provider
// occasionally reports an internal "data aborted" condition in an otherwise
// successful response; the adapter retries exactly once in that case.
type Whois struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
}

// WhoisOption configures the Whois adapter
type WhoisOption func(*Whois)

// WithWhoisBaseURL overrides the API base URL
func WithWhoisBaseURL(baseURL string) WhoisOption {
	return func(w *Whois) {
		if baseURL != "" {
			w.baseURL = baseURL
		}
	}
}

// WithWhoisHTTPClient overrides the HTTP client
func WithWhoisHTTPClient(client *http.Client) WhoisOption {
	return func(w *Whois) {
		if client != nil {
			w.httpClient = client
		}
	}
}

// WithWhoisRetryDelay overrides the delay before the abort retry
func WithWhoisRetryDelay(delay time.Duration) WhoisOption {
	return func(w *Whois) {
		if delay > 0 {
			w.retryDelay = delay
		}
	}
}

// NewWhois creates the registration lookup adapter. An empty API key yields
// an adapter that reports unavailable without any network calls.
func NewWhois(apiKey string, opts ...WhoisOption) *Whois {
	w := &Whois{
		apiKey:     apiKey,
		baseURL:    defaultWhoisBaseURL,
		httpClient: &http.Client{Timeout: whoisRetryTimeout},
		retryDelay: whoisRetryDelay,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Name implements Adapter
func (w *Whois) Name() Name { return NameWhois }

// DomainScoped implements Adapter; lookups are by domain, not URL
func (w *Whois) DomainScoped() bool { return true }

// whoisRecord mirrors the slice of the WhoisXML response the adapter reads
type whoisRecord struct {
	Error       string `json:"error,omitempty"`
	WhoisRecord struct {
		CreatedDate   string `json:"createdDate"`
		DataError     string `json:"dataError"`
		RegistrarName string `json:"registrarName"`
		RegistryData  struct {
			CreatedDate string `json:"createdDate"`
		} `json:"registryData"`
	} `json:"WhoisRecord"`
}

// Analyze fetches registration metadata for the target domain.
func (w *Whois) Analyze(ctx context.Context, target Target) Result {
	if w.apiKey == "" {
		return Unavailable()
	}

	raw, record, result := w.lookup(ctx, target.Domain, whoisTimeout)
	if result != nil {
		return *result
	}

	if aborted(record) {
		if err := sleep(ctx, w.retryDelay); err != nil {
			return Failed(failureReason(err))
		}

		raw, record, result = w.lookup(ctx, target.Domain, whoisRetryTimeout)
		if result != nil {
			return *result
		}
	}

	created := record.WhoisRecord.CreatedDate
	if created == "" {
		created = record.WhoisRecord.RegistryData.CreatedDate
	}

	return OK(Registration{
		CreatedDate: created,
		Registrar:   record.WhoisRecord.RegistrarName,
		Raw:         raw,
	})
}

// lookup performs one registration query; a non-nil Result is terminal
func (w *Whois) lookup(ctx context.Context, domain string, timeout time.Duration) (json.RawMessage, whoisRecord, *Result) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s?apiKey=%s&domainName=%s&outputFormat=JSON",
		w.baseURL, url.QueryEscape(w.apiKey), url.QueryEscape(domain))

	requester := httpsling.MustNew(
		httpsling.URL(reqURL),
		httpsling.Method(http.MethodGet),
		httpsling.WithHTTPClient(w.httpClient),
	)

	var raw json.RawMessage

	resp, err := requester.ReceiveWithContext(ctx, &raw)
	if err != nil {
		failure := Failed(failureReason(err))
		return nil, whoisRecord{}, &failure
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode != http.StatusOK {
		failure := Failed(fmt.Sprintf("%v: %d", ErrUnexpectedStatus, resp.StatusCode))
		return nil, whoisRecord{}, &failure
	}

	var record whoisRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		failure := Failed(err.Error())
		return nil, whoisRecord{}, &failure
	}

	return raw, record, nil
}

// aborted detects the provider's internal data-aborted condition
func aborted(record whoisRecord) bool {
	return containsAborted(record.Error) || containsAborted(record.WhoisRecord.DataError)
}

func containsAborted(s string) bool {
	return strings.Contains(strings.ToLower(s), "aborted")
}
