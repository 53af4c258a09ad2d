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
	// defaultSafeBrowsingBaseURL is the Google Safe Browsing v4 endpoint root
	defaultSafeBrowsingBaseURL = "https://safebrowsing.googleapis.com/v4"
	// safeBrowsingTimeout bounds the threat match lookup
	safeBrowsingTimeout = 12 * time.Second
	// safeBrowsingClientID identifies this service to the API
	safeBrowsingClientID = "zerobait"
	// safeBrowsingClientVersion is reported alongside the client ID
	safeBrowsingClientVersion = "1.0.0"
)

// SafeBrowsing checks a URL against the Google Safe Browsing malware and
// social engineering lists.
type SafeBrowsing struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// SafeBrowsingOption configures the SafeBrowsing adapter
type SafeBrowsingOption func(*SafeBrowsing)

// WithSafeBrowsingBaseURL overrides the API base URL
func WithSafeBrowsingBaseURL(baseURL string) SafeBrowsingOption {
	return func(s *SafeBrowsing) {
		if baseURL != "" {
			s.baseURL = baseURL
		}
	}
}

// WithSafeBrowsingHTTPClient overrides the HTTP client
func WithSafeBrowsingHTTPClient(client *http.Client) SafeBrowsingOption {
	return func(s *SafeBrowsing) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// NewSafeBrowsing creates the Safe Browsing adapter. An empty API key yields
// an adapter that reports unavailable without any network calls.
func NewSafeBrowsing(apiKey string, opts ...SafeBrowsingOption) *SafeBrowsing {
	s := &SafeBrowsing{
		apiKey:     apiKey,
		baseURL:    defaultSafeBrowsingBaseURL,
		httpClient: &http.Client{Timeout: safeBrowsingTimeout},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name implements Adapter
func (s *SafeBrowsing) Name() Name { return NameSafeBrowsing }

// DomainScoped implements Adapter; lookups are by full URL
func (s *SafeBrowsing) DomainScoped() bool { return false }

// threatMatchRequest is the threatMatches:find request body
type threatMatchRequest struct {
	Client     threatMatchClient `json:"client"`
	ThreatInfo threatInfo        `json:"threatInfo"`
}

type threatMatchClient struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type threatEntry struct {
	URL string `json:"url"`
}

// threatMatchResponse mirrors the slice of the response the adapter reads
type threatMatchResponse struct {
	Matches []json.RawMessage `json:"matches"`
}

// Analyze queries threatMatches:find for the target URL. An empty matches
// list is a clean verdict, not a failure.
func (s *SafeBrowsing) Analyze(ctx context.Context, target Target) Result {
	if s.apiKey == "" {
		return Unavailable()
	}

	ctx, cancel := context.WithTimeout(ctx, safeBrowsingTimeout)
	defer cancel()

	body := threatMatchRequest{
		Client: threatMatchClient{
			ClientID:      safeBrowsingClientID,
			ClientVersion: safeBrowsingClientVersion,
		},
		ThreatInfo: threatInfo{
			ThreatTypes:      []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE", "POTENTIALLY_HARMFUL_APPLICATION"},
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []threatEntry{{URL: target.URL}},
		},
	}

	requester := httpsling.MustNew(
		httpsling.URL(s.baseURL+"/threatMatches:find?key="+url.QueryEscape(s.apiKey)),
		httpsling.Post(),
		httpsling.JSONBody(body),
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

	var matches threatMatchResponse
	if err := json.Unmarshal(raw, &matches); err != nil {
		return Failed(err.Error())
	}

	return OK(ThreatMatches{Matches: len(matches.Matches), Raw: raw})
}
