package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSafeBrowsingUnavailableWithoutKey(t *testing.T) {
	sb := NewSafeBrowsing("")

	result := sb.Analyze(context.Background(), Target{URL: "https://example.com/"})
	if result.Status != StatusUnavailable {
		t.Fatalf("expected unavailable, got %s", result.Status)
	}
}

func TestSafeBrowsingMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/threatMatches:find" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing key query parameter")
		}

		var req threatMatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if len(req.ThreatInfo.ThreatEntries) != 1 || req.ThreatInfo.ThreatEntries[0].URL != "https://bad.example/" {
			t.Errorf("unexpected threat entries %+v", req.ThreatInfo.ThreatEntries)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"matches":[{"threatType":"SOCIAL_ENGINEERING"}]}`))
	}))
	defer server.Close()

	sb := NewSafeBrowsing("test-key", WithSafeBrowsingBaseURL(server.URL))

	result := sb.Analyze(context.Background(), Target{URL: "https://bad.example/"})
	if result.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", result.Status, result.Reason)
	}

	if matches := result.Data.(ThreatMatches).Matches; matches != 1 {
		t.Errorf("expected 1 match, got %d", matches)
	}
}

func TestSafeBrowsingClean(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// the API returns an empty object when nothing matches
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	sb := NewSafeBrowsing("test-key", WithSafeBrowsingBaseURL(server.URL))

	result := sb.Analyze(context.Background(), Target{URL: "https://clean.example/"})
	if result.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", result.Status, result.Reason)
	}

	if matches := result.Data.(ThreatMatches).Matches; matches != 0 {
		t.Errorf("expected 0 matches, got %d", matches)
	}
}

func TestSafeBrowsingServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	sb := NewSafeBrowsing("test-key", WithSafeBrowsingBaseURL(server.URL))

	result := sb.Analyze(context.Background(), Target{URL: "https://example.com/"})
	if result.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
}
