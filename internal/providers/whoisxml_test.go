package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestWhoisUnavailableWithoutKey(t *testing.T) {
	w := NewWhois("")

	result := w.Analyze(context.Background(), Target{Domain: "example.com"})
	if result.Status != StatusUnavailable {
		t.Fatalf("expected unavailable, got %s", result.Status)
	}
}

func TestWhoisCreatedDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("domainName") != "example.com" {
			t.Errorf("unexpected domainName %s", r.URL.Query().Get("domainName"))
		}
		if r.URL.Query().Get("apiKey") != "test-key" {
			t.Errorf("missing apiKey query parameter")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"WhoisRecord":{"createdDate":"2024-01-15T00:00:00Z","registrarName":"Example Registrar"}}`))
	}))
	defer server.Close()

	adapter := NewWhois("test-key", WithWhoisBaseURL(server.URL))

	result := adapter.Analyze(context.Background(), Target{Domain: "example.com"})
	if result.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", result.Status, result.Reason)
	}

	registration := result.Data.(Registration)
	if registration.CreatedDate != "2024-01-15T00:00:00Z" {
		t.Errorf("unexpected created date %s", registration.CreatedDate)
	}
	if registration.Registrar != "Example Registrar" {
		t.Errorf("unexpected registrar %s", registration.Registrar)
	}
}

func TestWhoisRegistryDataFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"WhoisRecord":{"registryData":{"createdDate":"2020-06-01"}}}`))
	}))
	defer server.Close()

	adapter := NewWhois("test-key", WithWhoisBaseURL(server.URL))

	result := adapter.Analyze(context.Background(), Target{Domain: "example.com"})
	if result.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", result.Status, result.Reason)
	}

	if created := result.Data.(Registration).CreatedDate; created != "2020-06-01" {
		t.Errorf("expected registry data fallback, got %q", created)
	}
}

func TestWhoisRetriesAbortedOnce(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"WhoisRecord":{"dataError":"INCOMPLETE_DATA: lookup aborted"}}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"WhoisRecord":{"createdDate":"2025-08-01T00:00:00Z"}}`))
	}))
	defer server.Close()

	adapter := NewWhois("test-key",
		WithWhoisBaseURL(server.URL),
		WithWhoisRetryDelay(time.Millisecond),
	)

	result := adapter.Analyze(context.Background(), Target{Domain: "fresh.example"})
	if result.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", result.Status, result.Reason)
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("expected exactly 2 lookups, got %d", got)
	}

	if created := result.Data.(Registration).CreatedDate; created != "2025-08-01T00:00:00Z" {
		t.Errorf("unexpected created date %s", created)
	}
}

func TestWhoisAbortedTwiceStillReturnsRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"WhoisRecord":{"dataError":"lookup aborted"}}`))
	}))
	defer server.Close()

	adapter := NewWhois("test-key",
		WithWhoisBaseURL(server.URL),
		WithWhoisRetryDelay(time.Millisecond),
	)

	// the retry happens once; a second aborted response is taken as-is
	result := adapter.Analyze(context.Background(), Target{Domain: "example.com"})
	if result.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", result.Status, result.Reason)
	}

	if created := result.Data.(Registration).CreatedDate; created != "" {
		t.Errorf("expected empty created date, got %q", created)
	}
}

func TestWhoisServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	adapter := NewWhois("test-key", WithWhoisBaseURL(server.URL))

	result := adapter.Analyze(context.Background(), Target{Domain: "example.com"})
	if result.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
}
