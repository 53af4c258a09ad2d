package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestSSLLabsGrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		query := r.URL.Query()
		if query.Get("host") != "www.example.com" {
			t.Errorf("unexpected host %s", query.Get("host"))
		}
		if query.Get("fromCache") != "on" || query.Get("all") != "done" {
			t.Errorf("missing cache parameters in %s", r.URL.RawQuery)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"endpoints":[{"grade":"A+"},{"grade":"B"},{"grade":""}]}`))
	}))
	defer server.Close()

	adapter := NewSSLLabs(WithSSLLabsBaseURL(server.URL))

	result := adapter.Analyze(context.Background(), Target{Host: "www.example.com", Domain: "example.com"})
	if result.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", result.Status, result.Reason)
	}

	grades := result.Data.(CertificateGrades).Grades
	if !reflect.DeepEqual(grades, []string{"A+", "B"}) {
		t.Errorf("unexpected grades %v", grades)
	}
}

func TestSSLLabsDomainFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("host") != "example.com" {
			t.Errorf("expected domain fallback, got %s", r.URL.Query().Get("host"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"endpoints":[]}`))
	}))
	defer server.Close()

	adapter := NewSSLLabs(WithSSLLabsBaseURL(server.URL))

	result := adapter.Analyze(context.Background(), Target{Domain: "example.com"})
	if result.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", result.Status, result.Reason)
	}
}

func TestSSLLabsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	adapter := NewSSLLabs(WithSSLLabsBaseURL(server.URL))

	result := adapter.Analyze(context.Background(), Target{Host: "example.com"})
	if result.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
}
