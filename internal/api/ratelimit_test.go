package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// denyAll rejects every request
type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func TestTokenBucketExhaustsAndRefills(t *testing.T) {
	bucket := NewTokenBucket(2, 1)

	if !bucket.Allow() || !bucket.Allow() {
		t.Fatalf("expected the first two requests to pass")
	}
	if bucket.Allow() {
		t.Fatalf("expected the third request to be rejected")
	}
}

func TestBucketLimiterKeysIndependently(t *testing.T) {
	limiter := NewBucketLimiter(1, 1)

	if !limiter.Allow("alice:/api/scan") {
		t.Fatalf("first request for a key must pass")
	}
	if limiter.Allow("alice:/api/scan") {
		t.Fatalf("second request for the same key must be rejected")
	}
	if !limiter.Allow("bob:/api/scan") {
		t.Fatalf("a different key gets its own bucket")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limited := NewRouter(RouterConfig{
		Handler: NewHandler(stubAnalyzer{}, nil, nil),
		Limiter: denyAll{},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(`{"url":"https://example.com"}`))
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	// health stays reachable under rate limiting
	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec = httptest.NewRecorder()
	limited.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for health, got %d", rec.Code)
	}
}
