package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/erhandundarofficial/zerobait/internal/providers"
)

// stubAdapter settles with a canned result after an optional delay
type stubAdapter struct {
	name         providers.Name
	domainScoped bool
	delay        time.Duration
	result       providers.Result
}

func (s stubAdapter) Name() providers.Name { return s.name }
func (s stubAdapter) DomainScoped() bool   { return s.domainScoped }

func (s stubAdapter) Analyze(ctx context.Context, _ providers.Target) providers.Result {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return providers.Failed("timeout")
		case <-time.After(s.delay):
		}
	}

	return s.result
}

func TestFanOutSettlesAll(t *testing.T) {
	adapters := []providers.Adapter{
		stubAdapter{name: "fast", result: providers.OK(providers.ThreatMatches{Matches: 1})},
		stubAdapter{name: "slow", delay: 20 * time.Millisecond, result: providers.OK(providers.CertificateGrades{Grades: []string{"A"}})},
		stubAdapter{name: "broken", result: providers.Failed("connection refused")},
	}

	bag := FanOut(context.Background(), providers.Target{URL: "https://example.com/"}, adapters)

	if len(bag) != 3 {
		t.Fatalf("expected 3 settled results, got %d", len(bag))
	}

	if bag["fast"].Status != providers.StatusOK {
		t.Errorf("fast adapter: expected ok, got %s", bag["fast"].Status)
	}
	if bag["slow"].Status != providers.StatusOK {
		t.Errorf("slow adapter: expected ok, got %s", bag["slow"].Status)
	}
	if bag["broken"].Status != providers.StatusFailed {
		t.Errorf("broken adapter: expected failed, got %s", bag["broken"].Status)
	}
}

func TestFanOutSkipsDomainScopedWithoutDomain(t *testing.T) {
	adapters := []providers.Adapter{
		stubAdapter{name: "by-url", result: providers.OK(providers.ThreatMatches{})},
		stubAdapter{name: "by-domain", domainScoped: true, result: providers.OK(providers.Registration{})},
	}

	bag := FanOut(context.Background(), providers.Target{URL: "https://203.0.113.9/"}, adapters)

	if len(bag) != 1 {
		t.Fatalf("expected 1 settled result, got %d", len(bag))
	}

	if _, ok := bag["by-domain"]; ok {
		t.Errorf("domain-scoped adapter should be omitted from the bag")
	}
}
