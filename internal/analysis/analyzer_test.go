package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erhandundarofficial/zerobait/internal/narrative"
	"github.com/erhandundarofficial/zerobait/internal/providers"
	"github.com/erhandundarofficial/zerobait/internal/store"
)

// stubGenerator returns canned text and records the request it saw
type stubGenerator struct {
	text    string
	lastReq narrative.Request
	calls   atomic.Int32
}

func (g *stubGenerator) Generate(_ context.Context, req narrative.Request) string {
	g.calls.Add(1)
	g.lastReq = req

	return g.text
}

// countingAdapter wraps a stub result and counts invocations
type countingAdapter struct {
	stubAdapter
	calls *atomic.Int32
}

func (c countingAdapter) Analyze(ctx context.Context, target providers.Target) providers.Result {
	c.calls.Add(1)

	return c.stubAdapter.Analyze(ctx, target)
}

func cleanAdapters() []providers.Adapter {
	return []providers.Adapter{
		stubAdapter{name: providers.NameSafeBrowsing, result: providers.OK(providers.ThreatMatches{Matches: 0})},
		stubAdapter{name: providers.NameVirusTotal, result: providers.OK(providers.ReputationStats{Harmless: 70})},
		stubAdapter{name: providers.NameSSLLabs, domainScoped: true, result: providers.OK(providers.CertificateGrades{Grades: []string{"A+"}})},
	}
}

func TestAnalyzeCleanURL(t *testing.T) {
	gen := &stubGenerator{text: "Nothing unusual stood out during the checks."}
	analyzer := NewAnalyzer(store.NewMemoryStore(), cleanAdapters(), gen)

	result, err := analyzer.Analyze(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.RiskScore != 0 {
		t.Errorf("expected score 0, got %d", result.RiskScore)
	}
	if result.FromCache {
		t.Errorf("first analysis must not come from cache")
	}
	if result.AISummary != gen.text {
		t.Errorf("unexpected summary %q", result.AISummary)
	}

	if gen.lastReq.Tier != TierLow {
		t.Errorf("generator should see the pre-floor tier, got %s", gen.lastReq.Tier)
	}
	if gen.lastReq.URL != "https://example.com/" {
		t.Errorf("generator should see the normalized URL, got %s", gen.lastReq.URL)
	}

	var bag map[string]json.RawMessage
	if err := json.Unmarshal(result.TechnicalDetails, &bag); err != nil {
		t.Fatalf("technical details not an object: %v", err)
	}
	if _, ok := bag["googleSafeBrowsing"]; !ok {
		t.Errorf("expected googleSafeBrowsing key in technical details")
	}
}

func TestAnalyzeReconcilesReassuringHighRisk(t *testing.T) {
	adapters := []providers.Adapter{
		stubAdapter{name: providers.NameSafeBrowsing, result: providers.OK(providers.ThreatMatches{Matches: 1})},
	}
	gen := &stubGenerator{text: "Despite some reports, this site seems safe to use."}

	analyzer := NewAnalyzer(store.NewMemoryStore(), adapters, gen)

	result, err := analyzer.Analyze(context.Background(), "https://bad.example")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.RiskScore != 70 {
		t.Errorf("expected score 70, got %d", result.RiskScore)
	}
	if result.AISummary != HighSeverityDisclaimer {
		t.Errorf("expected the fixed disclaimer, got %q", result.AISummary)
	}
}

func TestAnalyzeNarrativeFloorLiftsScore(t *testing.T) {
	gen := &stubGenerator{text: "This page appears to distribute malware. Avoid it."}
	analyzer := NewAnalyzer(store.NewMemoryStore(), cleanAdapters(), gen)

	result, err := analyzer.Analyze(context.Background(), "https://sneaky.example")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.RiskScore != 70 {
		t.Errorf("expected floored score 70, got %d", result.RiskScore)
	}
	if result.AISummary != gen.text {
		t.Errorf("alarming text on a high tier must pass through, got %q", result.AISummary)
	}

	// the generator saw the pre-floor tier
	if gen.lastReq.Tier != TierLow {
		t.Errorf("expected pre-floor tier low, got %s", gen.lastReq.Tier)
	}
}

func TestAnalyzeCacheFreshness(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	clock := &now

	var adapterCalls atomic.Int32

	adapters := []providers.Adapter{
		countingAdapter{
			stubAdapter: stubAdapter{name: providers.NameSafeBrowsing, result: providers.OK(providers.ThreatMatches{})},
			calls:       &adapterCalls,
		},
	}
	gen := &stubGenerator{text: "Nothing unusual stood out during the checks."}

	analyzer := NewAnalyzer(store.NewMemoryStore(), adapters, gen,
		WithClock(func() time.Time { return *clock }))

	if _, err := analyzer.Analyze(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	if adapterCalls.Load() != 1 {
		t.Fatalf("expected 1 adapter call, got %d", adapterCalls.Load())
	}

	// 29 days later the entry is still fresh
	now = now.Add(29 * 24 * time.Hour)

	result, err := analyzer.Analyze(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("cached analyze: %v", err)
	}
	if !result.FromCache {
		t.Errorf("expected a cache hit at 29 days")
	}
	if adapterCalls.Load() != 1 {
		t.Errorf("cache hit must not call adapters, got %d calls", adapterCalls.Load())
	}

	// 31 days after the first write the entry is stale
	now = now.Add(2 * 24 * time.Hour)

	result, err = analyzer.Analyze(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("stale analyze: %v", err)
	}
	if result.FromCache {
		t.Errorf("expected a fresh analysis at 31 days")
	}
	if adapterCalls.Load() != 2 {
		t.Errorf("stale entry must trigger a new fan-out, got %d calls", adapterCalls.Load())
	}
}

func TestAnalyzeHealsInconsistentCacheEntry(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// seed an entry written under older rules: high score with reassuring text
	seeded, _ := json.Marshal(Result{
		AISummary:        "This site seems safe.",
		RiskScore:        85,
		TechnicalDetails: json.RawMessage(`{}`),
	})
	if err := st.PutScanResult(context.Background(), store.CachedResult{
		URL:       "https://stale.example/",
		RiskScore: 85,
		Data:      seeded,
		CreatedAt: now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	gen := &stubGenerator{text: "unused"}
	analyzer := NewAnalyzer(st, nil, gen, WithClock(func() time.Time { return now }))

	result, err := analyzer.Analyze(context.Background(), "https://stale.example")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if !result.FromCache {
		t.Fatalf("expected a cache hit")
	}
	if result.AISummary != HighSeverityDisclaimer {
		t.Errorf("expected healed summary, got %q", result.AISummary)
	}
	if gen.calls.Load() != 0 {
		t.Errorf("cache hit must not call the generator")
	}

	// the healed form was written back
	row, err := st.GetScanResult(context.Background(), "https://stale.example/")
	if err != nil || row == nil {
		t.Fatalf("reading healed row: %v", err)
	}

	var healed Result
	if err := json.Unmarshal(row.Data, &healed); err != nil {
		t.Fatalf("decoding healed row: %v", err)
	}
	if healed.AISummary != HighSeverityDisclaimer {
		t.Errorf("healed row not persisted, got %q", healed.AISummary)
	}
}

func TestAnalyzeInvalidURL(t *testing.T) {
	analyzer := NewAnalyzer(store.NewMemoryStore(), nil, &stubGenerator{})

	_, err := analyzer.Analyze(context.Background(), "not a url at all")
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}
