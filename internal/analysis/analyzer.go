// Package analysis orchestrates the multi-provider risk assessment: fanning
// out to provider adapters, scoring the evidence, generating the narrative,
// and enforcing consistency between the two before anything is cached or
// returned.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/erhandundarofficial/zerobait/internal/narrative"
	"github.com/erhandundarofficial/zerobait/internal/providers"
	"github.com/erhandundarofficial/zerobait/internal/store"
	"github.com/erhandundarofficial/zerobait/internal/urlutil"
)

// DefaultFreshFor is how long a cached assessment stays fresh
const DefaultFreshFor = 30 * 24 * time.Hour

// ResultCache is the slice of the store the analyzer needs.
type ResultCache interface {
	GetScanResult(ctx context.Context, url string) (*store.CachedResult, error)
	PutScanResult(ctx context.Context, result store.CachedResult) error
}

// Result is a finished risk assessment. The consistency invariants hold on
// every instance handed out: the score respects the narrative floor and the
// narrative tone matches the tier.
type Result struct {
	// AISummary is the plain-language narrative
	AISummary string `json:"ai_summary"`
	// RiskScore is the final score in [0, 100]
	RiskScore int `json:"risk_score"`
	// TechnicalDetails is the serialized provider result bag
	TechnicalDetails json.RawMessage `json:"technical_details"`
	// FromCache reports whether this assessment was served from the cache
	FromCache bool `json:"from_cache,omitempty"`
}

// Analyzer runs end-to-end URL risk assessments.
type Analyzer struct {
	cache     ResultCache
	adapters  []providers.Adapter
	generator narrative.Generator
	freshFor  time.Duration
	now       func() time.Time
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithFreshFor overrides the cache freshness window.
func WithFreshFor(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		a.freshFor = d
	}
}

// WithClock overrides the analyzer's clock, used in tests.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer builds an Analyzer over the given cache, provider adapters, and
// narrative generator.
func NewAnalyzer(cache ResultCache, adapters []providers.Adapter, generator narrative.Generator, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		cache:     cache,
		adapters:  adapters,
		generator: generator,
		freshFor:  DefaultFreshFor,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Analyze assesses the risk of a URL, serving a fresh cached assessment when
// one exists and running the full provider fan-out otherwise.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (Result, error) {
	normalized, err := urlutil.Normalize(rawURL)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if cached, ok := a.fromCache(ctx, normalized); ok {
		return cached, nil
	}

	return a.analyzeFresh(ctx, normalized)
}

// fromCache serves a fresh cache entry, re-enforcing the consistency
// invariants on the stored data. Entries written by older rule sets get
// healed in place when enforcement changes them. Stale or undecodable
// entries are treated as misses.
func (a *Analyzer) fromCache(ctx context.Context, normalized string) (Result, bool) {
	row, err := a.cache.GetScanResult(ctx, normalized)
	if err != nil {
		log.Warn().Err(err).Str("url", normalized).Msg("result cache lookup failed")

		return Result{}, false
	}

	if row == nil || a.now().Sub(row.CreatedAt) >= a.freshFor {
		return Result{}, false
	}

	var result Result
	if err := json.Unmarshal(row.Data, &result); err != nil {
		log.Warn().Err(err).Str("url", normalized).Msg("discarding undecodable cache entry")

		return Result{}, false
	}

	healed := enforce(&result)
	result.FromCache = true

	if healed {
		a.persist(ctx, normalized, result)
	}

	return result, true
}

// analyzeFresh runs the full pipeline: fan-out, scoring, narrative, and
// consistency enforcement.
func (a *Analyzer) analyzeFresh(ctx context.Context, normalized string) (Result, error) {
	host := urlutil.Hostname(normalized)
	target := providers.Target{
		URL:    normalized,
		Host:   host,
		Domain: urlutil.RegistrableDomain(host),
	}

	bag := FanOut(ctx, target, a.adapters)

	details, err := json.Marshal(bag)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEncodeResult, err)
	}

	score := Score(bag, a.now())

	summary := a.generator.Generate(ctx, narrative.Request{
		URL:              normalized,
		RiskScore:        score,
		Tier:             Tier(score),
		TechnicalDetails: details,
		Screenshot:       screenshotBytes(bag),
	})

	result := Result{
		AISummary:        summary,
		RiskScore:        score,
		TechnicalDetails: details,
	}

	enforce(&result)
	a.persist(ctx, normalized, result)

	return result, nil
}

// enforce applies the two consistency invariants in order: first the
// narrative floor lifts the score, then the narrative is reconciled against
// the tier of the lifted score. Reports whether anything changed.
func enforce(result *Result) bool {
	before := *result

	if floor := NarrativeFloor(result.AISummary); floor > result.RiskScore {
		result.RiskScore = floor
	}

	result.AISummary = Reconcile(result.AISummary, Tier(result.RiskScore))

	return result.RiskScore != before.RiskScore || result.AISummary != before.AISummary
}

// persist writes the assessment to the cache; failures are logged, never
// surfaced, since the assessment itself is complete.
func (a *Analyzer) persist(ctx context.Context, normalized string, result Result) {
	stored := result
	stored.FromCache = false

	data, err := json.Marshal(stored)
	if err != nil {
		log.Warn().Err(err).Str("url", normalized).Msg("unable to serialize assessment for cache")

		return
	}

	err = a.cache.PutScanResult(ctx, store.CachedResult{
		URL:       normalized,
		RiskScore: result.RiskScore,
		Data:      data,
		CreatedAt: a.now(),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("url", normalized).Msg("result cache write failed")
	}
}

// screenshotBytes pulls the PNG out of the bag when the screenshot provider
// settled ok.
func screenshotBytes(bag map[providers.Name]providers.Result) []byte {
	shot, ok := payloadOf[providers.Screenshot](bag, providers.NameScreenshot)
	if !ok {
		return nil
	}

	return shot.Image
}
