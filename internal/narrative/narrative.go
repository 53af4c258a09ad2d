// Package narrative produces the human-readable risk summary that accompanies
// the numeric score. Generators never fail the analysis: any problem is
// reported through a fixed placeholder summary instead of an error.
package narrative

import (
	"context"
	"encoding/json"
)

const (
	// PlaceholderUnconfigured is returned when no generator credential is set
	PlaceholderUnconfigured = "AI analysis unavailable (missing GEMINI_API_KEY)."
	// PlaceholderEmpty is returned when the model responds without any text
	PlaceholderEmpty = "AI analysis did not return a summary."
	// PlaceholderFailed is returned when the generation call errors
	PlaceholderFailed = "AI analysis failed."
)

// Request carries everything a generator may ground the summary on.
type Request struct {
	// URL is the normalized URL under analysis
	URL string
	// RiskScore is the computed score in [0, 100]
	RiskScore int
	// Tier is the severity tier derived from the score
	Tier string
	// TechnicalDetails is the serialized provider result bag
	TechnicalDetails json.RawMessage
	// Screenshot is the rendered page snapshot, nil when unavailable
	Screenshot []byte
}

// Generator turns an analysis outcome into a short plain-language summary.
// Implementations must always return usable text; degraded paths return one
// of the Placeholder constants.
type Generator interface {
	Generate(ctx context.Context, req Request) string
}

// Unconfigured is the generator used when no model credential is present.
type Unconfigured struct{}

// Generate implements Generator
func (Unconfigured) Generate(_ context.Context, _ Request) string {
	return PlaceholderUnconfigured
}
