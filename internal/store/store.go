// Package store persists analysis results, URL records, community reports,
// and threat-intel hits. The cache rows hold the serialized analysis result
// as an opaque JSON blob so the schema never chases the result shape.
package store

import (
	"context"
	"time"
)

// CachedResult is one result-cache row, keyed by normalized URL.
type CachedResult struct {
	// URL is the normalized URL serving as the cache key
	URL string
	// RiskScore is duplicated out of Data for cheap querying
	RiskScore int
	// Data is the serialized analysis result
	Data []byte
	// CreatedAt is when this entry was written or last refreshed
	CreatedAt time.Time
}

// URLRecord tracks a URL seen by the community scanner.
type URLRecord struct {
	ID            string
	OriginalURL   string
	NormalizedURL string
	CreatedAt     time.Time
}

// Store is the persistence collaborator. Implementations must make
// PutScanResult an upsert that resets CreatedAt, which doubles as the cache
// touch operation for self-healing entries.
type Store interface {
	// GetScanResult returns the cached row for a normalized URL, or nil
	GetScanResult(ctx context.Context, url string) (*CachedResult, error)
	// PutScanResult upserts a cache row, replacing the value and timestamp
	PutScanResult(ctx context.Context, result CachedResult) error

	// UpsertURL returns the existing record for a normalized URL or creates one
	UpsertURL(ctx context.Context, originalURL, normalizedURL string) (URLRecord, error)
	// CreateReport stores a community report against a URL record
	CreateReport(ctx context.Context, urlID, reason string) error
	// CountReports returns the number of community reports for a URL record
	CountReports(ctx context.Context, urlID string) (int, error)

	// HasIntelHit reports whether a provider hit is already recorded
	HasIntelHit(ctx context.Context, urlID, provider string) (bool, error)
	// RecordIntelHit stores a provider verdict against a URL record
	RecordIntelHit(ctx context.Context, urlID, provider, verdict string) error

	// Close releases the underlying resources
	Close() error
}
