package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and cache-less deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]CachedResult
	urls    map[string]URLRecord // keyed by normalized URL
	reports map[string][]string  // url id -> reasons
	intel   map[string]string    // url id + "\x00" + provider -> verdict
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results: make(map[string]CachedResult),
		urls:    make(map[string]URLRecord),
		reports: make(map[string][]string),
		intel:   make(map[string]string),
	}
}

// GetScanResult implements Store
func (m *MemoryStore) GetScanResult(_ context.Context, url string) (*CachedResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result, ok := m.results[url]
	if !ok {
		return nil, nil
	}

	return &result, nil
}

// PutScanResult implements Store
func (m *MemoryStore) PutScanResult(_ context.Context, result CachedResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.results[result.URL] = result

	return nil
}

// UpsertURL implements Store
func (m *MemoryStore) UpsertURL(_ context.Context, originalURL, normalizedURL string) (URLRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record, ok := m.urls[normalizedURL]; ok {
		return record, nil
	}

	record := URLRecord{
		ID:            uuid.NewString(),
		OriginalURL:   originalURL,
		NormalizedURL: normalizedURL,
		CreatedAt:     time.Now().UTC(),
	}

	m.urls[normalizedURL] = record

	return record, nil
}

// CreateReport implements Store
func (m *MemoryStore) CreateReport(_ context.Context, urlID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reports[urlID] = append(m.reports[urlID], reason)

	return nil
}

// CountReports implements Store
func (m *MemoryStore) CountReports(_ context.Context, urlID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.reports[urlID]), nil
}

// HasIntelHit implements Store
func (m *MemoryStore) HasIntelHit(_ context.Context, urlID, provider string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.intel[urlID+"\x00"+provider]

	return ok, nil
}

// RecordIntelHit implements Store
func (m *MemoryStore) RecordIntelHit(_ context.Context, urlID, provider, verdict string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.intel[urlID+"\x00"+provider] = verdict

	return nil
}

// Close implements Store
func (m *MemoryStore) Close() error {
	return nil
}
