package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/glebarez/sqlite" // pure Go, no cgo needed
	"github.com/google/uuid"
)

// schema bootstraps the tables on open; IF NOT EXISTS keeps reopening cheap
const schema = `
CREATE TABLE IF NOT EXISTS scan_results (
	url        TEXT PRIMARY KEY,
	risk_score INTEGER NOT NULL,
	data       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS urls (
	id             TEXT PRIMARY KEY,
	original_url   TEXT NOT NULL,
	normalized_url TEXT NOT NULL UNIQUE,
	created_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS url_reports (
	id         TEXT PRIMARY KEY,
	url_id     TEXT NOT NULL REFERENCES urls(id),
	reason     TEXT,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS threat_intel_hits (
	id         TEXT PRIMARY KEY,
	url_id     TEXT NOT NULL REFERENCES urls(id),
	provider   TEXT NOT NULL,
	verdict    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// SQLiteStore persists everything in a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating when missing) the database at path and
// bootstraps the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// GetScanResult implements Store
func (s *SQLiteStore) GetScanResult(ctx context.Context, url string) (*CachedResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT url, risk_score, data, created_at FROM scan_results WHERE url = ?`, url)

	var result CachedResult
	if err := row.Scan(&result.URL, &result.RiskScore, &result.Data, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &result, nil
}

// PutScanResult implements Store; last writer wins
func (s *SQLiteStore) PutScanResult(ctx context.Context, result CachedResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_results (url, risk_score, data, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET risk_score = excluded.risk_score, data = excluded.data, created_at = excluded.created_at`,
		result.URL, result.RiskScore, result.Data, result.CreatedAt)

	return err
}

// UpsertURL implements Store
func (s *SQLiteStore) UpsertURL(ctx context.Context, originalURL, normalizedURL string) (URLRecord, error) {
	existing := s.db.QueryRowContext(ctx,
		`SELECT id, original_url, normalized_url, created_at FROM urls WHERE normalized_url = ?`, normalizedURL)

	var record URLRecord

	err := existing.Scan(&record.ID, &record.OriginalURL, &record.NormalizedURL, &record.CreatedAt)
	if err == nil {
		return record, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return URLRecord{}, err
	}

	record = URLRecord{
		ID:            uuid.NewString(),
		OriginalURL:   originalURL,
		NormalizedURL: normalizedURL,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO urls (id, original_url, normalized_url, created_at) VALUES (?, ?, ?, ?)`,
		record.ID, record.OriginalURL, record.NormalizedURL, record.CreatedAt)
	if err != nil {
		return URLRecord{}, err
	}

	return record, nil
}

// CreateReport implements Store
func (s *SQLiteStore) CreateReport(ctx context.Context, urlID, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO url_reports (id, url_id, reason, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), urlID, reason, time.Now().UTC())

	return err
}

// CountReports implements Store
func (s *SQLiteStore) CountReports(ctx context.Context, urlID string) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(id) FROM url_reports WHERE url_id = ?`, urlID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// HasIntelHit implements Store
func (s *SQLiteStore) HasIntelHit(ctx context.Context, urlID, provider string) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(id) FROM threat_intel_hits WHERE url_id = ? AND provider = ?`, urlID, provider)

	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

// RecordIntelHit implements Store
func (s *SQLiteStore) RecordIntelHit(ctx context.Context, urlID, provider, verdict string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO threat_intel_hits (id, url_id, provider, verdict, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), urlID, provider, verdict, time.Now().UTC())

	return err
}

// Close implements Store
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
