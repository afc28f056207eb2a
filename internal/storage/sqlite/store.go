// Package sqlite provides a SQLite implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Rhiz3K/InkyCloud-F1/internal/storage"

	_ "modernc.org/sqlite"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sql.DB
}

// NewMemoryStore creates an in-memory SQLite store.
func NewMemoryStore() (*Store, error) {
	return newStore(":memory:")
}

// NewFileStore creates a file-based SQLite store.
func NewFileStore(path string) (*Store, error) {
	return newStore(path)
}

func newStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Image cache methods

func (s *Store) CacheImage(ctx context.Context, img *storage.CachedImage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO generated_images (key, data, race_name, generated_at)
		VALUES (?, ?, ?, ?)
	`, img.Key, img.Data, img.RaceName, img.GeneratedAt)
	return err
}

func (s *Store) GetCachedImage(ctx context.Context, key string) (*storage.CachedImage, error) {
	var img storage.CachedImage
	err := s.db.QueryRowContext(ctx, `
		SELECT key, data, race_name, generated_at FROM generated_images WHERE key = ?
	`, key).Scan(&img.Key, &img.Data, &img.RaceName, &img.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound{Resource: "generated_image", ID: key}
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// Usage record methods

func (s *Store) RecordRequest(ctx context.Context, rec *storage.RequestRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (path, language, timezone, status, duration_ms, served_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.Path, rec.Language, rec.Timezone, rec.Status, rec.DurationMS, rec.ServedAt)
	return err
}

func (s *Store) RecordAPICall(ctx context.Context, call *storage.APICall) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_calls (endpoint, status, duration_ms, called_at)
		VALUES (?, ?, ?, ?)
	`, call.Endpoint, call.Status, call.DurationMS, call.CalledAt)
	return err
}

func (s *Store) Stats(ctx context.Context) (*storage.Stats, error) {
	stats := &storage.Stats{ByLanguage: map[string]int{}}
	dayStart := time.Now().Truncate(24 * time.Hour)

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM requests").Scan(&stats.TotalRequests); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM requests WHERE served_at >= ?", dayStart).Scan(&stats.RequestsToday); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM api_calls WHERE called_at >= ?", dayStart).Scan(&stats.APICallsToday); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM generated_images").Scan(&stats.CachedImages); err != nil {
		return nil, err
	}

	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx,
		"SELECT MAX(generated_at) FROM generated_images").Scan(&last); err != nil {
		return nil, err
	}
	if last.Valid {
		stats.LastGeneration = &last.Time
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT language, COUNT(*) FROM requests
		WHERE language != '' GROUP BY language
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var lang string
		var count int
		if err := rows.Scan(&lang, &count); err != nil {
			return nil, err
		}
		stats.ByLanguage[lang] = count
	}
	return stats, rows.Err()
}

// Cleanup drops stale cache entries and usage rows older than before.
func (s *Store) Cleanup(ctx context.Context, before time.Time) error {
	for _, q := range []string{
		"DELETE FROM generated_images WHERE generated_at < ?",
		"DELETE FROM requests WHERE served_at < ?",
		"DELETE FROM api_calls WHERE called_at < ?",
	} {
		if _, err := s.db.ExecContext(ctx, q, before); err != nil {
			return err
		}
	}
	return nil
}

// Verify interface compliance
var _ storage.Store = (*Store)(nil)
