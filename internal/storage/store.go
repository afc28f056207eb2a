// Package storage defines the persistence interface for cached panel
// images and usage records.
package storage

import (
	"context"
	"fmt"
	"time"
)

// CachedImage is one pre-rendered panel keyed by language, timezone and
// race round.
type CachedImage struct {
	Key         string
	Data        []byte
	RaceName    string
	GeneratedAt time.Time
}

// RequestRecord is one served HTTP request.
type RequestRecord struct {
	Path       string
	Language   string
	Timezone   string
	Status     int
	DurationMS int64
	ServedAt   time.Time
}

// APICall is one upstream API fetch attempt.
type APICall struct {
	Endpoint   string
	Status     int
	DurationMS int64
	CalledAt   time.Time
}

// Stats is the aggregate view served by the stats endpoint.
type Stats struct {
	TotalRequests  int            `json:"total_requests"`
	RequestsToday  int            `json:"requests_today"`
	APICallsToday  int            `json:"api_calls_today"`
	CachedImages   int            `json:"cached_images"`
	ByLanguage     map[string]int `json:"requests_by_language"`
	LastGeneration *time.Time     `json:"last_generation,omitempty"`
}

// Store is the persistence interface. Implementations must be safe for
// concurrent use.
type Store interface {
	CacheImage(ctx context.Context, img *CachedImage) error
	GetCachedImage(ctx context.Context, key string) (*CachedImage, error)
	RecordRequest(ctx context.Context, rec *RequestRecord) error
	RecordAPICall(ctx context.Context, call *APICall) error
	Stats(ctx context.Context) (*Stats, error)
	Cleanup(ctx context.Context, before time.Time) error
	Close() error
}

// ErrNotFound indicates a missing row.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// CacheKey builds the canonical cache key for a rendered panel.
func CacheKey(lang, tz, round string) string {
	return lang + "|" + tz + "|" + round
}
