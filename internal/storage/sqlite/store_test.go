package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rhiz3K/InkyCloud-F1/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir() + "/test.db")
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store)
}

func TestCacheAndGetImage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	img := &storage.CachedImage{
		Key:         storage.CacheKey("en", "Europe/Prague", "current"),
		Data:        []byte{0x42, 0x4D, 0x00},
		RaceName:    "Italian Grand Prix",
		GeneratedAt: time.Now(),
	}
	require.NoError(t, store.CacheImage(ctx, img))

	got, err := store.GetCachedImage(ctx, img.Key)
	require.NoError(t, err)
	assert.Equal(t, img.Data, got.Data)
	assert.Equal(t, img.RaceName, got.RaceName)
}

func TestGetCachedImageNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetCachedImage(context.Background(), "missing")
	assert.ErrorAs(t, err, &storage.ErrNotFound{})
}

func TestCacheImageReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := storage.CacheKey("en", "UTC", "current")
	require.NoError(t, store.CacheImage(ctx, &storage.CachedImage{
		Key: key, Data: []byte{1}, GeneratedAt: time.Now(),
	}))
	require.NoError(t, store.CacheImage(ctx, &storage.CachedImage{
		Key: key, Data: []byte{2}, GeneratedAt: time.Now(),
	}))

	got, err := store.GetCachedImage(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, got.Data)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, lang := range []string{"en", "en", "cs"} {
		require.NoError(t, store.RecordRequest(ctx, &storage.RequestRecord{
			Path:     "/calendar.bmp",
			Language: lang,
			Timezone: "UTC",
			Status:   200,
			ServedAt: time.Now(),
		}))
	}
	require.NoError(t, store.RecordAPICall(ctx, &storage.APICall{
		Endpoint: "next_race",
		Status:   200,
		CalledAt: time.Now(),
	}))
	require.NoError(t, store.CacheImage(ctx, &storage.CachedImage{
		Key: "en|UTC|current", Data: []byte{1}, GeneratedAt: time.Now(),
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 3, stats.RequestsToday)
	assert.Equal(t, 1, stats.APICallsToday)
	assert.Equal(t, 1, stats.CachedImages)
	assert.Equal(t, 2, stats.ByLanguage["en"])
	assert.Equal(t, 1, stats.ByLanguage["cs"])
	require.NotNil(t, stats.LastGeneration)
}

func TestCleanup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, store.CacheImage(ctx, &storage.CachedImage{
		Key: "stale", Data: []byte{1}, GeneratedAt: old,
	}))
	require.NoError(t, store.CacheImage(ctx, &storage.CachedImage{
		Key: "fresh", Data: []byte{2}, GeneratedAt: time.Now(),
	}))
	require.NoError(t, store.RecordRequest(ctx, &storage.RequestRecord{
		Path: "/calendar.bmp", ServedAt: old,
	}))

	require.NoError(t, store.Cleanup(ctx, time.Now().Add(-14*24*time.Hour)))

	_, err := store.GetCachedImage(ctx, "stale")
	assert.Error(t, err)
	_, err = store.GetCachedImage(ctx, "fresh")
	assert.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalRequests)
}
