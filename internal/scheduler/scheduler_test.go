package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rhiz3K/InkyCloud-F1/internal/storage"
	"github.com/Rhiz3K/InkyCloud-F1/internal/storage/sqlite"
)

type countingGenerator struct {
	calls atomic.Int32
	fail  bool
}

func (g *countingGenerator) Generate(ctx context.Context, lang, tz string) ([]byte, error) {
	g.calls.Add(1)
	if g.fail {
		return nil, context.DeadlineExceeded
	}
	return []byte("BM"), nil
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunGeneratesImmediatelyAndOnTick(t *testing.T) {
	gen := &countingGenerator{}
	s := New(gen, newTestStore(t), 20*time.Millisecond, "en", "UTC", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return gen.calls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}

func TestRunSurvivesGenerationFailures(t *testing.T) {
	gen := &countingGenerator{fail: true}
	s := New(gen, newTestStore(t), 15*time.Millisecond, "en", "UTC", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	assert.Eventually(t, func() bool {
		return gen.calls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond, "failures must not stop the loop")
}
