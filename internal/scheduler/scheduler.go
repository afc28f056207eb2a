// Package scheduler pre-generates panel images on an interval and
// prunes stale cache and usage rows.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Rhiz3K/InkyCloud-F1/internal/storage"
)

// Generator produces and caches one rendered panel for a locale.
type Generator interface {
	Generate(ctx context.Context, lang, tz string) ([]byte, error)
}

// retention bounds how long cache entries and usage rows are kept.
const retention = 14 * 24 * time.Hour

// Scheduler refreshes the image cache ahead of client requests so that
// e-paper panels never wait on the upstream API.
type Scheduler struct {
	gen      Generator
	store    storage.Store
	interval time.Duration
	lang     string
	tz       string
	log      *zap.Logger
}

// New builds a scheduler refreshing the lang/tz panel every interval.
func New(gen Generator, store storage.Store, interval time.Duration, lang, tz string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		gen:      gen,
		store:    store,
		interval: interval,
		lang:     lang,
		tz:       tz,
		log:      logger,
	}
}

// Run generates once immediately, then on every tick until ctx is
// cancelled. Generation failures are logged and retried next tick.
func (s *Scheduler) Run(ctx context.Context) {
	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	cleanup := time.NewTicker(24 * time.Hour)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.refresh(ctx)
		case <-cleanup.C:
			s.cleanup(ctx)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	start := time.Now()
	_, err := s.gen.Generate(ctx, s.lang, s.tz)
	if err != nil {
		s.log.Warn("scheduled generation failed", zap.Error(err))
		return
	}
	s.log.Info("panel refreshed",
		zap.String("lang", s.lang),
		zap.String("tz", s.tz),
		zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) cleanup(ctx context.Context) {
	before := time.Now().Add(-retention)
	if err := s.store.Cleanup(ctx, before); err != nil {
		s.log.Warn("cleanup failed", zap.Error(err))
		return
	}
	s.log.Info("stale rows pruned", zap.Time("before", before))
}
