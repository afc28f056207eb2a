// Package server exposes the rendered panel over HTTP and owns the
// fetch-render-cache pipeline behind it.
package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Rhiz3K/InkyCloud-F1/internal/config"
	"github.com/Rhiz3K/InkyCloud-F1/internal/f1"
	"github.com/Rhiz3K/InkyCloud-F1/internal/i18n"
	"github.com/Rhiz3K/InkyCloud-F1/internal/render"
	"github.com/Rhiz3K/InkyCloud-F1/internal/storage"
)

// Server serves calendar images and usage statistics. Rendering shares
// process-lifetime font and asset tables; each request gets its own
// renderer bound to the requested locale.
type Server struct {
	cfg      *config.Config
	client   *f1.Client
	static   *f1.Static
	store    storage.Store
	fonts    *render.Fonts
	assets   *render.Assets
	circuits map[string]f1.CircuitInfo
	catalog  *i18n.Catalog
	log      *zap.Logger

	app *fiber.App

	// genMu serializes generation so concurrent cache misses do not
	// each hit the upstream API.
	genMu sync.Mutex
}

// New wires the server. All collaborators are required except circuits,
// which may be nil.
func New(cfg *config.Config, client *f1.Client, static *f1.Static, store storage.Store,
	fonts *render.Fonts, assets *render.Assets, circuits map[string]f1.CircuitInfo,
	catalog *i18n.Catalog, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		client:   client,
		static:   static,
		store:    store,
		fonts:    fonts,
		assets:   assets,
		circuits: circuits,
		catalog:  catalog,
		log:      logger,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
	})

	// Routes
	app.Get("/calendar.bmp", s.serveCalendar)
	app.Get("/preview.svg", s.servePreview)
	app.Get("/health", s.serveHealth)
	app.Get("/api/stats", s.serveStats)

	s.app = app
	return s
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.log.Info("starting HTTP server", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// Generate returns the panel BMP for a locale, from cache when fresh,
// otherwise freshly rendered and cached. Data-source failures fall back
// to the static files before giving up.
func (s *Server) Generate(ctx context.Context, lang, tz string) ([]byte, error) {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	key := storage.CacheKey(lang, tz, "current")
	if cached, err := s.store.GetCachedImage(ctx, key); err == nil {
		if time.Since(cached.GeneratedAt) < s.cfg.RefreshEvery {
			return cached.Data, nil
		}
	}

	race, hist, err := s.fetchRaceData(ctx)
	if err != nil {
		return nil, err
	}
	race = f1.ConvertTimezone(race, tz)

	renderer := render.New(s.catalog.Translator(lang), s.fonts, s.assets, s.circuits)
	data := renderer.Render(race, hist)

	img := &storage.CachedImage{
		Key:         key,
		Data:        data,
		RaceName:    race.RaceName,
		GeneratedAt: time.Now(),
	}
	if err := s.store.CacheImage(ctx, img); err != nil {
		s.log.Warn("caching image failed", zap.Error(err))
	}
	return data, nil
}

func (s *Server) fetchRaceData(ctx context.Context) (*f1.RaceView, *f1.HistoricalData, error) {
	start := time.Now()
	race, err := s.client.NextRace(ctx)
	s.recordAPICall(ctx, "next_race", err, start)
	if err != nil {
		s.log.Warn("API fetch failed, trying static data", zap.Error(err))
		race, err = s.static.NextRace(time.Now())
		if err != nil {
			return nil, nil, err
		}
		return race, s.static.Historical(race.Circuit.ID), nil
	}

	season, convErr := strconv.Atoi(race.Season)
	if convErr != nil {
		season = time.Now().Year()
	}

	start = time.Now()
	hist, err := s.client.Historical(ctx, race.Circuit.ID, season)
	s.recordAPICall(ctx, "historical", err, start)
	if err != nil {
		s.log.Warn("historical fetch failed, using static data", zap.Error(err))
		hist = s.static.Historical(race.Circuit.ID)
	}
	return race, hist, nil
}

func (s *Server) recordAPICall(ctx context.Context, endpoint string, callErr error, start time.Time) {
	status := 200
	if callErr != nil {
		status = 0
	}
	err := s.store.RecordAPICall(ctx, &storage.APICall{
		Endpoint:   endpoint,
		Status:     status,
		DurationMS: time.Since(start).Milliseconds(),
		CalledAt:   time.Now(),
	})
	if err != nil {
		s.log.Warn("recording api call failed", zap.Error(err))
	}
}

// serveCalendar always answers with a valid BMP: data failures produce
// the error panel rather than a 5xx, so e-paper clients never display a
// stale or broken frame.
func (s *Server) serveCalendar(c *fiber.Ctx) error {
	start := time.Now()
	lang := s.catalog.Normalize(c.Query("lang", s.cfg.DefaultLang))
	tz := c.Query("tz", s.cfg.DefaultTimezone)

	data, err := s.Generate(c.Context(), lang, tz)
	if err != nil {
		s.log.Error("generation failed", zap.Error(err))
		renderer := render.New(s.catalog.Translator(lang), s.fonts, s.assets, s.circuits)
		data = renderer.RenderError(err.Error())
	}

	s.recordRequest(c, lang, tz, fiber.StatusOK, start)

	c.Set("Content-Type", "image/bmp")
	c.Set("Content-Length", strconv.Itoa(len(data)))
	return c.Send(data)
}

func (s *Server) recordRequest(c *fiber.Ctx, lang, tz string, status int, start time.Time) {
	err := s.store.RecordRequest(c.Context(), &storage.RequestRecord{
		Path:       c.Path(),
		Language:   lang,
		Timezone:   tz,
		Status:     status,
		DurationMS: time.Since(start).Milliseconds(),
		ServedAt:   time.Now(),
	})
	if err != nil {
		s.log.Warn("recording request failed", zap.Error(err))
	}
}

func (s *Server) serveHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) serveStats(c *fiber.Ctx) error {
	stats, err := s.store.Stats(c.Context())
	if err != nil {
		var notFound storage.ErrNotFound
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		s.log.Error("stats query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats unavailable"})
	}
	return c.JSON(stats)
}
