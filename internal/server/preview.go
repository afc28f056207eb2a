package server

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	svg "github.com/ajstarks/svgo"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Rhiz3K/InkyCloud-F1/internal/f1"
)

// Social preview card dimensions (Open Graph standard).
const (
	previewWidth  = 1200
	previewHeight = 630
)

// servePreview renders a link-preview card with the upcoming race name
// and date. Unlike the BMP endpoint, data failures here return a 503;
// no display hardware depends on this route.
func (s *Server) servePreview(c *fiber.Ctx) error {
	race, _, err := s.fetchRaceData(c.Context())
	if err != nil {
		s.log.Warn("preview generation failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).SendString("race data unavailable")
	}

	var buf bytes.Buffer
	writePreviewSVG(&buf, race)

	c.Set("Content-Type", "image/svg+xml")
	c.Set("Content-Length", strconv.Itoa(buf.Len()))
	return c.Send(buf.Bytes())
}

func writePreviewSVG(buf *bytes.Buffer, race *f1.RaceView) {
	canvas := svg.New(buf)
	canvas.Start(previewWidth, previewHeight)

	canvas.Rect(0, 0, previewWidth, previewHeight, "fill:#111111")
	canvas.Rect(0, 0, previewWidth, 12, "fill:#e10600")

	canvas.Text(60, 150, race.Season+" FIA F1 World Championship",
		"font-family:sans-serif;font-size:36px;fill:#aaaaaa")
	canvas.Text(60, 250, strings.ToUpper(race.RaceName),
		"font-family:sans-serif;font-size:64px;font-weight:bold;fill:#ffffff")

	venue := strings.ToUpper(race.Circuit.Country)
	if race.Circuit.Locality != "" {
		venue += ", " + strings.ToUpper(race.Circuit.Locality)
	}
	canvas.Text(60, 330, venue+" | "+race.Circuit.Name,
		"font-family:sans-serif;font-size:32px;fill:#dddddd")

	if race.RaceDate != "" {
		canvas.Text(60, 420, race.RaceDate,
			"font-family:sans-serif;font-size:48px;fill:#e10600")
	}

	for _, event := range race.Schedule {
		if strings.EqualFold(event.Name, f1.SessionRace) && !event.Time.IsZero() {
			canvas.Text(60, 480, event.Time.Format("Monday 15:04 MST"),
				"font-family:sans-serif;font-size:32px;fill:#cccccc")
			break
		}
	}

	canvas.Text(60, previewHeight-50,
		"generated "+time.Now().UTC().Format("2006-01-02 15:04 UTC"),
		"font-family:sans-serif;font-size:20px;fill:#555555")
	canvas.End()
}
