package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Rhiz3K/InkyCloud-F1/internal/f1"
	"github.com/Rhiz3K/InkyCloud-F1/internal/i18n"
)

// baselineRef contains a locale's tallest ascenders and deepest
// descenders. It is only ever measured, never drawn, so that box
// heights and title baselines stay identical across languages with
// different diacritic sets.
const baselineRef = "ÁŽÝgy"

// seriesName is the first header line, prefixed with the season year.
const seriesName = "FIA F1 World Championship"

// Renderer produces 800x480 1-bit BMP images for one locale. Font,
// asset and circuit tables are shared and immutable; each Render call
// owns its canvas exclusively, so one Renderer may serve concurrent
// calls.
type Renderer struct {
	tr       *i18n.Translator
	fonts    *Fonts
	assets   *Assets
	circuits map[string]f1.CircuitInfo
	layout   Layout
	now      func() time.Time
}

// Option adjusts renderer construction.
type Option func(*Renderer)

// WithClock substitutes the countdown time source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithLayout overrides the layout table.
func WithLayout(l Layout) Option {
	return func(r *Renderer) { r.layout = l }
}

// New builds a renderer around shared, process-lifetime resources.
func New(tr *i18n.Translator, fonts *Fonts, assets *Assets, circuits map[string]f1.CircuitInfo, opts ...Option) *Renderer {
	r := &Renderer{
		tr:       tr,
		fonts:    fonts,
		assets:   assets,
		circuits: circuits,
		layout:   DefaultLayout(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws the full calendar image and returns it as BMP bytes.
// Sections run in fixed order because later ones consume Y offsets
// computed by earlier ones.
func (r *Renderer) Render(race *f1.RaceView, hist *f1.HistoricalData) []byte {
	c := NewCanvas()

	r.drawHeader(c, race)
	r.drawTrackSection(c, race)
	r.drawScheduleSection(c, race)
	r.drawCircuitStats(c, race)
	r.drawResultsSection(c, race, hist)

	return EncodeBMP(c.Image())
}

// RenderError draws the fallback error page: same dimensions and
// encoder as the normal path, so display clients always get a valid
// image.
func (r *Renderer) RenderError(message string) []byte {
	c := NewCanvas()
	pad := r.layout.Padding

	label := r.tr.Get("error", "Error")
	c.DrawText(label+":", pad, pad, r.fonts.Face(fontScheduleTitle), Black, false)

	runes := []rune(message)
	if len(runes) > 60 {
		runes = runes[:60]
	}
	c.DrawText(string(runes), pad, pad+50, r.fonts.Face(fontScheduleRow), Black, false)

	return EncodeBMP(c.Image())
}

// header: white logo block left of the split, black title band right.
func (r *Renderer) drawHeader(c *Canvas, race *f1.RaceView) {
	headerH := r.layout.HeaderHeight
	splitX := r.layout.HeaderSplitX

	c.FillRect(0, 0, splitX, headerH, White)
	c.HLine(0, headerH-1, splitX, r.layout.SeparatorWidth, Black)
	c.FillRect(splitX+1, 0, DisplayWidth-splitX-1, headerH, Black)

	r.drawHeaderLogo(c, splitX, headerH)

	line1 := fmt.Sprintf("%s %s", race.Season, seriesName)
	line2 := strings.ToUpper(race.RaceName)

	textX := splitX + r.layout.HeaderPaddingX
	startY := (headerH-80)/2 - 5

	face := r.fonts.Face(fontHeaderTitle)
	c.DrawText(line1, textX, startY, face, White, false)
	c.DrawText(line2, textX, startY+40, face, White, false)
}

func (r *Renderer) drawHeaderLogo(c *Canvas, width, height int) {
	logo := r.assets.Logo()
	if logo == nil {
		return
	}

	pad := 2
	gray := ScaleToFit(toGray(logo), width-2*pad, height-2*pad, false)
	// No inversion: dark logo pixels stay dark against the white block.
	binary := Threshold(gray, binaryThreshold)

	x := (width - binary.Bounds().Dx()) / 2
	y := (height - binary.Bounds().Dy()) / 2
	c.PasteDark(binary, x, y)
}

// track map plus the "COUNTRY, CITY | CIRCUIT" label, whose bottom is
// pinned 3px above the results separator.
func (r *Renderer) drawTrackSection(c *Canvas, race *f1.RaceView) {
	country := strings.ToUpper(race.Circuit.Country)
	city := strings.ToUpper(race.Circuit.Locality)

	var label string
	if city != "" {
		label = fmt.Sprintf("%s, %s | %s", country, city, race.Circuit.Name)
	} else {
		label = fmt.Sprintf("%s | %s", country, race.Circuit.Name)
	}

	face := r.fonts.Face(fontCircuitName)
	top, bottom, _ := TextBox(face, label)

	resultsLineY := r.layout.ResultsYStart
	labelY := resultsLineY - 3 - bottom
	textVisualTop := labelY + top

	sideMargin := r.layout.TrackSideMargin
	trackTop := r.layout.TrackTop
	availH := textVisualTop - sideMargin - trackTop
	availW := r.layout.LeftColumnWidth - 2*sideMargin

	asset := r.assets.Track(race.Circuit.ID, race.Circuit.Locality)
	switch asset.Kind {
	case TrackAssetBinary:
		scaled := ScaleToFit(asset.Image, availW, availH, true)
		c.Paste(scaled, sideMargin, trackTop)
	case TrackAssetRaster:
		cropped := CropToContent(asset.Image)
		scaled := ScaleToFit(cropped, availW, availH, false)
		// Higher cutoff keeps thin hand-drawn lines after smoothing.
		c.Paste(Threshold(scaled, 200), sideMargin, trackTop)
	default:
		c.drawTrackPlaceholder(sideMargin, trackTop, availW, availH)
	}

	c.DrawText(label, r.layout.Padding, labelY, face, Black, false)
}

// schedule rows plus the countdown box; returns the countdown bottom Y.
func (r *Renderer) drawScheduleSection(c *Canvas, race *f1.RaceView) int {
	xStart := r.layout.RightColumnX

	title := r.tr.Get("weekend_schedule", "WEEKEND SCHEDULE")
	c.DrawText(title, xStart, r.layout.ScheduleTitleY, r.fonts.Face(fontScheduleTitle), Black, false)

	rowY := r.layout.ScheduleStartY
	for _, event := range race.Schedule {
		r.drawScheduleRow(c, rowY, event)
		rowY += r.layout.ScheduleRowH
		if rowY > r.layout.ScheduleGuardY() {
			// remaining entries are dropped, not wrapped
			break
		}
	}

	return r.drawCountdownBox(c, race, rowY+5)
}

func (r *Renderer) drawScheduleRow(c *Canvas, y int, event f1.ScheduleEvent) {
	var dateStr, dayStr, timeStr string
	if !event.Time.IsZero() {
		dateStr = event.Time.Format("02.01.")
		abbr := event.Time.Format("Mon")
		dayStr = r.tr.Get("day_"+strings.ToLower(abbr), abbr)
		timeStr = event.Time.Format("15:04")
	} else {
		timeStr = event.DisplayTime
	}

	name := r.tr.Get("session_"+strings.ToLower(event.Name), event.Name)

	reg := r.fonts.Face(fontScheduleRow)
	c.DrawText(dateStr, r.layout.ScheduleDateX, y, reg, Black, false)
	c.DrawText(dayStr, r.layout.ScheduleDayX, y, reg, Black, false)
	c.DrawText(timeStr, r.layout.ScheduleTimeX, y, reg, Black, false)
	c.DrawText(name, r.layout.ScheduleNameX, y, r.fonts.Face(fontScheduleBold), Black, false)
}

// drawCountdownBox draws a solid black box with the remaining time
// until the race, centered between the schedule and the stats block.
// Omitted when the race is unknown or already underway; the box height
// comes from the reference string so it cannot jitter between locales.
func (r *Renderer) drawCountdownBox(c *Canvas, race *f1.RaceView, scheduleBottom int) int {
	var raceTime time.Time
	for _, event := range race.Schedule {
		if strings.EqualFold(event.Name, f1.SessionRace) && !event.Time.IsZero() {
			raceTime = event.Time
			break
		}
	}
	if raceTime.IsZero() {
		return scheduleBottom
	}

	delta := raceTime.Sub(r.now())
	if delta <= 0 {
		return scheduleBottom
	}

	days := int(delta.Hours()) / 24
	hours := int(delta.Hours()) % 24

	text := fmt.Sprintf("%s %d %s %d %s",
		r.tr.Get("countdown_in", "IN"),
		days, r.tr.Get("countdown_days", "days"),
		hours, r.tr.Get("countdown_hours", "hours"))

	face := r.fonts.Face(fontScheduleBold)
	refTop, refBottom, _ := TextBox(face, baselineRef)
	textHeight := refBottom - refTop

	const paddingY = 6
	boxH := textHeight + 2*paddingY

	xLeft := r.layout.RightColumnX
	xRight := DisplayWidth - 5

	statsTop := r.layout.ResultsYStart - 3 - 3*r.layout.StatsRowH
	yTop := scheduleBottom + (statsTop-scheduleBottom-boxH)/2
	yBottom := yTop + boxH

	c.FillRect(xLeft, yTop, xRight-xLeft, boxH, Black)

	textX := xLeft + (xRight-xLeft-MeasureText(face, text))/2
	textY := yTop + paddingY - refTop
	c.DrawText(text, textX, textY, face, White, false)

	return yBottom
}

// circuit statistics block, right-aligned, bottom pinned 3px above the
// results separator like the circuit label on the left.
func (r *Renderer) drawCircuitStats(c *Canvas, race *f1.RaceView) {
	info, ok := r.circuits[f1.CanonicalCircuitID(race.Circuit.ID)]
	if !ok {
		return
	}

	type stat struct{ icon, text string }
	var stats []stat

	if info.Length != "" {
		line := info.Length
		if info.Laps > 0 {
			line += fmt.Sprintf(" | %d %s", info.Laps, r.tr.Get("laps", "laps"))
		}
		if info.RaceDistance != "" {
			line += " | " + info.RaceDistance
		}
		stats = append(stats, stat{"📏", line})
	}

	if info.FastestLapTime != "" {
		line := info.FastestLapTime
		// Fields guards against whitespace-only driver metadata.
		if parts := strings.Fields(info.FastestLapDriver); len(parts) > 0 {
			last := parts[len(parts)-1]
			if info.FastestLapYear > 0 {
				line += fmt.Sprintf(" (%s, %d)", last, info.FastestLapYear)
			} else {
				line += fmt.Sprintf(" (%s)", last)
			}
		}
		stats = append(stats, stat{"⚡", line})
	}

	if info.FirstGrandPrix > 0 {
		stats = append(stats, stat{"🗓", fmt.Sprintf("%s: %d",
			r.tr.Get("first_gp", "First GP"), info.FirstGrandPrix)})
	}

	if len(stats) == 0 {
		return
	}

	rowH := r.layout.StatsRowH
	yStart := r.layout.ResultsYStart - 3 - len(stats)*rowH

	iconFace := r.fonts.Face(fontIconSmall)
	valueFace := r.fonts.Face(fontStatsValue)

	maxIconW, maxTextW := 0, 0
	for _, s := range stats {
		if w := MeasureText(iconFace, s.icon); w > maxIconW {
			maxIconW = w
		}
		if w := MeasureText(valueFace, s.text); w > maxTextW {
			maxTextW = w
		}
	}

	const iconTextGap = 4
	const rightMargin = 5
	blockX := DisplayWidth - rightMargin - (maxIconW + iconTextGap + maxTextW)
	textX := blockX + maxIconW + iconTextGap

	y := yStart
	for _, s := range stats {
		iconX := blockX + maxIconW - MeasureText(iconFace, s.icon)
		c.DrawText(s.icon, iconX, y, iconFace, Black, false)
		c.DrawText(s.text, textX, y, valueFace, Black, false)
		y += rowH
	}
}

// results footer: separator, year numeral + flag on the left, two
// podium columns aligned to the year's visual top.
func (r *Renderer) drawResultsSection(c *Canvas, race *f1.RaceView, hist *f1.HistoricalData) {
	yStart := r.layout.ResultsYStart
	c.HLine(0, yStart, DisplayWidth, r.layout.SeparatorWidth, Black)

	if hist == nil || hist.IsNewTrack {
		r.drawNewTrackMessage(c, yStart)
		return
	}

	visualTop := r.drawResultsHeader(c, yStart, hist.Season, race.Circuit.Country)

	r.drawResultsColumn(c, r.layout.ResultsCol1X, visualTop,
		r.tr.Get("qualifying", "QUALIFYING"), hist.Qualifying)
	r.drawResultsColumn(c, r.layout.ResultsCol2X, visualTop,
		r.tr.Get("race", "RACE"), hist.Race)
}

func (r *Renderer) drawNewTrackMessage(c *Canvas, yStart int) {
	message := r.tr.Get("new_track", "NEW TRACK")
	face := r.fonts.Face(fontScheduleTitle)
	x := (DisplayWidth - MeasureText(face, message)) / 2
	c.DrawText(message, x, yStart+30, face, Black, false)
}

// drawResultsHeader centers the season numeral and flag as one block in
// the footer and returns the block's visual top for column alignment.
func (r *Renderer) drawResultsHeader(c *Canvas, yStart, season int, country string) int {
	yearText := ""
	if season > 0 {
		yearText = strconv.Itoa(season)
	}
	yearFace := r.fonts.Face(fontResultsYear)
	top, bottom, yearW := TextBox(yearFace, yearText)
	textH := bottom - top

	footerH := DisplayHeight - yStart
	headerAreaW := r.layout.ResultsCol1X

	flag := r.assets.Flag(country)
	flagH := 0
	if flag != nil {
		maxFlagW := headerAreaW * 8 / 10
		if flag.Bounds().Dx() > maxFlagW {
			flag = ScaleToWidth(flag, maxFlagW, true)
		}
		flagH = flag.Bounds().Dy()
	}

	// A fixed 3px gap keeps the year's position stable whether or not
	// a flag was found.
	const standardGap = 3
	totalBlockH := textH + flagH
	if flagH > 0 {
		totalBlockH += standardGap
	}
	visualTop := yStart + (footerH-totalBlockH)/2

	yearX := (headerAreaW - yearW) / 2
	textY := visualTop - top
	c.DrawText(yearText, yearX, textY, yearFace, Black, false)

	if flag != nil {
		fw := flag.Bounds().Dx()
		fh := flag.Bounds().Dy()
		x := (headerAreaW - fw) / 2
		y := textY + bottom + 6
		c.Paste(flag, x, y)
		c.OutlineRect(x-1, y-1, fw+2, fh+2, Black)
	}

	return visualTop
}

func (r *Renderer) drawResultsColumn(c *Canvas, xStart, visualTop int, title string, results []f1.ResultEntry) {
	titleFace := r.fonts.Face(fontResultsTitle)
	refTop, _, _ := TextBox(titleFace, baselineRef)
	headerY := visualTop - refTop
	c.DrawText(title, xStart, headerY, titleFace, Black, false)

	timeX := xStart + r.layout.ResultsTimeOffset
	rowFace := r.fonts.Face(fontResultsRow)

	_, hgBottom, _ := TextBox(titleFace, "Hg")
	headerVisualBottom := headerY + hgBottom

	rowTop, _, _ := TextBox(rowFace, "1")
	yRowsStart := headerVisualBottom + r.layout.ResultsDataYGap - rowTop

	maxWidth := r.layout.ResultsTimeOffset - 10
	for i, entry := range results {
		if i >= 3 {
			break
		}
		y := yRowsStart + i*r.layout.ResultsRowH
		text := fitText(rowFace, maxWidth, entry.Position, entry.Driver, entry.Team)
		c.DrawText(text, xStart, y, rowFace, Black, false)
		if entry.Time != "" {
			c.DrawText(entry.Time, timeX, y, rowFace, Black, false)
		}
	}
}
