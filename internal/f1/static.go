package f1

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// staticHistorical is the embedded fallback podium stored alongside
// circuit metadata, used when the API is unreachable.
type staticHistorical struct {
	Season     int            `json:"season"`
	Qualifying []staticResult `json:"qualifying"`
	Race       []staticResult `json:"race"`
}

type staticResult struct {
	Position int    `json:"position"`
	Driver   string `json:"driver"`
	Team     string `json:"team"`
	Time     string `json:"time,omitempty"`
}

// Static serves race data from local JSON files when the API is down:
// season schedules from seasons/<year>.json and historical podiums from
// the circuit metadata file.
type Static struct {
	dir      string
	circuits map[string]CircuitInfo
	loc      *time.Location
	tzName   string
	log      *zap.Logger
}

// NewStatic builds a fallback source reading from dir. circuits may be
// nil when no metadata file was loaded.
func NewStatic(dir, timezone string, circuits map[string]CircuitInfo, logger *zap.Logger) *Static {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
		timezone = "UTC"
	}
	return &Static{
		dir:      dir,
		circuits: circuits,
		loc:      loc,
		tzName:   timezone,
		log:      logger,
	}
}

type staticSeason struct {
	Races []apiRace `json:"races"`
}

// NextRace scans the current and the following season file for the
// first race whose start lies after now.
func (s *Static) NextRace(now time.Time) (*RaceView, error) {
	for _, year := range []int{now.Year(), now.Year() + 1} {
		race, ok := s.nextInSeason(year, now)
		if ok {
			return race, nil
		}
	}
	return nil, fmt.Errorf("no upcoming race in static season files under %s", s.dir)
}

func (s *Static) nextInSeason(year int, now time.Time) (*RaceView, bool) {
	path := filepath.Join(s.dir, "seasons", strconv.Itoa(year)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("unreadable season file", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}
	var season staticSeason
	if err := json.Unmarshal(data, &season); err != nil {
		s.log.Warn("invalid season file", zap.String("path", path), zap.Error(err))
		return nil, false
	}

	type candidate struct {
		race  apiRace
		start time.Time
	}
	var candidates []candidate
	for _, race := range season.Races {
		// Season listings often omit the race time; assume a
		// mid-afternoon start so same-day lookups still match.
		timeStr := race.Time
		if timeStr == "" {
			timeStr = "14:00:00Z"
		}
		start, err := time.Parse(time.RFC3339, race.Date+"T"+timeStr)
		if err != nil {
			continue
		}
		if start.After(now) {
			candidates = append(candidates, candidate{race: race, start: start})
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].start.Before(candidates[j].start)
	})

	s.log.Info("serving race from static season file",
		zap.Int("year", year), zap.String("race", candidates[0].race.RaceName))
	return s.convert(candidates[0].race), true
}

// convert mirrors the client conversion for file-sourced races.
func (s *Static) convert(race apiRace) *RaceView {
	c := Client{loc: s.loc, tzName: s.tzName, log: s.log}
	return c.convertRaceTimes(race)
}

// Historical returns the embedded podium for a circuit, or an
// is-new-track record when none is stored.
func (s *Static) Historical(circuitID string) *HistoricalData {
	info, ok := s.circuits[CanonicalCircuitID(circuitID)]
	if !ok || info.Historical == nil {
		return &HistoricalData{IsNewTrack: true}
	}
	h := info.Historical
	return &HistoricalData{
		Season:     h.Season,
		Qualifying: convertStaticResults(h.Qualifying),
		Race:       convertStaticResults(h.Race),
	}
}

func convertStaticResults(in []staticResult) []ResultEntry {
	out := make([]ResultEntry, 0, len(in))
	for _, r := range in {
		out = append(out, ResultEntry{
			Position: r.Position,
			Driver:   r.Driver,
			Team:     r.Team,
			Time:     r.Time,
		})
	}
	return out
}

// LoadCircuits reads the per-venue metadata file. A missing file is not
// an error; the stats block is simply omitted.
func LoadCircuits(path string, logger *zap.Logger) map[string]CircuitInfo {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("unreadable circuit metadata", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	var circuits map[string]CircuitInfo
	if err := json.Unmarshal(data, &circuits); err != nil {
		logger.Warn("invalid circuit metadata", zap.String("path", path), zap.Error(err))
		return nil
	}
	logger.Info("loaded circuit metadata", zap.Int("circuits", len(circuits)))
	return circuits
}
