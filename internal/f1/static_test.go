package f1

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seasonJSON = `{
  "races": [
    {
      "season": "2026",
      "round": "15",
      "raceName": "Italian Grand Prix",
      "Circuit": {
        "circuitId": "monza",
        "circuitName": "Autodromo Nazionale di Monza",
        "Location": {"locality": "Monza", "country": "Italy"}
      },
      "date": "2026-09-06",
      "time": "13:00:00Z",
      "Qualifying": {"date": "2026-09-05", "time": "14:00:00Z"}
    },
    {
      "season": "2026",
      "round": "16",
      "raceName": "Madrid Grand Prix",
      "Circuit": {
        "circuitId": "madring",
        "circuitName": "Madring",
        "Location": {"locality": "Madrid", "country": "Spain"}
      },
      "date": "2026-09-13"
    }
  ]
}`

func writeSeasonFile(t *testing.T, dir string, year string) {
	t.Helper()
	seasons := filepath.Join(dir, "seasons")
	require.NoError(t, os.MkdirAll(seasons, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(seasons, year+".json"), []byte(seasonJSON), 0o644))
}

func TestStaticNextRace(t *testing.T) {
	dir := t.TempDir()
	writeSeasonFile(t, dir, "2026")
	s := NewStatic(dir, "UTC", nil, nil)

	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	race, err := s.NextRace(now)
	require.NoError(t, err)
	assert.Equal(t, "Italian Grand Prix", race.RaceName)

	// After Monza the next race is Madrid, whose start falls back to
	// mid-afternoon because the listing had no time.
	now = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	race, err = s.NextRace(now)
	require.NoError(t, err)
	assert.Equal(t, "Madrid Grand Prix", race.RaceName)
}

func TestStaticNextRaceSameDayCutoff(t *testing.T) {
	dir := t.TempDir()
	writeSeasonFile(t, dir, "2026")
	s := NewStatic(dir, "UTC", nil, nil)

	// One minute before lights out still shows Monza.
	race, err := s.NextRace(time.Date(2026, 9, 6, 12, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Italian Grand Prix", race.RaceName)

	// One minute after, Madrid.
	race, err = s.NextRace(time.Date(2026, 9, 6, 13, 1, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Madrid Grand Prix", race.RaceName)
}

func TestStaticNextRaceChecksFollowingSeason(t *testing.T) {
	dir := t.TempDir()
	writeSeasonFile(t, dir, "2026")
	s := NewStatic(dir, "UTC", nil, nil)

	// Late 2025: the 2025 file is absent, 2026 covers it.
	race, err := s.NextRace(time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Italian Grand Prix", race.RaceName)
}

func TestStaticNextRaceNoData(t *testing.T) {
	s := NewStatic(t.TempDir(), "UTC", nil, nil)
	_, err := s.NextRace(time.Now())
	assert.Error(t, err)
}

func TestStaticHistorical(t *testing.T) {
	circuits := map[string]CircuitInfo{
		"monza": {
			Historical: &staticHistorical{
				Season: 2025,
				Race: []staticResult{
					{Position: 1, Driver: "Verstappen", Team: "Red Bull", Time: "1:13:24.325"},
				},
			},
		},
	}
	s := NewStatic(t.TempDir(), "UTC", circuits, nil)

	hist := s.Historical("monza")
	assert.False(t, hist.IsNewTrack)
	assert.Equal(t, 2025, hist.Season)
	require.Len(t, hist.Race, 1)
	assert.Equal(t, "Verstappen", hist.Race[0].Driver)

	assert.True(t, s.Historical("madring").IsNewTrack)
}

func TestLoadCircuits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuits_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"monza": {"circuit_length": "5.793 km", "number_of_laps": 53, "first_grand_prix": 1950}
	}`), 0o644))

	circuits := LoadCircuits(path, nil)
	require.Contains(t, circuits, "monza")
	assert.Equal(t, 53, circuits["monza"].Laps)
	assert.Equal(t, 1950, circuits["monza"].FirstGrandPrix)
}

func TestLoadCircuitsMissingFile(t *testing.T) {
	assert.Nil(t, LoadCircuits(filepath.Join(t.TempDir(), "nope.json"), nil))
}
