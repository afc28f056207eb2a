package f1

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nextRaceJSON = `{
  "MRData": {
    "RaceTable": {
      "Races": [{
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
        "FirstPractice": {"date": "2026-09-04", "time": "11:30:00Z"},
        "SecondPractice": {"date": "2026-09-04", "time": "15:00:00Z"},
        "ThirdPractice": {"date": "2026-09-05", "time": "10:30:00Z"},
        "Qualifying": {"date": "2026-09-05", "time": "14:00:00Z"}
      }]
    }
  }
}`

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "Europe/Prague", 5*time.Second, nil)
}

func TestNextRace(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current/next.json", r.URL.Path)
		fmt.Fprint(w, nextRaceJSON)
	}))

	race, err := c.NextRace(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Italian Grand Prix", race.RaceName)
	assert.Equal(t, "monza", race.Circuit.ID)
	assert.Equal(t, "Italy", race.Circuit.Country)
	assert.Equal(t, "Europe/Prague", race.Timezone)
	require.Len(t, race.Schedule, 5)

	// Sorted ascending, race last.
	for i := 1; i < len(race.Schedule); i++ {
		assert.False(t, race.Schedule[i].Time.Before(race.Schedule[i-1].Time))
	}
	last := race.Schedule[len(race.Schedule)-1]
	assert.Equal(t, SessionRace, last.Name)

	// 13:00 UTC is 15:00 in Prague during DST.
	assert.Equal(t, 15, last.Time.Hour())
	assert.Equal(t, "06.09.2026", race.RaceDate)
}

func TestNextRaceEmptyTable(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"MRData":{"RaceTable":{"Races":[]}}}`)
	}))

	_, err := c.NextRace(context.Background())
	assert.Error(t, err)
}

func TestFetchRetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, nextRaceJSON)
	}))

	race, err := c.NextRace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Italian Grand Prix", race.RaceName)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchGivesUpAfterRetries(t *testing.T) {
	t.Skip("exercises 7s of backoff; enable when touching retry logic")

	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.NextRace(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestHistorical(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/circuits/monza/races.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"MRData":{"RaceTable":{"Races":[
			{"season":"2001"},{"season":"2024"},{"season":"2025"},{"season":"2026"}
		]}}}`)
	})
	mux.HandleFunc("/2025/circuits/monza/qualifying.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"MRData":{"RaceTable":{"Races":[{"QualifyingResults":[
			{"position":"1","Driver":{"familyName":"Verstappen"},"Constructor":{"name":"Red Bull"},"Q3":"1:18.792"},
			{"position":"2","Driver":{"familyName":"Norris"},"Constructor":{"name":"McLaren"},"Q3":"1:18.869"},
			{"position":"3","Driver":{"familyName":"Piastri"},"Constructor":{"name":"McLaren"},"Q3":"1:19.007"}
		]}]}}}`)
	})
	mux.HandleFunc("/2025/circuits/monza/results.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"MRData":{"RaceTable":{"Races":[{"Results":[
			{"position":"1","Driver":{"familyName":"Verstappen"},"Constructor":{"name":"Red Bull"},"Time":{"time":"1:13:24.325"}},
			{"position":"2","Driver":{"familyName":"Norris"},"Constructor":{"name":"McLaren"},"Time":{"time":"+19.207"}}
		]}]}}}`)
	})

	c := testClient(t, mux)
	hist, err := c.Historical(context.Background(), "monza", 2026)
	require.NoError(t, err)

	assert.Equal(t, 2025, hist.Season)
	assert.False(t, hist.IsNewTrack)
	require.Len(t, hist.Qualifying, 3)
	assert.Equal(t, "1:18.792", hist.Qualifying[0].Time)
	require.Len(t, hist.Race, 2)
	assert.Equal(t, "+19.207", hist.Race[1].Time)
	assert.Equal(t, 2, hist.Race[1].Position)
}

func TestHistoricalNewTrack(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only the current season has raced here.
		fmt.Fprint(w, `{"MRData":{"RaceTable":{"Races":[{"season":"2026"}]}}}`)
	}))

	hist, err := c.Historical(context.Background(), "madring", 2026)
	require.NoError(t, err)
	assert.True(t, hist.IsNewTrack)
}

func TestHistoricalIgnoresPreModernSeasons(t *testing.T) {
	requested := map[string]bool{}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		requested[r.URL.Path] = true
		fmt.Fprint(w, `{"MRData":{"RaceTable":{"Races":[{"season":"1958"},{"season":"2002"}]}}}`)
	})

	c := testClient(t, mux)
	hist, err := c.Historical(context.Background(), "zandvoort", 2026)
	require.NoError(t, err)
	assert.True(t, hist.IsNewTrack)
	assert.False(t, requested["/2002/circuits/zandvoort/qualifying.json"])
}

func TestParseSessionTimeDefaultsToNoon(t *testing.T) {
	dt, err := parseSessionTime("2026-09-06", "", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 12, dt.Hour())
}

func TestConvertRaceTimesUnparsableSession(t *testing.T) {
	c := NewClient("http://unused", "UTC", time.Second, nil)
	race := c.convertRaceTimes(apiRace{
		Season:   "2026",
		RaceName: "Test GP",
		Date:     "2026-09-06",
		Time:     "not-a-time",
	})

	require.Len(t, race.Schedule, 1)
	assert.True(t, race.Schedule[0].Time.IsZero())
	assert.Equal(t, "2026-09-06 not-a-time", race.Schedule[0].DisplayTime)
	assert.Equal(t, "2026-09-06", race.RaceDate, "date passes through unformatted")
}

func TestConvertTimezone(t *testing.T) {
	raceTime := time.Date(2026, 9, 6, 13, 0, 0, 0, time.UTC)
	race := &RaceView{
		RaceName: "Italian Grand Prix",
		Timezone: "UTC",
		RaceDate: "06.09.2026",
		Schedule: []ScheduleEvent{
			{Name: SessionQualifying, Time: raceTime.Add(-23 * time.Hour)},
			{Name: SessionRace, Time: raceTime},
		},
	}

	out := ConvertTimezone(race, "Asia/Tokyo")
	require.NotSame(t, race, out)
	assert.Equal(t, "Asia/Tokyo", out.Timezone)
	assert.Equal(t, 22, out.Schedule[1].Time.Hour())
	assert.Equal(t, "06.09.2026", out.RaceDate)

	// Original untouched.
	assert.Equal(t, "UTC", race.Timezone)
	assert.Equal(t, 13, race.Schedule[1].Time.Hour())
}

func TestConvertTimezoneInvalid(t *testing.T) {
	race := &RaceView{Timezone: "UTC"}
	assert.Same(t, race, ConvertTimezone(race, "Not/AZone"))
	assert.Same(t, race, ConvertTimezone(race, ""))
}

func TestCanonicalCircuitID(t *testing.T) {
	assert.Equal(t, "las_vegas", CanonicalCircuitID("vegas"))
	assert.Equal(t, "monza", CanonicalCircuitID("monza"))
}
