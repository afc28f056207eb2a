// Package f1 holds the race domain model and the data sources feeding
// the renderer: the Jolpica API client and the static JSON fallback.
package f1

import "time"

// Session display names used in schedule rows. Translation keys are
// derived as "session_" + lowercase name.
const (
	SessionFP1        = "FP1"
	SessionFP2        = "FP2"
	SessionFP3        = "FP3"
	SessionQualifying = "Qualifying"
	SessionSprint     = "Sprint"
	SessionRace       = "Race"
)

// CircuitRef identifies the venue of an event.
type CircuitRef struct {
	ID       string `json:"circuitId"`
	Name     string `json:"name"`
	Locality string `json:"location"`
	Country  string `json:"country"`
}

// ScheduleEvent is one session of a race weekend, already converted to
// the display timezone. Time is the zero value when the upstream
// timestamp could not be parsed; DisplayTime is then shown verbatim.
type ScheduleEvent struct {
	Name        string    `json:"name"`
	Time        time.Time `json:"datetime"`
	DisplayTime string    `json:"display_time"`
}

// RaceView is the renderer's input record: one upcoming event with its
// timezone-converted, ascending-sorted schedule. Immutable once built.
type RaceView struct {
	RaceName string          `json:"race_name"`
	Season   string          `json:"season"`
	Round    string          `json:"round"`
	Circuit  CircuitRef      `json:"circuit"`
	Schedule []ScheduleEvent `json:"schedule"`
	RaceDate string          `json:"race_date"`
	Timezone string          `json:"timezone"`
}

// ResultEntry is one podium line of a historical session.
type ResultEntry struct {
	Position int    `json:"position"`
	Driver   string `json:"driver"` // family name, display form
	Team     string `json:"team"`
	Time     string `json:"time,omitempty"` // formatted gap or lap time
}

// HistoricalData carries the most recent prior results at a venue.
// When IsNewTrack is set the result lists are ignored by the renderer.
type HistoricalData struct {
	Season     int           `json:"season,omitempty"`
	IsNewTrack bool          `json:"is_new_track"`
	Qualifying []ResultEntry `json:"qualifying_results"`
	Race       []ResultEntry `json:"race_results"`
}

// CircuitInfo is the static per-venue metadata shown in the circuit
// statistics block. Any field may be empty; the block shrinks or
// disappears accordingly.
type CircuitInfo struct {
	Length           string `json:"circuit_length"`
	Laps             int    `json:"number_of_laps"`
	RaceDistance     string `json:"race_distance"`
	FastestLapTime   string `json:"fastest_lap_time"`
	FastestLapDriver string `json:"fastest_lap_driver"`
	FastestLapYear   int    `json:"fastest_lap_year"`
	FirstGrandPrix   int    `json:"first_grand_prix"`

	Historical *staticHistorical `json:"historical,omitempty"`
}

// circuitIDAliases maps API circuit ids to the ids used by the static
// metadata files.
var circuitIDAliases = map[string]string{
	"vegas": "las_vegas",
}

// CanonicalCircuitID normalizes an API circuit id for static lookups.
func CanonicalCircuitID(id string) string {
	if mapped, ok := circuitIDAliases[id]; ok {
		return mapped
	}
	return id
}
