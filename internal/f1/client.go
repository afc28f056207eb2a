package f1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Retry settings for the Jolpica API, which rate-limits aggressively.
const (
	maxRetries     = 3
	retryBaseDelay = time.Second
)

// Qualifying data in the modern Q1/Q2/Q3 format is only reliable from
// this season on; older venues are treated as having no usable history.
const minHistoricalYear = 2003

// Client fetches race data from a Jolpica-compatible Ergast API and
// converts session times into a target timezone.
type Client struct {
	http    *http.Client
	baseURL string
	loc     *time.Location
	tzName  string
	log     *zap.Logger
}

// NewClient builds a client for baseURL (e.g.
// "https://api.jolpi.ca/ergast/f1"). An unknown timezone falls back to
// UTC rather than failing.
func NewClient(baseURL, timezone string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to UTC", zap.String("tz", timezone))
		loc = time.UTC
		timezone = "UTC"
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		loc:     loc,
		tzName:  timezone,
		log:     logger,
	}
}

// Jolpica wire types.

type apiEnvelope struct {
	MRData struct {
		RaceTable struct {
			Races []apiRace `json:"Races"`
		} `json:"RaceTable"`
	} `json:"MRData"`
}

type apiSession struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type apiRace struct {
	Season   string `json:"season"`
	Round    string `json:"round"`
	RaceName string `json:"raceName"`
	Circuit  struct {
		CircuitID   string `json:"circuitId"`
		CircuitName string `json:"circuitName"`
		Location    struct {
			Locality string `json:"locality"`
			Country  string `json:"country"`
		} `json:"Location"`
	} `json:"Circuit"`
	Date           string      `json:"date"`
	Time           string      `json:"time"`
	FirstPractice  *apiSession `json:"FirstPractice"`
	SecondPractice *apiSession `json:"SecondPractice"`
	ThirdPractice  *apiSession `json:"ThirdPractice"`
	Qualifying     *apiSession `json:"Qualifying"`
	Sprint         *apiSession `json:"Sprint"`

	QualifyingResults []apiResult `json:"QualifyingResults"`
	Results           []apiResult `json:"Results"`
}

type apiResult struct {
	Position string `json:"position"`
	Driver   struct {
		Code       string `json:"code"`
		GivenName  string `json:"givenName"`
		FamilyName string `json:"familyName"`
	} `json:"Driver"`
	Constructor struct {
		Name string `json:"name"`
	} `json:"Constructor"`
	Q3   string `json:"Q3"`
	Time *struct {
		Time string `json:"time"`
	} `json:"Time"`
}

// NextRace fetches the next scheduled race and returns it converted to
// the client's timezone with a sorted schedule.
func (c *Client) NextRace(ctx context.Context) (*RaceView, error) {
	races, err := c.fetchRaces(ctx, c.baseURL+"/current/next.json")
	if err != nil {
		return nil, err
	}
	if len(races) == 0 {
		return nil, fmt.Errorf("no race in API response")
	}
	return c.convertRaceTimes(races[0]), nil
}

// Historical fetches the podium of the most recent prior event at the
// circuit. Failures degrade to an is-new-track record so the caller can
// always render something.
func (c *Client) Historical(ctx context.Context, circuitID string, currentSeason int) (*HistoricalData, error) {
	season, err := c.previousSeason(ctx, circuitID, currentSeason)
	if err != nil {
		return nil, err
	}
	if season == 0 {
		c.log.Info("no previous race at circuit", zap.String("circuit", circuitID))
		return &HistoricalData{IsNewTrack: true}, nil
	}

	qualifying := c.fetchPodium(ctx,
		fmt.Sprintf("%s/%d/circuits/%s/qualifying.json?limit=3", c.baseURL, season, circuitID), true)
	race := c.fetchPodium(ctx,
		fmt.Sprintf("%s/%d/circuits/%s/results.json?limit=3", c.baseURL, season, circuitID), false)

	return &HistoricalData{
		Season:     season,
		Qualifying: qualifying,
		Race:       race,
	}, nil
}

func (c *Client) previousSeason(ctx context.Context, circuitID string, currentSeason int) (int, error) {
	url := fmt.Sprintf("%s/circuits/%s/races.json?limit=100", c.baseURL, circuitID)
	races, err := c.fetchRaces(ctx, url)
	if err != nil {
		return 0, err
	}

	best := 0
	for _, race := range races {
		year, err := strconv.Atoi(race.Season)
		if err != nil {
			continue
		}
		if year < currentSeason && year >= minHistoricalYear && year > best {
			best = year
		}
	}
	return best, nil
}

func (c *Client) fetchPodium(ctx context.Context, url string, qualifying bool) []ResultEntry {
	races, err := c.fetchRaces(ctx, url)
	if err != nil || len(races) == 0 {
		if err != nil {
			c.log.Warn("podium fetch failed", zap.String("url", url), zap.Error(err))
		}
		return nil
	}

	raw := races[0].Results
	if qualifying {
		raw = races[0].QualifyingResults
	}

	entries := make([]ResultEntry, 0, 3)
	for _, res := range raw {
		if len(entries) == 3 {
			break
		}
		pos, _ := strconv.Atoi(res.Position)
		entry := ResultEntry{
			Position: pos,
			Driver:   res.Driver.FamilyName,
			Team:     res.Constructor.Name,
		}
		if qualifying {
			entry.Time = res.Q3
		} else if res.Time != nil {
			entry.Time = res.Time.Time
		}
		entries = append(entries, entry)
	}
	return entries
}

func (c *Client) fetchRaces(ctx context.Context, url string) ([]apiRace, error) {
	body, err := c.fetchWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}
	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}
	return envelope.MRData.RaceTable.Races, nil
}

// fetchWithRetry backs off exponentially on 429 responses.
func (c *Client) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("rate limited by %s", url)
			if attempt < maxRetries {
				delay := retryBaseDelay << uint(attempt)
				c.log.Warn("rate limited, retrying",
					zap.Int("attempt", attempt+1), zap.Duration("delay", delay))
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
		}
		return body, nil
	}
	return nil, lastErr
}

// convertRaceTimes turns an API race into a RaceView in the client's
// timezone, with sessions sorted ascending. Sessions whose timestamps
// fail to parse keep a verbatim display string instead.
func (c *Client) convertRaceTimes(race apiRace) *RaceView {
	type sessionRef struct {
		name    string
		session *apiSession
	}
	sessions := []sessionRef{
		{SessionFP1, race.FirstPractice},
		{SessionFP2, race.SecondPractice},
		{SessionFP3, race.ThirdPractice},
		{SessionQualifying, race.Qualifying},
		{SessionSprint, race.Sprint},
		{SessionRace, &apiSession{Date: race.Date, Time: race.Time}},
	}

	events := make([]ScheduleEvent, 0, len(sessions))
	var raceTime time.Time
	for _, ref := range sessions {
		if ref.session == nil || ref.session.Date == "" {
			continue
		}
		dt, err := parseSessionTime(ref.session.Date, ref.session.Time, c.loc)
		event := ScheduleEvent{Name: ref.name}
		if err != nil {
			c.log.Warn("unparsable session time",
				zap.String("session", ref.name), zap.Error(err))
			event.DisplayTime = ref.session.Date + " " + ref.session.Time
		} else {
			event.Time = dt
			event.DisplayTime = dt.Format("Mon 15:04")
			if ref.name == SessionRace {
				raceTime = dt
			}
		}
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})

	raceDate := race.Date
	if !raceTime.IsZero() {
		raceDate = raceTime.Format("02.01.2006")
	}

	return &RaceView{
		RaceName: race.RaceName,
		Season:   race.Season,
		Round:    race.Round,
		Circuit: CircuitRef{
			ID:       race.Circuit.CircuitID,
			Name:     race.Circuit.CircuitName,
			Locality: race.Circuit.Location.Locality,
			Country:  race.Circuit.Location.Country,
		},
		Schedule: events,
		RaceDate: raceDate,
		Timezone: c.tzName,
	}
}

// parseSessionTime combines an API date and time (UTC) and converts
// them into loc. A missing time defaults to noon UTC.
func parseSessionTime(date, timeStr string, loc *time.Location) (time.Time, error) {
	if timeStr == "" {
		timeStr = "12:00:00Z"
	}
	dt, err := time.Parse(time.RFC3339, date+"T"+timeStr)
	if err != nil {
		return time.Time{}, err
	}
	return dt.In(loc), nil
}

// ConvertTimezone returns a copy of race with every parsed session time
// shifted into tz. An unknown timezone returns race unchanged.
func ConvertTimezone(race *RaceView, tz string) *RaceView {
	if tz == "" || tz == race.Timezone {
		return race
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return race
	}

	out := *race
	out.Timezone = tz
	out.Schedule = make([]ScheduleEvent, len(race.Schedule))
	for i, event := range race.Schedule {
		out.Schedule[i] = event
		if !event.Time.IsZero() {
			shifted := event.Time.In(loc)
			out.Schedule[i].Time = shifted
			out.Schedule[i].DisplayTime = shifted.Format("Mon 15:04")
			if event.Name == SessionRace {
				out.RaceDate = shifted.Format("02.01.2006")
			}
		}
	}
	return &out
}
