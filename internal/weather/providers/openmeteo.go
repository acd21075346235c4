package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/lstm-weather-forecast/internal/resilience"
	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

// OpenMeteoArchiveURL is the historical weather endpoint.
const OpenMeteoArchiveURL = "https://archive-api.open-meteo.com/v1/archive"

const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoProvider downloads hourly history from the Open-Meteo archive API.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	timezone string
	httpCfg  resilience.HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates an archive client. rps bounds the request
// rate across all cities; timezone is passed through ("auto" resolves to the
// city's local zone).
func NewOpenMeteoProvider(client *http.Client, baseURL, timezone string, rps float64) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = OpenMeteoArchiveURL
	}
	return &OpenMeteoProvider{
		name:     "openmeteo",
		baseURL:  baseURL,
		timezone: timezone,
		httpCfg: resilience.HTTPClientConfig{
			Client:  client,
			Backoff: resilience.DefaultBackoff,
			Limiter: rate.NewLimiter(rate.Limit(rps), 1),
		},
		circuit: resilience.NewBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoArchive struct {
	UTCOffsetSeconds     int    `json:"utc_offset_seconds"`
	Timezone             string `json:"timezone"`
	TimezoneAbbreviation string `json:"timezone_abbreviation"`
	Hourly               struct {
		Time        []string   `json:"time"`
		Temperature []*float64 `json:"temperature_2m"`
		Humidity    []*float64 `json:"relative_humidity_2m"`
		Pressure    []*float64 `json:"pressure_msl"`
		WindSpeed   []*float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
}

// FetchHourly returns the hourly observations between start and end
// (calendar dates, inclusive). Hours with any missing variable are dropped.
func (p *OpenMeteoProvider) FetchHourly(ctx context.Context, loc weather.Location, start, end time.Time) ([]weather.Observation, error) {
	if !loc.HasCoordinates() {
		return nil, fmt.Errorf("openmeteo requires latitude and longitude for %s", loc.City)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(*loc.Lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(*loc.Lon, 'f', -1, 64))
		values.Set("hourly", strings.Join(weather.FeatureColumns[:], ","))
		values.Set("start_date", start.Format("2006-01-02"))
		values.Set("end_date", end.Format("2006-01-02"))
		values.Set("timezone", p.timezone)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := resilience.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload openMeteoArchive
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openmeteo archive: %w", err)
	}

	return payload.observations(loc.Key())
}

func (a *openMeteoArchive) observations(city string) ([]weather.Observation, error) {
	h := a.Hourly
	n := len(h.Time)
	if len(h.Temperature) != n || len(h.Humidity) != n || len(h.Pressure) != n || len(h.WindSpeed) != n {
		return nil, fmt.Errorf("openmeteo archive for %s: hourly arrays differ in length", city)
	}

	zoneName := a.TimezoneAbbreviation
	if zoneName == "" {
		zoneName = a.Timezone
	}
	zone := time.FixedZone(zoneName, a.UTCOffsetSeconds)

	out := make([]weather.Observation, 0, n)
	dropped := 0
	for i, raw := range h.Time {
		ts, err := time.ParseInLocation(openMeteoTimeLayout, raw, zone)
		if err != nil {
			return nil, fmt.Errorf("openmeteo archive for %s: %w", city, err)
		}
		values := [weather.NumFeatures]*float64{h.Temperature[i], h.Humidity[i], h.Pressure[i], h.WindSpeed[i]}

		o := weather.Observation{City: city, Time: ts}
		complete := true
		for f, v := range values {
			if v == nil {
				complete = false
				break
			}
			o.Features[f] = *v
		}
		if !complete {
			dropped++
			continue
		}
		out = append(out, o)
	}

	if dropped > 0 {
		log.Printf("WARN: openmeteo archive for %s: dropped %d hours with missing values", city, dropped)
	}
	return out, nil
}

var _ weather.HistoryProvider = (*OpenMeteoProvider)(nil)
