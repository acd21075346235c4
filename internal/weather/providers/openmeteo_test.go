package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

const archiveBody = `{
  "latitude": 28.625,
  "longitude": 77.25,
  "utc_offset_seconds": 19800,
  "timezone": "Asia/Kolkata",
  "timezone_abbreviation": "IST",
  "hourly": {
    "time": ["2024-06-01T00:00", "2024-06-01T01:00", "2024-06-01T02:00"],
    "temperature_2m": [31.2, 30.8, null],
    "relative_humidity_2m": [70, 72, 74],
    "pressure_msl": [1002.1, 1002.4, 1002.6],
    "wind_speed_10m": [12.5, 11.9, 11.0]
  }
}`

func TestOpenMeteoFetchHourly(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(archiveBody))
	}))
	defer srv.Close()

	lat, lon := 28.6139, 77.2090
	loc := weather.Location{City: "delhi", Lat: &lat, Lon: &lon}
	p := NewOpenMeteoProvider(srv.Client(), srv.URL, "auto", 100)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	obs, err := p.FetchHourly(context.Background(), loc, start, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"hourly=temperature_2m%2Crelative_humidity_2m%2Cpressure_msl%2Cwind_speed_10m",
		"start_date=2024-06-01",
		"end_date=2024-06-01",
		"timezone=auto",
		"latitude=28.6139",
	} {
		if !strings.Contains(query, want) {
			t.Fatalf("expected query to contain %q, got %q", want, query)
		}
	}

	if len(obs) != 2 {
		t.Fatalf("expected 2 observations (null hour dropped), got %d", len(obs))
	}
	if obs[0].City != "delhi" || obs[0].Temperature() != 31.2 {
		t.Fatalf("unexpected first observation %+v", obs[0])
	}
	if _, off := obs[0].Time.Zone(); off != 19800 {
		t.Fatalf("expected IST offset, got %d", off)
	}
	wantUTC := time.Date(2024, 5, 31, 18, 30, 0, 0, time.UTC)
	if !obs[0].Time.Equal(wantUTC) {
		t.Fatalf("expected %v, got %v", wantUTC, obs[0].Time.UTC())
	}
	if obs[1].Time.Sub(obs[0].Time) != time.Hour {
		t.Fatalf("expected hourly spacing")
	}
}

func TestOpenMeteoRequiresCoordinates(t *testing.T) {
	p := NewOpenMeteoProvider(http.DefaultClient, "http://unused", "auto", 1)
	_, err := p.FetchHourly(context.Background(), weather.Location{City: "delhi"}, time.Now(), time.Now())
	if err == nil {
		t.Fatalf("expected error without coordinates")
	}
}

func TestOpenMeteoMismatchedArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly":{"time":["2024-06-01T00:00"],"temperature_2m":[],"relative_humidity_2m":[1],"pressure_msl":[1],"wind_speed_10m":[1]}}`))
	}))
	defer srv.Close()

	lat, lon := 1.0, 2.0
	p := NewOpenMeteoProvider(srv.Client(), srv.URL, "UTC", 100)
	_, err := p.FetchHourly(context.Background(), weather.Location{City: "x", Lat: &lat, Lon: &lon}, time.Now(), time.Now())
	if err == nil {
		t.Fatalf("expected error for mismatched arrays")
	}
}

func TestCollect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(archiveBody))
	}))
	defer srv.Close()

	lat, lon := 1.0, 2.0
	locs := []weather.Location{
		{City: "delhi", Lat: &lat, Lon: &lon},
		{City: "mumbai", Lat: &lat, Lon: &lon},
	}
	p := NewOpenMeteoProvider(srv.Client(), srv.URL, "auto", 100)

	obs, err := weather.Collect(context.Background(), p, locs, 365, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 4 {
		t.Fatalf("expected 4 observations, got %d", len(obs))
	}
	if obs[0].City != "delhi" || obs[3].City != "mumbai" {
		t.Fatalf("expected results in location order, got %s..%s", obs[0].City, obs[3].City)
	}
}

func TestResolveLocationsKeepsCoordinates(t *testing.T) {
	lat, lon := 1.0, 2.0
	in := []weather.Location{{City: "delhi", Lat: &lat, Lon: &lon}}

	out, err := ResolveLocations(in, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *out[0].Lat != 1 || *out[0].Lon != 2 {
		t.Fatalf("coordinates changed: %v,%v", *out[0].Lat, *out[0].Lon)
	}

	if _, err := ResolveLocations([]weather.Location{{City: "paris"}}, ""); err == nil {
		t.Fatalf("expected error for missing coordinates without api key")
	}
}
