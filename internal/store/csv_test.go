package store

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

const pandasCSV = `time,temperature_2m,relative_humidity_2m,pressure_msl,wind_speed_10m,city
2024-06-01 00:00:00,31.2,70,1002.1,12.5,delhi
2024-06-01 01:00:00,30.8,72,1002.4,11.9,delhi
2024-06-01 02:00:00,,74,1002.6,11.0,delhi
2024-06-01T00:00,28.1,81,1005.0,18.2,mumbai
`

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(pandasCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (one skipped), got %d", len(rows))
	}

	first := rows[0]
	if first.City != "delhi" {
		t.Fatalf("expected delhi, got %q", first.City)
	}
	if !first.Time.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", first.Time)
	}
	want := weather.Features{31.2, 70, 1002.1, 12.5}
	if first.Features != want {
		t.Fatalf("expected features %v, got %v", want, first.Features)
	}
	if rows[2].City != "mumbai" || rows[2].Temperature() != 28.1 {
		t.Fatalf("unexpected mumbai row: %+v", rows[2])
	}
}

func TestReadCSVSkipsNonFiniteRows(t *testing.T) {
	input := `time,temperature_2m,relative_humidity_2m,pressure_msl,wind_speed_10m,city
2024-06-01T00:00,inf,70,1002.1,12.5,delhi
2024-06-01T01:00,30.8,+Inf,1002.4,11.9,delhi
2024-06-01T02:00,30.1,74,-infinity,11.0,delhi
2024-06-01T03:00,29.9,75,1002.8,NaN,delhi
2024-06-01T04:00,29.5,76,1003.0,10.2,delhi
`
	rows, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only the finite row, got %d", len(rows))
	}
	if rows[0].Temperature() != 29.5 {
		t.Fatalf("unexpected row kept: %+v", rows[0])
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("time,city,temperature_2m\n2024-06-01T00:00,delhi,1\n"))
	if err == nil || !strings.Contains(err.Error(), "relative_humidity_2m") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestReadCSVBadTime(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("time,city,temperature_2m,relative_humidity_2m,pressure_msl,wind_speed_10m\nyesterday,delhi,1,2,3,4\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 time error, got %v", err)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	in := []weather.Observation{
		{City: "delhi", Time: time.Date(2024, 6, 1, 0, 0, 0, 0, ist), Features: weather.Features{31.25, 70, 1002.1, 12.5}},
		{City: "delhi", Time: time.Date(2024, 6, 1, 1, 0, 0, 0, ist), Features: weather.Features{30.5, 72, 1002.4, 0}},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "time,city,temperature_2m,relative_humidity_2m,pressure_msl,wind_speed_10m\n") {
		t.Fatalf("unexpected header: %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}

	out, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d rows, got %d", len(in), len(out))
	}
	for i := range in {
		if !out[i].Time.Equal(in[i].Time) || out[i].Features != in[i].Features {
			t.Fatalf("row %d: expected %+v, got %+v", i, in[i], out[i])
		}
		if _, off := out[i].Time.Zone(); off != 19800 {
			t.Fatalf("row %d: expected offset to survive, got %d", i, off)
		}
	}
}

func TestSaveAndLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	if err := SaveCSV(path, []weather.Observation{obs("delhi", 0, 20)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Temperature() != 20 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
