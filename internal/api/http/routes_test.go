package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/lstm-weather-forecast/internal/store"
	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func series(city string, n int) []weather.Observation {
	out := make([]weather.Observation, n)
	for i := range out {
		out[i] = weather.Observation{
			City:     city,
			Time:     t0.Add(time.Duration(i) * time.Hour),
			Features: weather.Features{float64(i % 30), 50, 1010, 4},
		}
	}
	return out
}

// newTestApp serves delhi with a full window and mumbai with 100 rows.
func newTestApp(t *testing.T, reg weather.Regressor) *fiber.App {
	t.Helper()

	obs := append(series("delhi", weather.LookbackHours+10), series("mumbai", 100)...)
	mem, err := store.NewMemoryStore(obs)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	svc, err := weather.NewService(mem, reg, weather.Options{})
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc)
	return app
}

func halfRegressor() weather.Regressor {
	return weather.RegressorFunc(func(_ context.Context, _ [][]float64) ([]float64, error) {
		out := make([]float64, weather.HorizonHours)
		for i := range out {
			out[i] = 0.5
		}
		return out, nil
	})
}

func doGet(t *testing.T, app *fiber.App, target string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, body
}

func TestForecastEndpoint(t *testing.T) {
	app := newTestApp(t, halfRegressor())

	status, body := doGet(t, app, "/api/v1/forecast?city=delhi")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, status, body)
	}

	var got struct {
		ID      string          `json:"id"`
		City    string          `json:"city"`
		Name    string          `json:"name"`
		Full    []weather.Point `json:"full"`
		Display []weather.Point `json:"display"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID == "" || got.City != "delhi" || got.Name != "Delhi" {
		t.Fatalf("unexpected header fields: %+v", got)
	}
	if len(got.Full) != weather.HorizonHours {
		t.Fatalf("expected %d full points, got %d", weather.HorizonHours, len(got.Full))
	}
	if len(got.Display) != 60 {
		t.Fatalf("expected 60 display points, got %d", len(got.Display))
	}
	// Temperatures span 0..29, so 0.5 maps to 14.5.
	if got.Full[0].PredTempC != 14.5 {
		t.Fatalf("expected 14.5, got %v", got.Full[0].PredTempC)
	}
}

func TestForecastValidation(t *testing.T) {
	app := newTestApp(t, halfRegressor())

	cases := []struct {
		name   string
		target string
		status int
	}{
		{"missing city", "/api/v1/forecast", http.StatusBadRequest},
		{"blank city", "/api/v1/forecast?city=%20", http.StatusBadRequest},
		{"unknown city", "/api/v1/forecast?city=paris", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doGet(t, app, tc.target)
			if status != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, status, body)
			}
		})
	}
}

func TestForecastInsufficientHistory(t *testing.T) {
	app := newTestApp(t, halfRegressor())

	status, body := doGet(t, app, "/api/v1/forecast?city=mumbai")
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, status)
	}
	want := "Not enough history for mumbai. Need 720 hours, have 100."
	if !strings.Contains(string(body), want) {
		t.Fatalf("expected message %q in %s", want, body)
	}
}

func TestForecastRegressorFailure(t *testing.T) {
	reg := weather.RegressorFunc(func(context.Context, [][]float64) ([]float64, error) {
		return []float64{1, 2, 3}, nil
	})
	app := newTestApp(t, reg)

	status, body := doGet(t, app, "/api/v1/forecast?city=delhi")
	if status != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, status)
	}
	if !strings.Contains(string(body), "Error generating forecast") {
		t.Fatalf("expected generic error message, got %s", body)
	}
}

func TestCitiesEndpoint(t *testing.T) {
	app := newTestApp(t, halfRegressor())

	status, body := doGet(t, app, "/api/v1/cities")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}

	var got struct {
		Cities []struct {
			City string `json:"city"`
			Rows int    `json:"rows"`
		} `json:"cities"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Cities) != 2 || got.Cities[0].City != "delhi" || got.Cities[1].Rows != 100 {
		t.Fatalf("unexpected cities: %+v", got.Cities)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	app := newTestApp(t, halfRegressor())

	from := t0.Format(time.RFC3339)
	to := t0.Add(2 * time.Hour).Format(time.RFC3339)

	status, body := doGet(t, app, "/api/v1/history?city=mumbai&from="+from+"&to="+to)
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, status, body)
	}
	var got struct {
		Observations []map[string]any `json:"observations"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Observations) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(got.Observations))
	}
	if _, ok := got.Observations[0]["pressure_msl"]; !ok {
		t.Fatalf("expected feature columns in observation, got %v", got.Observations[0])
	}

	status, _ = doGet(t, app, "/api/v1/history?city=mumbai&from="+to+"&to="+from)
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d for reversed range, got %d", http.StatusBadRequest, status)
	}

	status, _ = doGet(t, app, "/api/v1/history?city=mumbai&from=1000&to=2000")
	if status != http.StatusNotFound {
		t.Fatalf("expected status %d for empty range, got %d", http.StatusNotFound, status)
	}
}

func TestDashboard(t *testing.T) {
	app := newTestApp(t, halfRegressor())

	status, body := doGet(t, app, "/")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
	if !strings.Contains(string(body), "Generate 7-Day Forecast") || !strings.Contains(string(body), `class="info"`) {
		t.Fatalf("expected idle dashboard, got %s", body)
	}

	status, body = doGet(t, app, "/?city=delhi&run=1")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
	if !strings.Contains(string(body), "<polyline") || strings.Count(string(body), "<tr><td>") != 60 {
		t.Fatalf("expected chart and 60 table rows")
	}

	_, body = doGet(t, app, "/?city=mumbai&run=1")
	if !strings.Contains(string(body), "Not enough history for mumbai") {
		t.Fatalf("expected insufficient history banner, got %s", body)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("new_york"); got != "New York" {
		t.Fatalf("expected New York, got %q", got)
	}
}
