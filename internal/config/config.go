package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/lstm-weather-forecast/internal/store"
	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

type AppConfig struct {
	Port string `validate:"required,numeric"`

	// History source: csv file or a sqlite/postgres table.
	HistorySource string `validate:"oneof=csv sqlite postgres"`
	HistoryPath   string `validate:"required_if=HistorySource csv"`
	HistoryDSN    string `validate:"required_unless=HistorySource csv"`

	// Regression backend.
	ModelBackend     string        `validate:"oneof=native remote"`
	ModelWeightsPath string        `validate:"required_if=ModelBackend native"`
	ModelEndpoint    string        `validate:"required_if=ModelBackend remote"`
	ModelTimeout     time.Duration `validate:"gt=0"`

	// StrictContiguity rejects forecast windows with missing hours.
	StrictContiguity bool

	// Archive download (fetch-history).
	ArchiveDays     int     `validate:"min=1"`
	ArchiveTimezone string  `validate:"required"`
	ArchiveRPS      float64 `validate:"gt=0"`
	HTTPTimeout     time.Duration
	// FetchInterval controls how often fetch-history refreshes in daemon mode.
	FetchInterval  time.Duration
	GeocoderAPIKey string

	// Locations to collect history for.
	Locations []weather.Location `validate:"min=1,dive"`
}

var validate = validator.New()

// DefaultLocations are the four cities the bundled model was trained on.
var DefaultLocations = []weather.Location{
	{City: "delhi", Country: "India", Lat: ptr(28.6139), Lon: ptr(77.2090)},
	{City: "mumbai", Country: "India", Lat: ptr(19.0760), Lon: ptr(72.8777)},
	{City: "new_york", Country: "United States", Lat: ptr(40.7128), Lon: ptr(-74.0060)},
	{City: "los_angeles", Country: "United States", Lat: ptr(34.0522), Lon: ptr(-118.2437)},
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.HistorySource = getenvDefault("HISTORY_SOURCE", "csv")
	cfg.HistoryPath = getenvDefault("HISTORY_PATH", "weather_hourly_history_openmeteo.csv")
	cfg.HistoryDSN = os.Getenv("HISTORY_DSN")

	cfg.ModelBackend = getenvDefault("MODEL_BACKEND", "native")
	cfg.ModelWeightsPath = getenvDefault("MODEL_WEIGHTS_PATH", "weather_lstm_7day.weights.bin")
	cfg.ModelEndpoint = os.Getenv("MODEL_ENDPOINT")

	var err error
	if cfg.ModelTimeout, err = getenvDuration("MODEL_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.StrictContiguity, err = strconv.ParseBool(getenvDefault("STRICT_CONTIGUITY", "false")); err != nil {
		return nil, fmt.Errorf("invalid STRICT_CONTIGUITY: %w", err)
	}

	if cfg.ArchiveDays, err = getenvInt("ARCHIVE_DAYS", 365); err != nil {
		return nil, err
	}
	cfg.ArchiveTimezone = getenvDefault("ARCHIVE_TIMEZONE", "auto")
	if cfg.ArchiveRPS, err = strconv.ParseFloat(getenvDefault("ARCHIVE_RPS", "1"), 64); err != nil {
		return nil, fmt.Errorf("invalid ARCHIVE_RPS: %w", err)
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	// Fetch interval: 0 runs once and exits.
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "0s"); err != nil {
		return nil, err
	}
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	locs, err := loadLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// HistorySourceConfig returns where the server reads its history from.
func (c *AppConfig) HistorySourceConfig() store.Source {
	return store.Source{
		Kind: c.HistorySource,
		Path: c.HistoryPath,
		DSN:  c.HistoryDSN,
	}
}

// loadLocations reads FORECAST_CITIES, FORECAST_COUNTRIES and
// FORECAST_COORDINATES as parallel comma-separated lists. Coordinates are
// "lat lon" and may be left empty for cities that should be geocoded.
func loadLocations() ([]weather.Location, error) {
	city := os.Getenv("FORECAST_CITIES")
	if city == "" {
		return DefaultLocations, nil
	}
	cities := strings.Split(city, ",")
	countries := splitOptional(os.Getenv("FORECAST_COUNTRIES"), len(cities))
	coords := splitOptional(os.Getenv("FORECAST_COORDINATES"), len(cities))
	if len(countries) != len(cities) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}
	if len(coords) != len(cities) {
		return nil, fmt.Errorf("number of cities and coordinates must be the same")
	}

	var locs []weather.Location
	for i := range cities {
		loc := weather.Location{
			City:    strings.TrimSpace(cities[i]),
			Country: strings.TrimSpace(countries[i]),
		}
		if c := strings.Fields(coords[i]); len(c) > 0 {
			if len(c) != 2 {
				return nil, fmt.Errorf("coordinates for %s must be \"lat lon\"", loc.City)
			}
			lat, err := strconv.ParseFloat(c[0], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid latitude for %s: %w", loc.City, err)
			}
			lon, err := strconv.ParseFloat(c[1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid longitude for %s: %w", loc.City, err)
			}
			loc.Lat, loc.Lon = &lat, &lon
		}
		locs = append(locs, loc)
	}

	return locs, nil
}

// splitOptional splits a comma list, or returns n empty entries when unset.
func splitOptional(v string, n int) []string {
	if v == "" {
		return make([]string, n)
	}
	return strings.Split(v, ",")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func ptr(v float64) *float64 { return &v }
