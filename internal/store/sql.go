package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

const schema = `CREATE TABLE IF NOT EXISTS observations (
	city                 TEXT NOT NULL,
	observed_at          TEXT NOT NULL,
	temperature_2m       DOUBLE PRECISION NOT NULL,
	relative_humidity_2m DOUBLE PRECISION NOT NULL,
	pressure_msl         DOUBLE PRECISION NOT NULL,
	wind_speed_10m       DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (city, observed_at)
)`

const upsertObservation = `INSERT INTO observations
	(city, observed_at, temperature_2m, relative_humidity_2m, pressure_msl, wind_speed_10m)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (city, observed_at) DO UPDATE SET
		temperature_2m = excluded.temperature_2m,
		relative_humidity_2m = excluded.relative_humidity_2m,
		pressure_msl = excluded.pressure_msl,
		wind_speed_10m = excluded.wind_speed_10m`

const selectObservations = `SELECT city, observed_at, temperature_2m, relative_humidity_2m, pressure_msl, wind_speed_10m
	FROM observations
	ORDER BY city, observed_at`

// observationRow is the table shape. observed_at is stored as RFC3339 text
// so sqlite and postgres round-trip the original UTC offset identically.
type observationRow struct {
	City        string  `db:"city"`
	ObservedAt  string  `db:"observed_at"`
	Temperature float64 `db:"temperature_2m"`
	Humidity    float64 `db:"relative_humidity_2m"`
	Pressure    float64 `db:"pressure_msl"`
	WindSpeed   float64 `db:"wind_speed_10m"`
}

// SQLStore persists hourly history in sqlite (modernc.org/sqlite) or
// postgres (lib/pq) through sqlx.
type SQLStore struct {
	db *sqlx.DB
}

// OpenSQL connects with driver "sqlite" or "postgres" and applies the schema.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	s := &SQLStore{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the observations table if needed.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Upsert inserts or replaces observations in a single transaction.
func (s *SQLStore) Upsert(ctx context.Context, obs []weather.Observation) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(upsertObservation))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		_, err := stmt.ExecContext(ctx,
			o.City,
			o.Time.Format(time.RFC3339),
			o.Features[weather.FeatureTemperature],
			o.Features[weather.FeatureHumidity],
			o.Features[weather.FeaturePressure],
			o.Features[weather.FeatureWindSpeed],
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert %s: %w", o.Key(), err)
		}
	}

	return tx.Commit()
}

// Load reads every observation ordered by (city, time).
func (s *SQLStore) Load(ctx context.Context) ([]weather.Observation, error) {
	var rows []observationRow
	if err := s.db.SelectContext(ctx, &rows, selectObservations); err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}

	out := make([]weather.Observation, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		ts, err := ParseTime(r.ObservedAt)
		if err != nil {
			return nil, fmt.Errorf("observation %s: %w", r.City, err)
		}
		o := weather.Observation{
			City: r.City,
			Time: ts,
			Features: weather.Features{
				r.Temperature,
				r.Humidity,
				r.Pressure,
				r.WindSpeed,
			},
		}
		if !o.Features.Finite() {
			skipped++
			continue
		}
		out = append(out, o)
	}
	if skipped > 0 {
		log.Printf("WARN: skipped %d history rows with non-finite values", skipped)
	}
	return out, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
