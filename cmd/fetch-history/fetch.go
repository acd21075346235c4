package main

import (
	"context"
	"log"
	"time"

	"github.com/i474232898/lstm-weather-forecast/internal/store"
	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

// target says where a fetched history is written. Empty fields are skipped.
type target struct {
	CSVPath  string
	DBDriver string
	DBDSN    string
}

// fetchHistory downloads days of history ending at end for every location and
// writes it to the target. It returns the number of rows written.
func fetchHistory(ctx context.Context, p weather.HistoryProvider, locs []weather.Location, days int, end time.Time, out target) (int, error) {
	obs, err := weather.Collect(ctx, p, locs, days, end)
	if err != nil {
		return 0, err
	}
	// Sort and reject duplicate hours before writing.
	history, err := store.NewMemoryStore(obs)
	if err != nil {
		return 0, err
	}

	var rows []weather.Observation
	for _, city := range history.Cities() {
		series, err := history.Series(city)
		if err != nil {
			return 0, err
		}
		rows = append(rows, series...)
	}

	if out.CSVPath != "" {
		if err := store.SaveCSV(out.CSVPath, rows); err != nil {
			return 0, err
		}
		log.Printf("INFO: saved %d rows to %s", len(rows), out.CSVPath)
	}
	if out.DBDriver != "" {
		db, err := store.OpenSQL(ctx, out.DBDriver, out.DBDSN)
		if err != nil {
			return 0, err
		}
		defer db.Close()
		if err := db.Upsert(ctx, rows); err != nil {
			return 0, err
		}
		log.Printf("INFO: upserted %d rows into %s", len(rows), out.DBDriver)
	}
	return len(rows), nil
}
