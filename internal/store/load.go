package store

import (
	"context"
	"fmt"
	"log"

	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

// Source names where the history comes from.
type Source struct {
	Kind string // csv, sqlite or postgres
	Path string // CSV file
	DSN  string // sqlite file or postgres connection string
}

// Load reads the full history from the configured source and indexes it.
func Load(ctx context.Context, src Source) (*MemoryStore, error) {
	var (
		obs []weather.Observation
		err error
	)

	if src.Kind == "" {
		src.Kind = "csv"
	}

	switch src.Kind {
	case "csv":
		obs, err = LoadCSV(src.Path)
	case "sqlite", "postgres":
		var db *SQLStore
		db, err = OpenSQL(ctx, src.Kind, src.DSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		obs, err = db.Load(ctx)
	default:
		return nil, fmt.Errorf("unknown history source %q", src.Kind)
	}
	if err != nil {
		return nil, err
	}

	s, err := NewMemoryStore(obs)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: loaded %d history rows for %d cities from %s", s.Len(), len(s.Cities()), src.Kind)
	return s, nil
}
