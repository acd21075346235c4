package weather

import (
	"context"
	"fmt"
	"log"
	"time"
)

// HistoryProvider abstracts an hourly weather archive (e.g. Open-Meteo).
type HistoryProvider interface {
	Name() string
	FetchHourly(ctx context.Context, loc Location, start, end time.Time) ([]Observation, error)
}

// Collect downloads the last days of history ending at end for every
// location, in location order. The first failing city aborts the run.
func Collect(ctx context.Context, p HistoryProvider, locs []Location, days int, end time.Time) ([]Observation, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be greater than zero")
	}
	start := end.AddDate(0, 0, -days)

	var all []Observation
	for _, loc := range locs {
		log.Printf("INFO: fetching %d days of history for %s from %s", days, loc.Key(), p.Name())
		obs, err := p.FetchHourly(ctx, loc, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch history for %s: %w", loc.Key(), err)
		}
		all = append(all, obs...)
	}
	return all, nil
}
