// Command fetch-history downloads hourly history for the configured cities
// from the Open-Meteo archive and writes the table the forecast server reads.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/i474232898/lstm-weather-forecast/internal/config"
	"github.com/i474232898/lstm-weather-forecast/internal/scheduler"
	"github.com/i474232898/lstm-weather-forecast/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	csvPath := flag.String("csv", cfg.HistoryPath, "CSV file to write (empty to skip)")
	defaultDriver := ""
	if cfg.HistorySource != "csv" {
		defaultDriver = cfg.HistorySource
	}
	dbDriver := flag.String("db-driver", defaultDriver, "also upsert into a database: sqlite or postgres")
	dbDSN := flag.String("db-dsn", cfg.HistoryDSN, "database DSN for -db-driver")
	days := flag.Int("days", cfg.ArchiveDays, "days of history to fetch, ending today")
	every := flag.Duration("every", cfg.FetchInterval, "refresh interval; 0 fetches once and exits")
	flag.Parse()

	locs, err := providers.ResolveLocations(cfg.Locations, cfg.GeocoderAPIKey)
	if err != nil {
		log.Fatalf("failed to resolve locations: %v", err)
	}

	// Shared HTTP client for outbound archive calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	archive := providers.NewOpenMeteoProvider(httpClient, "", cfg.ArchiveTimezone, cfg.ArchiveRPS)

	job := func(ctx context.Context) error {
		_, err := fetchHistory(ctx, archive, locs, *days, time.Now(), target{
			CSVPath:  *csvPath,
			DBDriver: *dbDriver,
			DBDSN:    *dbDSN,
		})
		return err
	}

	if *every <= 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := job(ctx); err != nil {
			log.Fatalf("fetch failed: %v", err)
		}
		return
	}

	sched := scheduler.New(*every, 10*time.Minute, job)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}
