package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/lstm-weather-forecast/internal/api/http"
	"github.com/i474232898/lstm-weather-forecast/internal/config"
	"github.com/i474232898/lstm-weather-forecast/internal/model"
	"github.com/i474232898/lstm-weather-forecast/internal/store"
	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStartup()

	// History is loaded once and never mutated.
	history, err := store.Load(startupCtx, cfg.HistorySourceConfig())
	if err != nil {
		log.Fatalf("failed to load history: %v", err)
	}

	// Weights are shape-checked here; a mismatch stops the process.
	regressor, err := model.Load(model.Backend{
		Kind:        cfg.ModelBackend,
		WeightsPath: cfg.ModelWeightsPath,
		Endpoint:    cfg.ModelEndpoint,
		Timeout:     cfg.ModelTimeout,
	})
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}

	// Core service: fits the per-city normalizers.
	service, err := weather.NewService(history, regressor, weather.Options{
		StrictContiguity: cfg.StrictContiguity,
	})
	if err != nil {
		log.Fatalf("failed to build forecast service: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "lstm-weather-forecast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.ModelTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "lstm-weather-forecast",
			"cities":  service.Cities(),
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
