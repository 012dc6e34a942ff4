package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/MicBur/Fuel-prediction-API/internal/api/http"
	"github.com/MicBur/Fuel-prediction-API/internal/config"
	"github.com/MicBur/Fuel-prediction-API/internal/etl"
	"github.com/MicBur/Fuel-prediction-API/internal/fuelprice"
	"github.com/MicBur/Fuel-prediction-API/internal/scheduler"
	"github.com/MicBur/Fuel-prediction-API/internal/store"
	"github.com/MicBur/Fuel-prediction-API/internal/train"
	"github.com/MicBur/Fuel-prediction-API/internal/weather"
	"github.com/MicBur/Fuel-prediction-API/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create data directory: %v", err)
		}
	}

	// Durable sqlite store; schema migrates on open.
	st, err := store.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Source adapters, each owning its own circuit breaker.
	fuelClient := fuelprice.NewClient(httpClient, cfg.TankerkoenigAPIKey)
	forecastClient := providers.NewOpenWeatherClient(httpClient, cfg.OpenWeatherAPIKey)
	archiveClient := providers.NewMeteostatClient(httpClient, cfg.MeteostatAPIKey)
	dwdClient := providers.NewDWDClient(cfg.DWDAPIKey)

	weatherService := weather.NewService(forecastClient, dwdClient, cfg.Lat, cfg.Lng)

	// ETL core and its out-of-band companions.
	pipeline := etl.NewPipeline(st, fuelClient, weatherService, cfg)
	backfiller := etl.NewBackfiller(st, archiveClient, cfg.Lat, cfg.Lng)
	trainer := train.NewTrainer(st, weatherService, cfg.FuelType)

	// Periodic ETL + retrain triggers.
	sched := scheduler.New(pipeline, trainer, cfg.ETLInterval, cfg.RetrainInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "fuel-prediction-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "fuel-prediction-api",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.API{
		Pipeline:   pipeline,
		Backfiller: backfiller,
		Trainer:    trainer,
		Store:      st,
		Weather:    weatherService,
		Config:     cfg,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
