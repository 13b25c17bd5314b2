package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "flywatch/internal/api/http"
	"flywatch/internal/config"
	"flywatch/internal/forecast"
	"flywatch/internal/monitor"
	"flywatch/internal/notify"
	"flywatch/internal/providers"
	"flywatch/internal/scheduler"
	"flywatch/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory store with configured analysis retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Provider clients with resilience (backoff + circuit breaker).
	openweather := providers.NewOpenWeatherClient(httpClient, cfg.OpenWeatherAPIKey)
	visualcrossing := providers.NewVisualCrossingClient(httpClient, cfg.VisualCrossingAPIKey)

	analyzer := forecast.NewAnalyzer(cfg.Timezone)
	dispatcher := notify.NewDispatcher(nil)

	// Core service orchestrating providers, analysis and notifications.
	service := monitor.NewService(memStore, openweather, visualcrossing, analyzer, dispatcher, cfg.ProviderDelay)

	// Scheduler that periodically checks every active location.
	sched := scheduler.New(service, cfg.PollInterval, cfg.Timezone)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "flywatch",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
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

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "flywatch",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Store:          memStore,
		Monitor:        service,
		GeocoderAPIKey: cfg.GeocoderAPIKey,
	})

	go func() {
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
