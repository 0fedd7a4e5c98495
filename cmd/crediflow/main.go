package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"crediflow/internal/advisor"
	"crediflow/internal/amqp"
	"crediflow/internal/cache"
	"crediflow/internal/cli"
	apphttp "crediflow/internal/http"
	applog "crediflow/internal/log"
	"crediflow/internal/metrics"
	"crediflow/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.SlogLevel(), applog.ComponentApp)
	metrics.Init()

	store := cli.InitStore(context.Background(), logger, cfg)
	logger.Info("Store ready", "backend", cfg.DataBackend, "seeded", store.Seeded)

	opts := services.Options{}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Events are best effort; the API keeps serving without them.
			logger.Warn("AMQP unavailable, change events disabled", "error", err)
		} else {
			opts.Publisher = client
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange)
		}
	}
	svc := services.New(store.Backend, opts)

	var gen advisor.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := advisor.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Gemini client unavailable, insights fall back to static text", "error", err)
		} else {
			gen = g
		}
	}
	insights := advisor.NewService(gen, advisor.Config{Timeout: cfg.InsightsTimeout, TTL: cfg.InsightsTTL})

	caches := cache.NewManager()
	caches.Register(insights.Cache())
	caches.StartCleanup(5 * time.Minute)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	}, svc, insights)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		// Closes the store and the AMQP publisher.
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close services", "error", err)
		}
	})

	logger.Info("Starting crediflow server", "port", cfg.Port, "backend", cfg.DataBackend,
		"insights", gen != nil, "events", opts.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
