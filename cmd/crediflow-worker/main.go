package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"crediflow/internal/amqp"
	"crediflow/internal/cli"
	applog "crediflow/internal/log"
	"crediflow/internal/metrics"
	"crediflow/internal/services"
	gsheet "crediflow/internal/sheets/google"
	"crediflow/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.SlogLevel(), applog.ComponentWorker)
	metrics.Init()

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker cannot start",
			applog.NewFields().WithError(err).WithErrorType(applog.ErrorTypeConfiguration).ToSlice()...)
		os.Exit(1)
	}
	logger.Info("Starting crediflow-worker", "backend", cfg.DataBackend)

	store := cli.InitStore(context.Background(), logger, cfg)
	// The worker only reads, so it never publishes events of its own.
	svc := services.New(store.Backend, services.Options{})
	defer svc.Close()

	writer, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client",
			applog.NewFields().WithError(err).WithErrorType(applog.ErrorTypeNetwork).ToSlice()...)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(svc.Ledger, writer, logger.Logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := syncWorker.StartupSync(ctx); err != nil {
		// Not fatal: the periodic sync and the next event retry it.
		logger.Error("Startup sync failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client",
				applog.NewFields().WithError(err).WithErrorType(applog.ErrorTypeNetwork).ToSlice()...)
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			return client.Consume(gctx, cfg.WorkerConcurrency, syncWorker.HandleEvent)
		})
	} else {
		logger.Info("Skipping AMQP consumption - no AMQP_URL provided, periodic sync only")
	}
	g.Go(func() error {
		return syncWorker.RunPeriodic(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
