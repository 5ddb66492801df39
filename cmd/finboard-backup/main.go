package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"finboard/internal/backend"
	"finboard/internal/backup"
	"finboard/internal/cli"
	"finboard/internal/events"
	"finboard/internal/log"
)

func main() {
	once := pflag.Bool("once", false, "write the backup once and exit")
	pflag.Parse()

	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel)
	logger.Info("Starting finboard-backup",
		append(log.NewFields().WithOperation(log.OpStartup).ToSlice(), "once", *once)...)

	if !cfg.BackupEnabled() {
		logger.Error("Google Sheets backup disabled - set GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}
	if !*once && !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required unless --once is given")
		os.Exit(1)
	}

	ctx, cancel := cli.GracefulShutdown(logger, 30*time.Second, nil)
	defer cancel()

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// The worker consumes events itself; it never publishes.
	bc.AMQPURL = ""
	res, err := backend.NewFactory(logger).Create(ctx, bc)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}
	defer res.Cleanup()

	user, err := res.Session.User(ctx)
	if err != nil || !res.Session.Active() {
		logger.Error("No active session - run 'finboard login' with the same SESSION_* settings first", "error", err)
		os.Exit(1)
	}

	sheet, err := backup.NewGoogleSheet(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleCredentialsFile, cfg.GoogleCredentialsJSON, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	b := backup.New(sheet, cfg.GoogleSheetName, res.Backend, logger)

	if *once {
		n, err := b.Run(ctx)
		if err != nil {
			logger.Error("Backup failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Backup complete", "transactions", n, "sheet", cfg.GoogleSheetName)
		return
	}

	client, err := events.Dial(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	worker := backup.NewWorker(b, cfg.BackupDebounce, user.ID, logger)
	// Start from a fresh copy; events only tell us when to refresh it.
	worker.Trigger()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error { return client.Consume(gctx, worker.Handle) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.NewFields().WithOperation(log.OpConsume).WithError(err).ToSlice()...)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", log.NewFields().WithOperation(log.OpShutdown).ToSlice()...)
}
