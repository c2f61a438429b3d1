// Command fintrack-worker consumes ledger events from AMQP and mirrors
// transactions into a Google spreadsheet.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()

	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout).WithComponent(applog.ComponentWorker)
	logger.Info("Starting fintrack-worker", applog.FieldOperation, applog.OpStartup)

	if err := cfg.ValidateWorker(); err != nil {
		cli.Fatal("Configuration validation failed", err)
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		cli.Fatal("Failed to open SQLite store", err)
	}

	mirror, err := newMirror(context.Background(), cfg, logger)
	if err != nil {
		store.Close()
		cli.Fatal("Failed to initialize spreadsheet mirror", err)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		store.Close()
		cli.Fatal("Failed to initialize AMQP client", err)
	}

	w := worker.NewMirrorWorker(store, mirror)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Error("AMQP close error", applog.FieldError, err)
		}
		if err := store.Close(); err != nil {
			logger.Error("Store close error", applog.FieldError, err)
		}
	})

	logger.Info("Consuming ledger events", "queue", cfg.AMQPQueue, "exchange", cfg.AMQPExchange)
	if err := client.Consume(ctx, w.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		_ = client.Close()
		_ = store.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped", applog.FieldOperation, applog.OpShutdown)
}

// newMirror returns the Google Sheets mirror when a spreadsheet is
// configured and an in-memory mirror otherwise.
func newMirror(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.Mirror, error) {
	if !cfg.MirrorEnabled() {
		logger.Warn("No GOOGLE_SPREADSHEET_ID configured, mirroring to memory only")
		return memory.New(), nil
	}

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets mirror initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return client, nil
}
