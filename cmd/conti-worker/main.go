package main

import (
	"context"
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"conti/internal/amqp"
	"conti/internal/cli"
	"conti/internal/config"
	"conti/internal/log"
	gsheet "conti/internal/sheets/google"
	"conti/internal/storage"
	"conti/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(boot, (*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, log.ComponentWorker)

	logger.Info("Starting conti-worker")

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// The store is only read for rebuilds and to skip stale created events.
	startCtx, startCancel := context.WithTimeout(ctx, 30*time.Second)
	defer startCancel()
	store, err := storage.Open(startCtx, storage.Options{
		Backend:     cfg.DataBackend,
		SQLitePath:  cfg.SQLiteDBPath,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		logger.Error("Failed to open store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	// The client keeps its context for token refreshes.
	sheetsClient, err := gsheet.New(context.WithoutCancel(startCtx), gsheet.Config{
		SpreadsheetID:          cfg.GoogleSpreadsheetID,
		SheetName:              cfg.GoogleSheetName,
		ServiceAccountJSON:     cfg.GoogleServiceAccountJSON,
		ServiceAccountJSONFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(store, sheetsClient)
	if err := mirror.Prepare(ctx, cfg.SheetsRebuildOnStart); err != nil {
		// Not fatal: events keep flowing and the next rebuild fixes the sheet.
		logger.Error("Failed to prepare mirror sheet", "error", err, "rebuild", cfg.SheetsRebuildOnStart)
	}

	logger.Info("Consuming expense events", "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumeExpenseEvents(ctx, mirror.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
