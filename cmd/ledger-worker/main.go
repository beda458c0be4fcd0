package main

import (
	"context"
	"errors"
	"os"
	"time"

	"homeledger/internal/amqp"
	"homeledger/internal/cli"
	"homeledger/internal/config"
	"homeledger/internal/log"
	"homeledger/internal/services"
	"homeledger/internal/sheets"
	gsheet "homeledger/internal/sheets/google"
	"homeledger/internal/sheets/memory"
	"homeledger/internal/storage"
	"homeledger/internal/worker"
)

func main() {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		bootstrap := cli.SetupLogger(&config.Config{}, os.Stdout, log.ComponentWorker)
		bootstrap.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, os.Stdout, log.ComponentWorker)
	logger.Info("Starting ledger-worker", log.FieldOperation, log.OpStartup)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required to consume ledger events")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	ledger := services.NewLedgerService(repo,
		services.WithLogger(logger.WithComponent(log.ComponentLedger)),
		services.WithClosingEnforcement(cfg.EnforceMonthClosing),
	)

	var appender sheets.RowAppender
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, gsheet.Credentials{
			JSON: cfg.GoogleServiceAccountJSON,
			File: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			ledger.Close()
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Warn("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, closed months are kept in memory only")
		appender = memory.New()
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		ledger.Close()
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(ledger, appender, cfg.GoogleSheetName, cfg.GoogleBillsSheetName,
		logger.WithComponent(log.ComponentWorker))

	ctx, cancel, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		logger.Info("Shutting down worker...", log.FieldOperation, log.OpShutdown)
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
		if err := ledger.Close(); err != nil {
			logger.Warn("Failed to close ledger", log.FieldError, err)
		}
	})

	go func() {
		err := amqpClient.ConsumeEvents(ctx, syncWorker.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
		cancel()
	}()

	cli.WaitForShutdown(ctx, done)
}
