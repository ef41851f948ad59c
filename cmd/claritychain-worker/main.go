package main

import (
	"context"
	"errors"
	"time"

	"claritychain/internal/cli"
	"claritychain/internal/log"
	"claritychain/internal/sheets"
	gsheet "claritychain/internal/sheets/google"
	memsheet "claritychain/internal/sheets/memory"
	"claritychain/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting claritychain-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend == "memory" {
		logger.Warn("Worker is reading a private in-memory ledger; use DATA_BACKEND=sqlite to export the server's donations")
	}
	res := cli.InitBackend(context.Background(), logger, cfg)

	var exporter sheets.DonationExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		exporter = memsheet.New()
		logger.Info("Google Sheets disabled - exporting to memory")
	}
	exportWorker := worker.NewExportWorker(res.Store, exporter)

	amqpClient := cli.InitAMQP(logger, cfg, cfg.AMQPQueue)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	// Catch up on anything published while the worker was down.
	if err := exportWorker.Backfill(ctx); err != nil {
		logger.Error("Startup backfill failed", "error", err)
	}

	if amqpClient != nil {
		go func() {
			if err := amqpClient.ConsumeActivity(ctx, exportWorker.HandleActivity); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Activity consumption failed", "error", err)
			}
		}()
	} else {
		logger.Info("Skipping AMQP consumption - relying on periodic backfill")
	}

	go func() {
		ticker := time.NewTicker(cfg.BackfillInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := exportWorker.Backfill(ctx); err != nil && ctx.Err() == nil {
					logger.Error("Periodic backfill failed", "error", err)
				}
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
