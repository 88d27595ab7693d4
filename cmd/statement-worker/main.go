package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"moliya/internal/amqp"
	"moliya/internal/cli"
	applog "moliya/internal/log"
	"moliya/internal/sheets"
	gsheet "moliya/internal/sheets/google"
	mem "moliya/internal/sheets/memory"
	"moliya/internal/worker"
)

func main() {
	logger, cfg := cli.Bootstrap(applog.ComponentStatementWorker)
	logger.Info("Starting statement-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the statement worker")
		os.Exit(1)
	}

	repo := cli.OpenRepository(logger, cfg)
	defer repo.Close()

	var appender sheets.StatementAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets statement export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		appender = mem.New()
		logger.Info("No GOOGLE_SPREADSHEET_ID provided - statement rows stay in memory")
	}

	statementWorker := worker.NewStatementWorker(repo, appender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	err := amqp.ConsumeForever(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		func(msg *amqp.TransactionRecordedMessage) error {
			return statementWorker.HandleTransactionRecorded(ctx, msg)
		})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("Statement-worker stopped")
}
