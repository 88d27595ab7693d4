package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moliya/internal/cli"
	applog "moliya/internal/log"
	"moliya/internal/services"
)

func main() {
	logger, cfg := cli.Bootstrap(applog.ComponentRecurringWorker)
	logger.Info("Starting recurring-worker")

	repo := cli.OpenRepository(logger, cfg)
	defer repo.Close()

	amqpClient := cli.DialBroker(logger, cfg)
	defer amqpClient.Close()

	var publisher services.EventPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}
	processor := services.NewRecurringProcessor(repo, publisher, cfg.OwnerFanout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"fanout", cfg.OwnerFanout,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	// One sweep on startup so a long-stopped worker catches up
	// immediately.
	if count, err := processor.ProcessAllDue(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "materialized", count)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				count, err := processor.ProcessAllDue(ctx, now)
				if err != nil {
					logger.Error("Periodic processing failed", "error", err)
				} else {
					logger.Info("Periodic processing complete",
						"materialized", count,
						"next_check", now.Add(cfg.RecurringInterval).Format("15:04:05"))
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}
	cancel()
	logger.Info("Recurring-worker stopped")
}
