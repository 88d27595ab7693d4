package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moliya/internal/cli"
	apphttp "moliya/internal/http"
	applog "moliya/internal/log"
	"moliya/internal/services"
)

func main() {
	logger, cfg := cli.Bootstrap(applog.ComponentAPI)
	logger.Info("Starting moliya API")

	repo := cli.OpenRepository(logger, cfg)
	defer repo.Close()

	if cfg.SeedOwner != "" {
		if err := repo.Seed(context.Background(), cfg.SeedOwner); err != nil {
			logger.Error("Seeding failed", "error", err, "owner", cfg.SeedOwner)
			os.Exit(1)
		}
	}

	amqpClient := cli.DialBroker(logger, cfg)
	defer amqpClient.Close()

	var publisher services.EventPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	budgets := services.NewBudgetService(repo)
	ledger := services.NewLedgerService(repo, budgets, publisher)
	goals := services.NewGoalService(repo, publisher)
	recurring := services.NewRecurringProcessor(repo, publisher, cfg.OwnerFanout)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, budgets, goals, recurring, cfg.BaseCurrency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Listening", "port", cfg.Port, "base_currency", cfg.BaseCurrency)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
