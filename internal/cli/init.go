// Package cli consolidates the initialization shared by cmd/moliya,
// cmd/recurring-worker and cmd/statement-worker.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"moliya/internal/amqp"
	"moliya/internal/config"
	applog "moliya/internal/log"
	"moliya/internal/storage"
)

// Bootstrap loads .env, installs the component logger and returns a
// validated configuration. Exits the process when the configuration is
// unusable.
func Bootstrap(component string) (*slog.Logger, *config.Config) {
	_ = godotenv.Load()

	logger := applog.Setup(component)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return logger, cfg
}

// OpenRepository opens the SQLite store or exits.
func OpenRepository(logger *slog.Logger, cfg *config.Config) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	return repo
}

// DialBroker connects to AMQP when configured. Returns nil when the
// broker is disabled or unreachable; callers run without publishing.
func DialBroker(logger *slog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - transaction events will not be published")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without event publishing", "error", err)
		return nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}
