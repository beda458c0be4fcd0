// Package cli provides the ledger command tree and the process bootstrap
// shared by cmd/ledger and cmd/ledger-worker.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homeledger/internal/amqp"
	"homeledger/internal/cache"
	"homeledger/internal/config"
	"homeledger/internal/log"
	"homeledger/internal/services"
	"homeledger/internal/storage"
)

const closedMonthCacheSize = 64

// SetupLogger creates a logger for component at the configured level and
// makes it the process default.
func SetupLogger(cfg *config.Config, out io.Writer, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads the optional .env file and the environment,
// then validates the result.
func LoadAndValidateConfig() (*config.Config, error) {
	config.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenLedger opens the SQLite ledger and wires the optional AMQP publisher.
// A broker that cannot be reached only disables events. The returned func
// releases everything that was opened.
func OpenLedger(cfg *config.Config, logger *log.Logger) (*services.LedgerService, func(), error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, err
	}

	opts := []services.Option{
		services.WithLogger(logger.WithComponent(log.ComponentLedger)),
		services.WithClosingEnforcement(cfg.EnforceMonthClosing),
	}
	if cfg.ClosedMonthCacheTTL > 0 {
		opts = append(opts, services.WithClosedMonthCache(cache.NewClosedMonths(closedMonthCacheSize, cfg.ClosedMonthCacheTTL)))
	}

	var publisher *amqp.Client
	if cfg.EventsEnabled() {
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", log.FieldError, err)
			publisher = nil
		} else {
			opts = append(opts, services.WithPublisher(publisher))
		}
	}

	ledger := services.NewLedgerService(repo, opts...)
	cleanup := func() {
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", log.FieldError, err)
			}
		}
		if err := ledger.Close(); err != nil {
			logger.Warn("Failed to close ledger", log.FieldError, err)
		}
	}
	return ledger, cleanup, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// The returned context is cancelled on SIGINT, SIGTERM or a call to the
// returned cancel func; done closes once cleanup finished or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, context.CancelFunc, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, cancel, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

// logLevelFor keeps command output clean: below warn only with --verbose.
func logLevelFor(cfg *config.Config, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if level := log.ParseLevel(cfg.LogLevel); level > slog.LevelWarn {
		return level
	}
	return slog.LevelWarn
}
