package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/spam-sentry/internal/core"
	"github.com/mikey/spam-sentry/internal/di"
	"github.com/mikey/spam-sentry/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	chatService ports.ChatService,
	classifier core.Classifier,
	metricsStore core.MetricsStore,
	audit core.AuditLogger,
) error {
	defer logger.Sync()

	// Start the bot
	if err := chatService.Start(); err != nil {
		logger.Fatal("Failed to start chat service", zap.Error(err))
		return err
	}
	logger.Info("Spam sentry is running, press Ctrl+C to exit")

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the bot
	if err := chatService.Stop(); err != nil {
		logger.Error("Failed to stop chat service", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}

	// Stop the metrics store if needed
	if stopper, ok := metricsStore.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	// Flush the audit log
	if syncer, ok := audit.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			logger.Debug("Failed to sync audit log", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
