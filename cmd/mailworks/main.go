package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mazzlabs/mailworks/internal/config"
	"github.com/mazzlabs/mailworks/internal/di"
	"github.com/mazzlabs/mailworks/internal/smtpd"
	"github.com/mazzlabs/mailworks/internal/store"
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
	cfg *config.Config,
	logger *zap.Logger,
	st store.Store,
	pair *smtpd.Pair,
) error {
	defer logger.Sync()

	if err := bootstrapAdmin(cfg, logger, st); err != nil {
		logger.Fatal("Failed to bootstrap admin account", zap.Error(err))
		return err
	}

	// Start the listeners
	if err := pair.Start(); err != nil {
		logger.Fatal("Failed to start SMTP listeners", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the listeners
	if err := pair.Stop(); err != nil {
		logger.Error("Failed to stop SMTP listeners", zap.Error(err))
	}

	// Close the storage backend
	if err := st.Close(); err != nil {
		logger.Error("Failed to close storage backend", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}

// bootstrapAdmin creates the configured admin account on first start.
func bootstrapAdmin(cfg *config.Config, logger *zap.Logger, st store.Store) error {
	admin := cfg.GetAdmin()
	if admin.Email == "" || admin.Password == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	acct, err := st.ResolveAddress(ctx, admin.Email)
	if err != nil {
		return err
	}
	if acct != nil {
		logger.Debug("Admin account already exists", zap.String("email", admin.Email))
		return nil
	}

	if _, err := st.CreateAccount(ctx, admin.Email, admin.Password); err != nil {
		return err
	}
	logger.Info("Created admin account", zap.String("email", admin.Email))
	return nil
}
