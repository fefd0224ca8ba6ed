package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mazzlabs/mailworks/internal/config"
	"github.com/mazzlabs/mailworks/internal/store"
)

// StoreFactory creates storage backends based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore creates a storage backend based on configuration
func (f *StoreFactory) CreateStore() (store.Store, error) {
	storageCfg := f.cfg.GetStorage()

	switch storageCfg.Driver {
	case "memory":
		f.logger.Info("Using in-memory storage")
		return store.NewMemoryStore(f.logger), nil
	case "sqlite":
		if dir := filepath.Dir(storageCfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create storage directory: %w", err)
			}
		}
		f.logger.Info("Using SQLite storage", zap.String("path", storageCfg.SQLitePath))
		return store.NewSQLiteStore(storageCfg.SQLitePath, f.logger)
	case "mysql":
		f.logger.Info("Using MySQL storage")
		return store.NewMySQLStore(storageCfg.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", storageCfg.Driver)
	}
}
