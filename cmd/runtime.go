package cmd

import (
	"guide-builder/core/config"
	"guide-builder/core/database"
	"guide-builder/core/errors"
	"guide-builder/core/logger"
	"guide-builder/core/storage"
	"guide-builder/feature/guide"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime is the shared state every command starts from.
type runtime struct {
	cfg    *config.Config
	guide  *guide.Config
	logger *zap.Logger
	// store is nil when object storage is disabled.
	store storage.Client
	// db is nil when the database is unreachable.
	db *gorm.DB
}

// loadRuntime loads configuration and connects the optional backends.
func loadRuntime(withStorage bool) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	guideCfg, err := guide.LoadConfig(".")
	if err != nil {
		return nil, errors.Wrap(err, "failed to load guide config")
	}
	if err := guideCfg.Validate(); err != nil {
		return nil, err
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}

	rt := &runtime{cfg: cfg, guide: guideCfg, logger: logg}

	// Database (Optional)
	if conn, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("Optional database connection failed", zap.Error(err))
	} else {
		rt.db = conn
	}

	// Storage (Optional)
	if withStorage && cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create storage client")
		}
		rt.store = client
	}
	return rt, nil
}
