// Package app assembles the logger, store and inventory service shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"stockdash/m/internal/config"
	"stockdash/m/internal/inventory"
	"stockdash/m/internal/logging"
	"stockdash/m/internal/seed"
	"stockdash/m/internal/store"
	"stockdash/m/internal/store/csvstore"
	"stockdash/m/internal/store/sqlitestore"
)

// App is the wired application shared by cmd/server and cmd/forecast.
type App struct {
	Config    config.Config
	Logger    *logrus.Logger
	Store     store.Store
	Inventory *inventory.Service
}

// Bootstrap reads the configuration, opens the configured store and seeds
// the demo data when the store is empty and seeding is enabled.
func Bootstrap(ctx context.Context) (*App, error) {
	logger := logging.New("info", "json", nil)
	cfg := config.Load(logger)
	logging.Configure(logger, cfg.LogLevel, cfg.LogFormat)

	st, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{"driver": cfg.StoreDriver, "data_dir": cfg.DataDir}).Info("store opened")

	if cfg.SeedDemo {
		if _, err := seed.LoadDemo(ctx, st, logger); err != nil {
			st.Close()
			return nil, err
		}
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		Inventory: inventory.NewService(st, cfg.Forecast, logger),
	}, nil
}

// OpenStore returns the backend named by cfg.StoreDriver.
func OpenStore(cfg config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		st, err := sqlitestore.Open(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return st, nil
	case "csv", "":
		st, err := csvstore.New(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (a *App) Close() error {
	return a.Store.Close()
}

// Fatal reports a bootstrap failure before the configured logger exists.
func Fatal(err error) {
	logrus.WithError(err).Fatal("startup failed")
}
