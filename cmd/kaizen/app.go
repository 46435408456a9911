package main

import (
	"fmt"
	"io"

	"github.com/0xmhha/kaizen/pkg/bus"
	"github.com/0xmhha/kaizen/pkg/config"
	"github.com/0xmhha/kaizen/pkg/logger"
	"github.com/0xmhha/kaizen/pkg/stats"
)

// app holds what every command needs: the configuration snapshot, a
// logger and the opened ledger.
type app struct {
	cfg        *config.Config
	configPath string
	log        logger.Logger
	store      stats.Store
	ledger     stats.Ledger
	bus        *bus.Bus
}

// loadConfig loads the configuration snapshot and a logger for it. A
// fallback to defaults is logged, never returned. Records meant for the
// process streams go to logOut.
func loadConfig(configPath string, logOut io.Writer) (*config.Config, string, logger.Logger) {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()

	log := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Console: logOut,
	})

	if err != nil {
		log.Warn("using default configuration", "error", err)
	}

	return cfg, loader.Path(), log
}

// openApp loads the configuration and opens the ledger store.
func openApp(configPath string, logOut io.Writer) (*app, error) {
	cfg, path, log := loadConfig(configPath, logOut)

	store, err := stats.OpenBoltStore(stats.StoreConfig{
		DBPath: cfg.Storage.DBPath,
	}, log.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("failed to open stats store: %w", err)
	}

	ledger, err := stats.New(stats.Config{Store: store}, log.With("component", "ledger"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		configPath: path,
		log:        log,
		store:      store,
		ledger:     ledger,
		bus:        bus.New(),
	}, nil
}

// close releases the store.
func (a *app) close() {
	a.bus.Close()
	if err := a.store.Close(); err != nil {
		a.log.Error("failed to close stats store", "error", err)
	}
}
