package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"resumerank-engine/internal/config"
	"resumerank-engine/internal/logging"
	"resumerank-engine/internal/store"
)

const (
	dbFile      = "resumerank.db"
	lexiconFile = "lexicon.yml"
	lockFile    = "engine.lock"
)

// app is the state shared by every command: resolved paths, the loaded
// config and, for commands that need it, the run database.
type app struct {
	dataDir string
	cfgPath string
	cfg     config.Config
	logger  *slog.Logger
	db      *store.DB
}

func loadApp(withDB bool) (*app, error) {
	dataDir := viper.GetString("data_dir")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	cfgPath := viper.GetString("config")
	if cfgPath == "" {
		p, err := config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
		if err != nil {
			return nil, fmt.Errorf("config bootstrap failed: %w", err)
		}
		cfgPath = p
	}

	a := &app{dataDir: dataDir, cfgPath: cfgPath}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	a.cfg = cfg

	level, format := cfg.App.LogLevel, cfg.App.LogFormat
	if v := viper.GetString("log_level"); v != "" {
		level = v
	}
	if v := viper.GetString("log_format"); v != "" {
		format = v
	}
	a.logger = logging.New(level, format, os.Stderr)

	if withDB {
		db, err := store.Open(filepath.Join(dataDir, dbFile))
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(db.Pool); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.db = db
	}
	return a, nil
}

// loadConfig reads config.yml, applies lexicon.yml from the data dir on top
// of it and returns the normalized result. A config that fails validation
// is an error.
func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return cfg, fmt.Errorf("config load failed (%s): %w", a.cfgPath, err)
	}
	if err := config.OverlayLexicon(&cfg, filepath.Join(a.dataDir, lexiconFile)); err != nil {
		return cfg, fmt.Errorf("lexicon overlay: %w", err)
	}
	normalized, vr := config.NormalizeAndValidate(cfg)
	if !vr.OK() {
		return cfg, fmt.Errorf("invalid config (%s):\n- %s", a.cfgPath, strings.Join(vr.Errors, "\n- "))
	}
	return normalized, nil
}

func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
