package cmd

import (
	"fmt"

	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/models"
	"github.com/trobanga/hl7anon/internal/services"
)

func loadConfig() (*models.ProjectConfig, error) {
	config, err := services.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return config, nil
}

// newLogger honours log_level; --verbose forces debug
func newLogger(config *models.ProjectConfig) *lib.Logger {
	level := lib.ParseLogLevel(config.LogLevel)
	if verbose {
		level = lib.LogLevelDebug
	}
	return lib.NewLogger(level)
}

// setup loads the configuration and opens the term cache exclusively
// The caller owns the store and must close it.
func setup() (*models.ProjectConfig, *lib.Logger, *services.TermStore, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(config)

	store, err := services.OpenTermStore(config.CacheFile, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return config, logger, store, nil
}

func closeStore(store *services.TermStore, logger *lib.Logger) {
	if err := store.Close(); err != nil {
		logger.Error("Failed to close term cache", "error", err)
	}
}
