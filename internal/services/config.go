package services

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/models"
)

// LoadConfig loads configuration from file and merges with CLI flags
// Priority order (highest to lowest):
//  1. CLI flags (via viper bindings)
//  2. Environment variables
//  3. Configuration file
//  4. Default values
func LoadConfig(configFile string) (*models.ProjectConfig, error) {
	v := viper.GetViper()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("hl7anon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/hl7anon")
		v.AddConfigPath("/etc/hl7anon")
	}

	// HL7ANON_CACHE_FILE, HL7ANON_DAY_SHIFT, ...
	v.SetEnvPrefix("HL7ANON")
	v.AutomaticEnv()

	defaults := models.DefaultConfig()
	v.SetDefault("cache_file", defaults.CacheFile)
	v.SetDefault("day_shift", defaults.DayShift)
	v.SetDefault("runs_dir", defaults.RunsDir)
	v.SetDefault("log_level", defaults.LogLevel)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, lib.WrapError(lib.CategoryConfiguration,
				"Failed to read config file", err,
				"Check the YAML syntax of the config file",
				"See hl7anon.example.yaml for the accepted keys")
		}
	}

	config := models.ProjectConfig{
		CacheFile: v.GetString("cache_file"),
		DayShift:  v.GetInt("day_shift"),
		RunsDir:   v.GetString("runs_dir"),
		LogLevel:  v.GetString("log_level"),
	}

	if err := config.Validate(); err != nil {
		return nil, lib.ErrInvalidConfig("configuration", err.Error())
	}

	if err := models.ValidateCacheDir(config.CacheFile); err != nil {
		return nil, fmt.Errorf("cache directory: %w", err)
	}

	return &config, nil
}

// GetConfigFilePath returns the path to the config file that was loaded
func GetConfigFilePath() string {
	return viper.ConfigFileUsed()
}

// SetConfigValue allows runtime override of config values
// Useful for CLI flag overrides
func SetConfigValue(key string, value interface{}) {
	viper.Set(key, value)
}
