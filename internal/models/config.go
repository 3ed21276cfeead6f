package models

import "time"

// ProjectConfig is the top-level configuration for an anonymization campaign
type ProjectConfig struct {
	CacheFile string `yaml:"cache_file" json:"cache_file"` // Term cache shared by every run of the campaign
	DayShift  int    `yaml:"day_shift" json:"day_shift"`   // Ballpark date shift in days, sign gives the direction
	RunsDir   string `yaml:"runs_dir" json:"runs_dir"`     // Where run records are kept
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// MinDayShift is the smallest ballpark shift magnitude considered unpredictable
const MinDayShift = 5 * 365

// DefaultConfig returns a sensible default configuration
func DefaultConfig() ProjectConfig {
	return ProjectConfig{
		CacheFile: "./hl7anon-cache.db",
		DayShift:  3650,
		RunsDir:   "./runs",
		LogLevel:  "info",
	}
}

// Ballpark returns the configured day shift as a duration
func (c *ProjectConfig) Ballpark() time.Duration {
	return time.Duration(c.DayShift) * 24 * time.Hour
}
