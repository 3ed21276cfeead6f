package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Validate checks if an AnonymizationRun has valid fields
func (r *AnonymizationRun) Validate() error {
	if r.RunID == "" {
		return errors.New("run_id is required")
	}
	if _, err := uuid.Parse(r.RunID); err != nil {
		return fmt.Errorf("invalid run_id: must be a valid UUID: %w", err)
	}

	if r.InputFile == "" {
		return errors.New("input_file is required")
	}

	if !IsValidRunStatus(r.Status) {
		return fmt.Errorf("invalid status: %s", r.Status)
	}

	if r.MessagesProcessed < 0 {
		return errors.New("messages_processed cannot be negative")
	}
	if r.BytesRead < 0 {
		return errors.New("bytes_read cannot be negative")
	}

	if r.Status == RunStatusFailed && r.ErrorMessage == "" {
		return errors.New("error_message must be set when run has failed")
	}

	return nil
}

// Validate checks if a ProjectConfig has valid fields
func (c *ProjectConfig) Validate() error {
	if c.CacheFile == "" {
		return errors.New("cache_file is required")
	}

	if c.DayShift > -MinDayShift && c.DayShift < MinDayShift {
		return fmt.Errorf("day_shift must be at least %d days in either direction, got %d", MinDayShift, c.DayShift)
	}

	if c.RunsDir == "" {
		return errors.New("runs_dir is required")
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unrecognized log_level: %s", c.LogLevel)
	}

	return nil
}

// ValidateCacheDir checks that the directory holding the cache file exists
// Creates the directory automatically if it doesn't exist
func ValidateCacheDir(cacheFile string) error {
	return ensureDir(filepath.Dir(cacheFile))
}

// ValidateRunsDir checks if the runs directory exists and is writable
// Creates the directory automatically if it doesn't exist
func ValidateRunsDir(path string) error {
	return ensureDir(path)
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", path, err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory %s: %w", path, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	// Check write permission by creating a test file
	testFile := filepath.Join(path, ".write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", path, err)
	}
	_ = f.Close()
	_ = os.Remove(testFile)

	return nil
}
