package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/models"
)

const (
	StateFileName = "run.json"
)

// GetRunDir returns the directory path for a specific run
func GetRunDir(runsBaseDir string, runID string) string {
	return filepath.Join(runsBaseDir, runID)
}

// GetStateFilePath returns the full path to a run's state file
func GetStateFilePath(runsBaseDir string, runID string) string {
	return filepath.Join(GetRunDir(runsBaseDir, runID), StateFileName)
}

// LoadRunState reads a run record from disk
func LoadRunState(runsBaseDir string, runID string) (*models.AnonymizationRun, error) {
	statePath := GetStateFilePath(runsBaseDir, runID)

	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lib.ErrRunNotFound(runID)
		}
		return nil, fmt.Errorf("failed to read run state: %w", err)
	}

	var run models.AnonymizationRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, lib.ErrCorruptedRunState(runID, err)
	}

	if err := run.Validate(); err != nil {
		return nil, lib.ErrCorruptedRunState(runID, err)
	}

	return &run, nil
}

// SaveRunState writes a run record to disk with atomic write
// Uses temp file + rename so a crash never leaves a half-written record
func SaveRunState(runsBaseDir string, run *models.AnonymizationRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid run: %w", err)
	}

	runDir := GetRunDir(runsBaseDir, run.RunID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}

	tempFile := filepath.Join(runDir, fmt.Sprintf(".run.tmp.%s", uuid.New().String()))
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}

	statePath := GetStateFilePath(runsBaseDir, run.RunID)
	if err := os.Rename(tempFile, statePath); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to save run state: %w", err)
	}

	return nil
}

// ListAllRuns scans the runs directory and returns all run IDs, sorted
func ListAllRuns(runsBaseDir string) ([]string, error) {
	entries, err := os.ReadDir(runsBaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	runIDs := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		runID := entry.Name()
		if _, err := os.Stat(GetStateFilePath(runsBaseDir, runID)); err == nil {
			runIDs = append(runIDs, runID)
		}
	}
	sort.Strings(runIDs)

	return runIDs, nil
}

// DeleteRun removes a run's directory
func DeleteRun(runsBaseDir string, runID string) error {
	runDir := GetRunDir(runsBaseDir, runID)

	if _, err := os.Stat(runDir); os.IsNotExist(err) {
		return lib.ErrRunNotFound(runID)
	}

	if err := os.RemoveAll(runDir); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	return nil
}
