package services_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/models"
	"github.com/trobanga/hl7anon/internal/services"
)

func newRun(runID string) *models.AnonymizationRun {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.AnonymizationRun{
		RunID:     runID,
		CreatedAt: now,
		UpdatedAt: now,
		InputFile: "/data/batch.hl7",
		CacheFile: "/data/cache.db",
		Status:    models.RunStatusInProgress,
	}
}

// TestStatePersistence_SaveAndLoad tests the complete save/load cycle
func TestStatePersistence_SaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	original := newRun(uuid.New().String())
	original.MessagesProcessed = 12
	original.BytesRead = 4096

	require.NoError(t, services.SaveRunState(tempDir, original))

	_, err := os.Stat(services.GetStateFilePath(tempDir, original.RunID))
	require.NoError(t, err, "State file should exist after save")

	loaded, err := services.LoadRunState(tempDir, original.RunID)
	require.NoError(t, err)
	assert.Equal(t, original.RunID, loaded.RunID)
	assert.Equal(t, original.Status, loaded.Status)
	assert.Equal(t, original.MessagesProcessed, loaded.MessagesProcessed)
	assert.Equal(t, original.BytesRead, loaded.BytesRead)
	assert.True(t, original.CreatedAt.Equal(loaded.CreatedAt))

	// No temp files left behind
	entries, err := os.ReadDir(services.GetRunDir(tempDir, original.RunID))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStatePersistence_RejectsInvalid(t *testing.T) {
	run := newRun("not-a-uuid")
	err := services.SaveRunState(t.TempDir(), run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot save invalid run")
}

func TestStatePersistence_NotFound(t *testing.T) {
	_, err := services.LoadRunState(t.TempDir(), uuid.New().String())
	require.Error(t, err)
	assert.True(t, lib.IsCategory(err, lib.CategoryState))
}

func TestStatePersistence_Corrupted(t *testing.T) {
	tempDir := t.TempDir()
	runID := uuid.New().String()
	require.NoError(t, os.MkdirAll(services.GetRunDir(tempDir, runID), 0755))
	require.NoError(t, os.WriteFile(services.GetStateFilePath(tempDir, runID), []byte("{broken"), 0644))

	_, err := services.LoadRunState(tempDir, runID)
	require.Error(t, err)
	assert.True(t, lib.IsCategory(err, lib.CategoryState))
}

func TestListAllRuns(t *testing.T) {
	tempDir := t.TempDir()

	ids, err := services.ListAllRuns(filepath.Join(tempDir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, ids)

	a, b := uuid.New().String(), uuid.New().String()
	require.NoError(t, services.SaveRunState(tempDir, newRun(a)))
	require.NoError(t, services.SaveRunState(tempDir, newRun(b)))
	// Directory without a record is ignored
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "stray"), 0755))

	ids, err = services.ListAllRuns(tempDir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, ids)

	require.NoError(t, services.DeleteRun(tempDir, a))
	ids, err = services.ListAllRuns(tempDir)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, ids)
}
