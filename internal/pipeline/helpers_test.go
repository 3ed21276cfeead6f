package pipeline_test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trobanga/hl7anon/internal/anonymize"
	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/models"
	"github.com/trobanga/hl7anon/internal/services"
)

const batch = "BHS|^~\\&|batchsendingapp^BSAID^ISO|batchfacility^BFID^ISO|||20410209150319||||batchcontrolid\r" +
	"MSH|^~\\&|sendingapp^SAID|sendingfacility^SFID^NPI|||30301210090814||ADT^A08^ADT_A01|1234567890303012100908143982|P|2.5\r" +
	"PID|1||patientID^^^&assigningID&ISO\r" +
	"MSH|^~\\&|sendingapp^SAID|sendingfacility^SFID^NPI|||30301210091014||ADT^A08^ADT_A01|1234567890303012100910143983|P|2.5\r" +
	"PID|1||patientID^^^&assigningID&ISO\r" +
	"BTS|2\r"

func testLogger() *lib.Logger {
	return lib.NewLoggerWithWriter(lib.LogLevelDebug, io.Discard)
}

func testConfig(t *testing.T) *models.ProjectConfig {
	t.Helper()
	dir := t.TempDir()
	return &models.ProjectConfig{
		CacheFile: filepath.Join(dir, "cache.db"),
		DayShift:  3650,
		RunsDir:   filepath.Join(dir, "runs"),
		LogLevel:  "debug",
	}
}

func openStore(t *testing.T, cfg *models.ProjectConfig) *services.TermStore {
	t.Helper()
	store, err := services.OpenTermStore(cfg.CacheFile, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTransformer(t *testing.T, cfg *models.ProjectConfig, store anonymize.Store) *anonymize.Transformer {
	t.Helper()
	r := anonymize.NewResolver(store, testLogger())
	fields, err := anonymize.NewMBDSFieldMap(r, cfg)
	require.NoError(t, err)
	return anonymize.NewTransformer(fields, r, testLogger())
}
