package anonymize_test

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trobanga/hl7anon/internal/anonymize"
	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/models"
)

// memStore is an in-memory term store with the same conflict semantics as the sqlite one
type memStore struct {
	terms map[string][]byte
	puts  int
}

func newMemStore() *memStore {
	return &memStore{terms: make(map[string][]byte)}
}

func (m *memStore) Get(key string, dst any) (bool, error) {
	raw, ok := m.terms[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memStore) Put(key string, value any, overwrite bool) error {
	if _, exists := m.terms[key]; exists && !overwrite {
		return lib.ErrTermExists(key)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.terms[key] = raw
	m.puts++
	return nil
}

func (m *memStore) value(t *testing.T, key string) string {
	t.Helper()
	var v string
	found, err := m.Get(key, &v)
	require.NoError(t, err)
	require.True(t, found, "expected %q to be cached", key)
	return v
}

func testLogger() *lib.Logger {
	return lib.NewLoggerWithWriter(lib.LogLevelDebug, io.Discard)
}

func newResolver() (*anonymize.Resolver, *memStore) {
	store := newMemStore()
	return anonymize.NewResolver(store, testLogger()), store
}

func testConfig() *models.ProjectConfig {
	cfg := models.DefaultConfig()
	return &cfg
}

// mustGen takes a generator constructor's results and fails t on error
func mustGen(gen anonymize.Generator[string], err error) func(t *testing.T) anonymize.Generator[string] {
	return func(t *testing.T) anonymize.Generator[string] {
		t.Helper()
		require.NoError(t, err)
		return gen
	}
}
