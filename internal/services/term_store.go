package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/trobanga/hl7anon/internal/lib"

	_ "modernc.org/sqlite"
)

const (
	TermsTable = "terms"

	// Every write is synced before Put returns so an interrupted run keeps its terms
	sqliteOptions = "?_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
)

// Term is one cached assignment: canonical original -> JSON encoded replacement
type Term struct {
	Key       string
	Value     []byte
	CreatedAt time.Time
}

// TermStore is the persistent term cache of an anonymization campaign
// Backed by a single sqlite file; values are opaque JSON documents
type TermStore struct {
	db     *sql.DB
	lock   *CacheLock
	path   string
	logger *lib.Logger
}

// OpenTermStore opens (creating if needed) the term cache at path
// The cache is locked exclusively until Close; a second opener gets lib.ErrCacheLocked
func OpenTermStore(path string, logger *lib.Logger) (*TermStore, error) {
	lock, err := AcquireCacheLock(path, logger)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path+sqliteOptions)
	if err != nil {
		_ = lock.Release()
		return nil, lib.WrapError(lib.CategoryCache, fmt.Sprintf("Cannot open term cache %s", path), err)
	}
	db.SetMaxOpenConns(1)

	s := &TermStore{db: db, lock: lock, path: path, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		_ = lock.Release()
		return nil, lib.WrapError(lib.CategoryCache, fmt.Sprintf("Cannot initialize term cache %s", path), err,
			"Check that the file is a term cache created by hl7anon",
			"Point cache_file at a new path to start a fresh campaign")
	}

	logger.Debug("Opened term cache", "path", path)
	return s, nil
}

func (s *TermStore) migrate() error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`, TermsTable)
	_, err := s.db.Exec(query)
	return err
}

// Path returns the file backing the store
func (s *TermStore) Path() string {
	return s.path
}

// Get decodes the cached value for key into dst; false when nothing is cached
func (s *TermStore) Get(key string, dst any) (bool, error) {
	raw, found, err := s.GetRaw(key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, lib.ErrCacheCorrupted(key, err)
	}
	return true, nil
}

// GetRaw returns the JSON document cached for key
func (s *TermStore) GetRaw(key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow(fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, TermsTable), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup of %q failed: %w", key, err)
	}
	return []byte(value), true, nil
}

// Put stores value (JSON encoded) under key
// Without overwrite an existing key is left untouched and lib.ErrTermExists is returned
func (s *TermStore) Put(key string, value any, overwrite bool) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cannot encode value for %q: %w", key, err)
	}

	var query string
	if overwrite {
		query = fmt.Sprintf(`INSERT INTO %s (key, value, created_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at`, TermsTable)
	} else {
		query = fmt.Sprintf(`INSERT INTO %s (key, value, created_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO NOTHING`, TermsTable)
	}

	res, err := s.db.Exec(query, key, string(encoded), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert of %q failed: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert of %q failed: %w", key, err)
	}
	if n == 0 {
		return lib.ErrTermExists(key)
	}
	return nil
}

// Delete removes key; lib.ErrTermNotFound if it was not cached
func (s *TermStore) Delete(key string) error {
	res, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, TermsTable), key)
	if err != nil {
		return fmt.Errorf("delete of %q failed: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete of %q failed: %w", key, err)
	}
	if n == 0 {
		return lib.ErrTermNotFound(key)
	}
	return nil
}

// List returns all terms whose key starts with prefix, ordered by key
func (s *TermStore) List(prefix string) ([]Term, error) {
	query := fmt.Sprintf(`SELECT key, value, created_at FROM %s
		WHERE substr(key, 1, length(?)) = ? ORDER BY key`, TermsTable)
	rows, err := s.db.Query(query, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing terms failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	terms := []Term{}
	for rows.Next() {
		var (
			t       Term
			value   string
			created int64
		)
		if err := rows.Scan(&t.Key, &value, &created); err != nil {
			return nil, fmt.Errorf("listing terms failed: %w", err)
		}
		t.Value = []byte(value)
		t.CreatedAt = time.Unix(created, 0)
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// Keys returns the cached keys starting with prefix, ordered
func (s *TermStore) Keys(prefix string) ([]string, error) {
	terms, err := s.List(prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(terms))
	for _, t := range terms {
		keys = append(keys, t.Key)
	}
	return keys, nil
}

// Count returns the number of cached terms
func (s *TermStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, TermsTable)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting terms failed: %w", err)
	}
	return n, nil
}

// Close releases the database handle and the cache lock
func (s *TermStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if lockErr := s.lock.Release(); err == nil {
		err = lockErr
	}
	s.logger.Debug("Closed term cache", "path", s.path)
	return err
}

// CanonicalKey renders an original value as its cache key
func CanonicalKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format("2006-01-02T15:04:05.999999999")
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
