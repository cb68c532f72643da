// Package store persists per-file extraction facts in SQLite, keyed by file
// path and content fingerprint. The cache is purely an optimization: a
// lookup either returns facts extracted from identical content, or misses
// and the caller re-extracts. Any store failure downgrades to a miss.
package store

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jward/pysubclasses/internal/pyfacts"
)

const schema = `
CREATE TABLE IF NOT EXISTS facts (
	path        TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	facts       BLOB NOT NULL
);
`

// Store is a fingerprint-keyed facts cache. A nil *Store is a valid disabled
// cache: every lookup misses and writes are dropped.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if needed) the cache database at path. WAL mode and
// a busy timeout let the extraction workers read and write distinct rows
// concurrently.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns the cached facts for path if the stored fingerprint matches.
// Missing rows, stale fingerprints, and undecodable payloads all report a
// miss; decode failures are logged since they indicate a damaged cache.
func (s *Store) Lookup(path, fingerprint string) (*pyfacts.FileFacts, bool) {
	if s == nil {
		return nil, false
	}

	var storedFP string
	var blob []byte
	err := s.db.QueryRow(`SELECT fingerprint, facts FROM facts WHERE path = ?`, path).
		Scan(&storedFP, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("cache read failed, treating as miss", "path", path, "error", err)
		return nil, false
	}
	if storedFP != fingerprint {
		return nil, false
	}

	facts, err := decodeFacts(blob)
	if err != nil {
		s.log.Warn("cache entry undecodable, treating as miss", "path", path, "error", err)
		return nil, false
	}
	return facts, true
}

// Put upserts the facts for path under the given fingerprint.
func (s *Store) Put(path, fingerprint string, facts *pyfacts.FileFacts) error {
	if s == nil {
		return nil
	}
	blob, err := encodeFacts(facts)
	if err != nil {
		return fmt.Errorf("encoding facts for %s: %w", path, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO facts (path, fingerprint, facts) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET fingerprint = excluded.fingerprint, facts = excluded.facts`,
		path, fingerprint, blob)
	if err != nil {
		return fmt.Errorf("writing cache entry for %s: %w", path, err)
	}
	return nil
}

func encodeFacts(facts *pyfacts.FileFacts) ([]byte, error) {
	raw, err := json.Marshal(facts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeFacts(blob []byte) (*pyfacts.FileFacts, error) {
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	var facts pyfacts.FileFacts
	if err := json.Unmarshal(raw, &facts); err != nil {
		return nil, err
	}
	return &facts, nil
}
