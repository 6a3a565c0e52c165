// Package store persists the SN to PN resolution cache and the search
// history in a local SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store provides persistence for resolved product codes and past searches.
type Store interface {
	// LookupPN returns the cached product code for sn if it was resolved
	// within maxAge. A zero maxAge accepts any age.
	LookupPN(sn string, maxAge time.Duration) (string, bool, error)
	// SavePN records a resolved product code.
	SavePN(sn, pn string) error
	// RecordSearch appends a search to the history.
	RecordSearch(sn, pn string, results int) error
	// RecentSearches returns up to limit searches, newest first.
	RecentSearches(limit int) ([]Search, error)
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens a SQLite database at the given path and initializes the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=2000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps :memory: databases shared across calls.
	db.SetMaxOpenConns(1)
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) LookupPN(sn string, maxAge time.Duration) (string, bool, error) {
	var (
		pn         string
		resolvedAt time.Time
	)
	err := s.db.QueryRow("SELECT pn, resolved_at FROM pn_cache WHERE sn = ?", sn).Scan(&pn, &resolvedAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if maxAge > 0 && s.now().Sub(resolvedAt) > maxAge {
		return "", false, nil
	}
	return pn, true, nil
}

func (s *SQLiteStore) SavePN(sn, pn string) error {
	_, err := s.db.Exec(
		"INSERT INTO pn_cache (sn, pn, resolved_at) VALUES (?, ?, ?) ON CONFLICT(sn) DO UPDATE SET pn = excluded.pn, resolved_at = excluded.resolved_at",
		sn, pn, s.now().UTC(),
	)
	return err
}

func (s *SQLiteStore) RecordSearch(sn, pn string, results int) error {
	_, err := s.db.Exec(
		"INSERT INTO history (sn, pn, results, searched_at) VALUES (?, ?, ?, ?)",
		sn, pn, results, s.now().UTC(),
	)
	return err
}

func (s *SQLiteStore) RecentSearches(limit int) ([]Search, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		"SELECT id, sn, pn, results, searched_at FROM history ORDER BY searched_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Search
	for rows.Next() {
		var h Search
		if err := rows.Scan(&h.ID, &h.SN, &h.PN, &h.Results, &h.SearchedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
