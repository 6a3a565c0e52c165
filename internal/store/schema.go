package store

import "database/sql"

const ddl = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS pn_cache (
    sn          TEXT PRIMARY KEY,
    pn          TEXT NOT NULL,
    resolved_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    sn          TEXT NOT NULL,
    pn          TEXT NOT NULL,
    results     INTEGER NOT NULL DEFAULT 0,
    searched_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_searched_at ON history(searched_at);
`

// Init creates the schema tables if they don't exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}
