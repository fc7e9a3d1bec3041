// Package sqlite persists agents, transactions and respects in a single
// SQLite file. Aggregate fields on agents are written by the caller; this
// package never computes XP, rank or class.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the storage directory.
const FileName = "nocturna.db"

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB wraps the SQLite connection.
type DB struct {
	db *sqlx.DB
}

// Open opens (or creates) <dir>/nocturna.db and applies migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create storage dir")
	}
	path := filepath.Join(dir, FileName)
	// Write transactions take the write lock at BEGIN so a read inside them
	// never has to upgrade, which WAL rejects with SQLITE_BUSY instead of
	// waiting out busy_timeout.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_txlock=immediate", path)

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "ping db")
	}

	db := &DB{db: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.db.Close()
}

// Migrations returns the schema statements, one statement per string.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id          TEXT PRIMARY KEY,
			codename    TEXT NOT NULL UNIQUE,
			rank        TEXT NOT NULL,
			total_xp    INTEGER NOT NULL DEFAULT 0,
			main_sector TEXT NOT NULL,
			agent_class TEXT NOT NULL,
			created_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agents_xp ON agents(total_xp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_agents_sector ON agents(main_sector)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id               TEXT PRIMARY KEY,
			agent_id         TEXT NOT NULL REFERENCES agents(id),
			transaction_date TEXT NOT NULL,
			sector           TEXT NOT NULL,
			vendor           TEXT NOT NULL DEFAULT '',
			cast_alias       TEXT NOT NULL DEFAULT '',
			investment       INTEGER NOT NULL DEFAULT 0,
			grade            TEXT NOT NULL,
			tags_json        TEXT NOT NULL DEFAULT '[]',
			private_note     TEXT NOT NULL DEFAULT '',
			is_public        INTEGER NOT NULL DEFAULT 0,
			xp_earned        INTEGER NOT NULL DEFAULT 0,
			respect_count    INTEGER NOT NULL DEFAULT 0,
			created_at       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_agent ON transactions(agent_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_date ON transactions(transaction_date)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_vendor ON transactions(vendor)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_public ON transactions(is_public, created_at)`,

		`CREATE TABLE IF NOT EXISTS respects (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			transaction_id TEXT NOT NULL REFERENCES transactions(id),
			from_agent_id  TEXT NOT NULL REFERENCES agents(id),
			created_at     TEXT NOT NULL,
			UNIQUE(transaction_id, from_agent_id)
		)`,
	}
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "apply migration")
		}
	}
	return nil
}

// withTx runs fn inside a database transaction, committing on success.
func (db *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
