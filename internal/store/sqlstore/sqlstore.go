// Package sqlstore implements store.Store on database/sql. Both drivers
// (modernc sqlite and pgx stdlib) share this implementation; the only
// dialect difference is placeholder syntax, handled by rebinding.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/brainpal/brainpal-backend/internal/store"
)

// Dialect selects placeholder rebinding for the underlying driver.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// New constructs a Store backed by db. The caller owns schema creation
// (see EnsureSchema) and connection configuration.
func New(db *sql.DB, dialect Dialect) store.Store {
	return &sqlStore{db: db, dialect: dialect}
}

type sqlStore struct {
	db      *sql.DB
	dialect Dialect
}

func (s *sqlStore) Users() store.Users         { return &users{s} }
func (s *sqlStore) Credits() store.Credits     { return &credits{s} }
func (s *sqlStore) Analyses() store.Analyses   { return &analyses{s} }
func (s *sqlStore) Tasks() store.Tasks         { return &tasks{s} }
func (s *sqlStore) Reminders() store.Reminders { return &reminders{s} }
func (s *sqlStore) Prompts() store.Prompts     { return &prompts{s} }
func (s *sqlStore) Close() error               { return s.db.Close() }

// HealthPing reports database connectivity.
func (s *sqlStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the underlying handle for health probes.
func (s *sqlStore) DB() interface{} { return s.db }

// q rebinds '?' placeholders to '$n' for Postgres. Queries are written with
// '?' throughout; string literals in queries must not contain '?'.
func (s *sqlStore) q(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *sqlStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// EnsureSchema creates all tables if they do not exist. The DDL sticks to
// types both SQLite and Postgres accept; timestamps are RFC 3339 TEXT and
// booleans are INTEGER 0/1 so one scan path serves both drivers.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id          TEXT PRIMARY KEY,
			email            TEXT NOT NULL DEFAULT '',
			display_name     TEXT,
			completed_tasks  INTEGER NOT NULL DEFAULT 0,
			subscription     TEXT NOT NULL DEFAULT '{}',
			sub_balance      INTEGER NOT NULL DEFAULT 0,
			purchased_balance INTEGER NOT NULL DEFAULT 0,
			tokens_used      TEXT NOT NULL DEFAULT '{}',
			api_keys         TEXT NOT NULL DEFAULT '{}',
			settings         TEXT NOT NULL DEFAULT '{}',
			emotional_status TEXT NOT NULL DEFAULT '{}',
			version          BIGINT NOT NULL DEFAULT 1,
			creation_time    TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			user_id         TEXT NOT NULL,
			analysis_id     TEXT NOT NULL,
			transcript      TEXT NOT NULL,
			emotional_state INTEGER NOT NULL,
			energy_level    INTEGER NOT NULL,
			brain_clarity   INTEGER NOT NULL,
			summary         TEXT NOT NULL DEFAULT '',
			title           TEXT NOT NULL DEFAULT '',
			completed       INTEGER NOT NULL DEFAULT 0,
			creation_time   TEXT NOT NULL,
			PRIMARY KEY (user_id, analysis_id)
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			user_id         TEXT NOT NULL,
			analysis_id     TEXT NOT NULL,
			task_id         TEXT NOT NULL,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			priority        TEXT NOT NULL,
			status          TEXT NOT NULL,
			position        INTEGER NOT NULL DEFAULT 0,
			due_date        TEXT,
			scheduled_date  TEXT,
			scheduled_time  TEXT,
			postponed_until TEXT,
			subtasks        TEXT NOT NULL DEFAULT '[]',
			creation_time   TEXT NOT NULL,
			PRIMARY KEY (user_id, analysis_id, task_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			user_id     TEXT NOT NULL,
			seq         BIGINT NOT NULL,
			entry_type  TEXT NOT NULL,
			amount      INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			entry_time  TEXT NOT NULL,
			PRIMARY KEY (user_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			user_email     TEXT NOT NULL DEFAULT '',
			txn_type       TEXT NOT NULL,
			plan           TEXT NOT NULL DEFAULT '',
			package_size   TEXT NOT NULL DEFAULT '',
			payment_method TEXT NOT NULL DEFAULT '',
			amount         DOUBLE PRECISION NOT NULL DEFAULT 0,
			credits_added  INTEGER NOT NULL DEFAULT 0,
			description    TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL DEFAULT '',
			creation_time  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			user_id       TEXT NOT NULL,
			reminder_id   TEXT NOT NULL,
			name          TEXT NOT NULL,
			reminder_count INTEGER NOT NULL,
			start_time    TEXT NOT NULL,
			end_time      TEXT NOT NULL,
			timeframe     TEXT NOT NULL DEFAULT '[]',
			active        INTEGER NOT NULL DEFAULT 0,
			creation_time TEXT NOT NULL,
			PRIMARY KEY (user_id, reminder_id)
		)`,
		`CREATE TABLE IF NOT EXISTS prompts (
			name             TEXT PRIMARY KEY,
			content          TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			active           INTEGER NOT NULL DEFAULT 1,
			last_modified_by TEXT NOT NULL DEFAULT '',
			update_time      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_status ON tasks (user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions (user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
