// Package sqlite opens a modernc.org/sqlite backed store. It is the default
// driver for local development and tests; deployments point POSTGRES_DSN at
// a real database instead.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/brainpal/brainpal-backend/internal/store"
	"github.com/brainpal/brainpal-backend/internal/store/sqlstore"
)

// Open opens (or creates) the database at path, applies pragmas, ensures the
// schema and returns the store. Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string) (store.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// modernc sqlite serializes writers; a single connection avoids
	// SQLITE_BUSY under concurrent transactions and keeps :memory: shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := sqlstore.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sqlstore.New(db, sqlstore.DialectSQLite), nil
}
