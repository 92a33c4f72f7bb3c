// Package postgres opens a pgx-backed store over database/sql.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/brainpal/brainpal-backend/internal/store"
	"github.com/brainpal/brainpal-backend/internal/store/sqlstore"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver, verifies
// connectivity, ensures the schema and returns the store.
func Open(ctx context.Context, dsn string) (store.Store, error) {
	db, err := OpenDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := sqlstore.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// OpenDB opens and pings the raw database handle.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs the store over an existing handle. Schema creation is
// the caller's responsibility.
func NewWithDB(db *sql.DB) store.Store {
	return sqlstore.New(db, sqlstore.DialectPostgres)
}
