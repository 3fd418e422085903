// Package store persists the client's offline state in sqlite: the bounded
// draft queue and a small preferences table. The schema is applied by
// embedded goose migrations on open.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"actilog/internal/client/store/migrations"
)

// Store wraps the client database. Safe for use from the REPL and the
// watcher goroutine; sqlite serializes writers.
type Store struct {
	db    *sql.DB
	limit int
}

// Open opens (creating if needed) the client database at path and applies
// pending migrations. limit bounds the offline queue.
func Open(ctx context.Context, path string, limit int) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open client database: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate client database: %w", err)
	}

	return &Store{db: db, limit: limit}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
