// Package storage opens the local SQLite journal database and applies its
// embedded migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/migrations"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Options configures the database file and its per-connection pragmas.
type Options struct {
	Path        string
	BusyTimeout time.Duration
	// MaxPages caps the file size in pages (SQLite max_page_count).
	// Writes past the cap fail with common.ErrQuotaExceeded. Zero means no cap.
	MaxPages int
	// DisableWAL keeps the default rollback journal.
	DisableWAL bool
}

// DSN renders o as a modernc sqlite data source name. Pragmas are passed as
// _pragma parameters so they apply to every pooled connection.
func DSN(o Options) string {
	q := url.Values{}
	if o.BusyTimeout > 0 {
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", o.BusyTimeout.Milliseconds()))
	}
	if !o.DisableWAL {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	if o.MaxPages > 0 {
		q.Add("_pragma", fmt.Sprintf("max_page_count(%d)", o.MaxPages))
	}
	q.Add("_pragma", "foreign_keys(1)")

	return "file:" + o.Path + "?" + q.Encode()
}

// Open opens the database described by o and migrates it to the latest schema.
func Open(ctx context.Context, o Options) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(o))
	if err != nil {
		return nil, dbx.Classify("open database", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, dbx.Classify("open database", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// RunMigrations applies pending embedded migrations. It is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return dbx.Classify("migrate", err)
	}
	return nil
}
