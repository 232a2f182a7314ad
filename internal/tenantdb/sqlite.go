package tenantdb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	// Registers the "sqlite3" driver.
	_ "github.com/mattn/go-sqlite3"
)

// SQLite DSN parameters applied to file databases.
const (
	defaultBusyTimeout = "5000" // 5 seconds
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"
)

// OpenSQLite opens a *sql.DB pool for the given SQLite path.
//
// A file database gets WAL journaling, busy_timeout=5000ms,
// synchronous=NORMAL and foreign_keys=on, with a single writer
// connection. ":memory:" is kept on one connection so every statement sees
// the same database.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// buildDSN constructs a SQLite DSN. In-memory databases take no file
// pragmas.
func buildDSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file::memory:") {
		return path
	}

	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_synchronous", defaultSynchronous)
	params.Set("_foreign_keys", "on")
	params.Set("_txlock", "immediate")

	return path + "?" + params.Encode()
}
