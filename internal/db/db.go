package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Options control how the journal database is opened.
type Options struct {
	Path   string
	LogSQL bool
	Logger *slog.Logger
}

// Open opens the SQLite journal. The control loop is the only writer, so the
// pool is held to a single connection; this also keeps ":memory:" databases
// coherent across calls.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	dsn, err := buildDSN(opts.Path)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if opts.LogSQL {
		connector, err := NewLoggingConnector(dsn, opts.Logger)
		if err != nil {
			return nil, err
		}
		db = sql.OpenDB(connector)
	} else {
		if db, err = sql.Open("sqlite3", dsn); err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func buildDSN(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("sqlite path required")
	}
	if path == ":memory:" {
		return "file::memory:?_foreign_keys=on", nil
	}

	params := "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	if rest, ok := strings.CutPrefix(path, "file:"); ok {
		sep := "?"
		if strings.Contains(rest, "?") {
			sep = "&"
		}
		return path + sep + params, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return "file:" + path + "?" + params, nil
}
