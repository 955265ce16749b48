package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = dialect{
	name:          "sqlite",
	driver:        "sqlite3",
	serialPK:      "INTEGER PRIMARY KEY AUTOINCREMENT",
	timestampType: "DATETIME",
	isConflict: func(err error) bool {
		var se sqlite3.Error
		return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
	},
}

type sqliteFactory struct{}

func (sqliteFactory) Backend() string { return "sqlite" }

func (sqliteFactory) Open(ctx context.Context, cfg Config) (Repository, error) {
	return NewSQLite(ctx, cfg.DSN, cfg.Logger)
}

// NewSQLite opens (creating if needed) a SQLite database at path. The parent
// directory is created for file paths.
func NewSQLite(ctx context.Context, path string, logger *zap.Logger) (Repository, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open(sqliteDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time; also keeps :memory: on a single connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Debug("opened database",
		zap.String("op", "storage.NewSQLite"),
		zap.String("path", path))
	return &sqlStore{db: db, dialect: sqliteDialect, logger: logger}, nil
}
