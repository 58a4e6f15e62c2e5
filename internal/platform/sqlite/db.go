package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phrazzld/scry-dealer/internal/config"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// pragmas apply to every pooled connection.
const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// DSN builds the driver connection string for a database file.
func DSN(path string) string {
	return filepath.Clean(path) + "?" + pragmas
}

// Open opens (creating if needed) the SQLite database at cfg.Path and sizes
// the pool from cfg. Schema migrations are applied separately through
// MigrationManager.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite database path is required")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", DSN(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	logger.Info("database connection established",
		slog.String("driver", config.DriverSQLite),
		slog.String("path", cfg.Path),
		slog.Int("max_open_conns", cfg.MaxOpenConns))
	return db, nil
}
