package sqlite

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // modernc-backed sqlite driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// slogMigrateLogger adapts the migrate.Logger interface to slog.
type slogMigrateLogger struct {
	logger *slog.Logger
}

// Printf forwards migration progress to slog.Info.
func (l *slogMigrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Verbose reports whether debug output is wanted.
func (l *slogMigrateLogger) Verbose() bool {
	return false
}

// MigrationManager handles schema migrations for a SQLite database file.
type MigrationManager struct {
	migrate *migrate.Migrate
	logger  *slog.Logger
}

// NewMigrationManager creates a migration manager for the database at dbPath.
func NewMigrationManager(dbPath string, logger *slog.Logger) (*MigrationManager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "migrations"))

	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations directory: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsDir, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	// Windows paths need forward slashes and a leading slash to form a URL.
	normalizedPath := filepath.ToSlash(filepath.Clean(dbPath))
	if filepath.IsAbs(dbPath) && normalizedPath[0] != '/' {
		normalizedPath = "/" + normalizedPath
	}
	databaseURL := fmt.Sprintf("sqlite://%s?_pragma=busy_timeout(5000)", normalizedPath)

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	m.Log = &slogMigrateLogger{logger: logger}

	return &MigrationManager{migrate: m, logger: logger}, nil
}

// Up applies all pending migrations.
func (mm *MigrationManager) Up() error {
	err := mm.migrate.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func (mm *MigrationManager) Down() error {
	return mm.Steps(-1)
}

// Reset rolls back every migration.
func (mm *MigrationManager) Reset() error {
	err := mm.migrate.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// Steps applies n migrations. Positive n applies up migrations, negative applies down.
func (mm *MigrationManager) Steps(n int) error {
	err := mm.migrate.Steps(n)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate %d steps: %w", n, err)
	}
	return nil
}

// Version returns the current migration version and dirty state.
// A database with no migrations applied reports version 0.
func (mm *MigrationManager) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mm.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Goto migrates to a specific version.
func (mm *MigrationManager) Goto(version uint) error {
	err := mm.migrate.Migrate(version)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate to version %d: %w", version, err)
	}
	return nil
}

// Force sets the migration version without running migrations.
// It is meant for recovering a database left dirty by a failed migration.
func (mm *MigrationManager) Force(version int) error {
	if err := mm.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Run executes a named command: up, down, reset, or version.
func (mm *MigrationManager) Run(command string) error {
	var err error
	switch command {
	case "up":
		err = mm.Up()
	case "down":
		err = mm.Down()
	case "reset":
		err = mm.Reset()
	case "status", "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = mm.Version()
		if err == nil {
			mm.logger.Info("migration status",
				slog.Uint64("version", uint64(version)),
				slog.Bool("dirty", dirty))
		}
	default:
		return fmt.Errorf(
			"unknown migration command: %s (expected up, down, reset, status, or version)",
			command,
		)
	}
	if err != nil {
		mm.logger.Error("migration failed",
			slog.String("command", command),
			slog.String("error", err.Error()))
		return err
	}
	mm.logger.Info("migration completed", slog.String("command", command))
	return nil
}

// Close closes the migration manager and releases resources.
func (mm *MigrationManager) Close() error {
	srcErr, dbErr := mm.migrate.Close()
	if srcErr != nil {
		return fmt.Errorf("failed to close source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}

// Migrate opens a migration manager for dbPath, runs command, and closes it.
func Migrate(dbPath, command string, logger *slog.Logger) error {
	mm, err := NewMigrationManager(dbPath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = mm.Close() }()
	return mm.Run(command)
}
