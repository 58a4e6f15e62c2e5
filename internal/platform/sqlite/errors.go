package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/phrazzld/scry-dealer/internal/store"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// MapError translates SQLite errors into store sentinels.
// The original error stays wrapped for logging.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	switch constraintCode(err) {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY,
		sqlite3lib.SQLITE_CONSTRAINT_CHECK,
		sqlite3lib.SQLITE_CONSTRAINT_NOTNULL:
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	return err
}

// IsUniqueViolation reports whether err is a primary key or unique constraint failure.
func IsUniqueViolation(err error) bool {
	code := constraintCode(err)
	return code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
}

// IsForeignKeyViolation reports whether err is a foreign key constraint failure.
func IsForeignKeyViolation(err error) bool {
	return constraintCode(err) == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY
}

// mapReference reports a foreign key failure as notFound, the entity the
// write pointed at.
func mapReference(err error, notFound error) error {
	if IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %v", notFound, err)
	}
	return MapError(err)
}

// CheckRowsAffected returns notFound when an UPDATE or DELETE touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func constraintCode(err error) int {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}
	return 0
}
