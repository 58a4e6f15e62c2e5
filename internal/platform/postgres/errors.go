package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// SQLSTATE codes of the integrity constraint class (23xxx).
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// constraintKinds names each mapped integrity violation in error messages.
var constraintKinds = map[string]string{
	foreignKeyViolationCode: "foreign key",
	checkViolationCode:      "check constraint",
	notNullViolationCode:    "not null",
}

// pgCode returns the SQLSTATE of err, or "" when err is not a PgError.
func pgCode(err error) (string, *pgconn.PgError) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", nil
	}
	return pgErr.Code, pgErr
}

// MapError translates driver errors into store sentinels. sql.ErrNoRows
// becomes ErrNotFound, unique violations ErrDuplicate, and other integrity
// violations ErrInvalidEntity. The driver error stays in the chain.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	code, pgErr := pgCode(err)
	if code == uniqueViolationCode {
		return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	}
	if kind, ok := constraintKinds[code]; ok {
		subject := pgErr.ConstraintName
		if code == notNullViolationCode {
			subject = pgErr.ColumnName
		}
		return fmt.Errorf("%w: %s violation (%s): %w", store.ErrInvalidEntity, kind, subject, err)
	}
	return err
}

// IsUniqueViolation reports whether err carries SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	code, _ := pgCode(err)
	return code == uniqueViolationCode
}

// IsForeignKeyViolation reports whether err carries SQLSTATE 23503.
func IsForeignKeyViolation(err error) bool {
	code, _ := pgCode(err)
	return code == foreignKeyViolationCode
}

// IsCheckConstraintViolation reports whether err carries SQLSTATE 23514.
func IsCheckConstraintViolation(err error) bool {
	code, _ := pgCode(err)
	return code == checkViolationCode
}

// IsNotNullViolation reports whether err carries SQLSTATE 23502.
func IsNotNullViolation(err error) bool {
	code, _ := pgCode(err)
	return code == notNullViolationCode
}

// mapReference reports a dangling reference on insert as notFound, the
// sentinel of the referenced entity.
func mapReference(err error, notFound error) error {
	if IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %v", notFound, err)
	}
	return MapError(err)
}

// CheckRowsAffected returns notFound (ErrNotFound when nil) if an UPDATE or
// DELETE touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("nil result provided to CheckRowsAffected")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if notFound == nil {
		return store.ErrNotFound
	}
	return notFound
}
