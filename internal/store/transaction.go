package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-dealer/internal/platform/logger"
)

// TxFn runs inside a transaction. Returning nil commits; an error rolls back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction begins a transaction on db, runs fn and commits or rolls
// back depending on its result. A panic in fn rolls back and is re-raised.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) (err error) {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("%w: begin: %w", ErrTransactionFailed, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		p := recover()
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback failed",
				slog.String("rollback_error", rbErr.Error()),
				slog.Any("panic", p))
			if p == nil && err != nil {
				err = fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
			}
		}
		if p != nil {
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		log.Debug("transaction rolled back", slog.String("error", err.Error()))
		return err
	}

	if err = tx.Commit(); err != nil {
		committed = true
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("%w: commit: %w", ErrTransactionFailed, err)
	}
	committed = true
	return nil
}

// WithinTransaction runs fn atomically on db. A *sql.DB gets its own
// transaction; a *sql.Tx or any other DBTX is passed through so the caller
// keeps ownership of the enclosing transaction.
func WithinTransaction(ctx context.Context, db DBTX, fn func(ctx context.Context, q DBTX) error) error {
	sqlDB, ok := db.(*sql.DB)
	if !ok {
		return fn(ctx, db)
	}
	return RunInTransaction(ctx, sqlDB, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, tx)
	})
}
