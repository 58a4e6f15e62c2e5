package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/google/uuid"
)

// ScanIDs runs a query returning a single id column and yields the ids in
// row order. The ids are read in full and the rows closed before the first
// yield, so the connection is back in the pool (or free again on a
// transaction) while the consumer issues its own queries per id.
func ScanIDs(ctx context.Context, db DBTX, query string, args ...any) iter.Seq2[uuid.UUID, error] {
	return func(yield func(uuid.UUID, error) bool) {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(uuid.Nil, err)
			return
		}
		ids, err := collectIDs(rows)
		_ = rows.Close()
		if err != nil {
			yield(uuid.Nil, err)
			return
		}
		for _, id := range ids {
			if !yield(id, nil) {
				return
			}
		}
	}
}

func collectIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return ids, nil
}
