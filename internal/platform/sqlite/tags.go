package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// tagTable describes a membership table keyed by (owner, tag). Names are
// fixed identifiers, never user input.
type tagTable struct {
	table    string
	ownerCol string
	parent   string
	notFound error
}

var (
	filterTags = tagTable{table: "filter_tags", ownerCol: "filter_id", parent: "filters", notFound: store.ErrFilterNotFound}
	studyTags  = tagTable{table: "study_tags", ownerCol: "study_id", parent: "studies", notFound: store.ErrStudyNotFound}
)

func (t tagTable) load(ctx context.Context, db store.DBTX, ownerID uuid.UUID) ([]domain.FilterTag, error) {
	query := fmt.Sprintf(`SELECT tag, exclude FROM %s WHERE %s = ? ORDER BY rowid`, t.table, t.ownerCol)
	rows, err := db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tags := []domain.FilterTag{}
	for rows.Next() {
		var tag domain.FilterTag
		if err := rows.Scan(&tag.Tag, &tag.Exclude); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (t tagTable) insert(ctx context.Context, db store.DBTX, ownerID uuid.UUID, tags []domain.FilterTag) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, tag, exclude) VALUES (?, ?, ?)`, t.table, t.ownerCol)
	for _, tag := range tags {
		if _, err := db.ExecContext(ctx, query, ownerID, tag.Tag, tag.Exclude); err != nil {
			return MapError(err)
		}
	}
	return nil
}

// touch bumps the owner's updated_at, returning t.notFound for a missing owner.
func (t tagTable) touch(ctx context.Context, q store.DBTX, ownerID uuid.UUID) error {
	result, err := q.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET updated_at = ? WHERE id = ?`, t.parent),
		time.Now().UTC(), ownerID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, t.notFound)
}

func (t tagTable) upsert(ctx context.Context, db store.DBTX, ownerID uuid.UUID, tag string, exclude bool) error {
	return store.WithinTransaction(ctx, db, func(ctx context.Context, q store.DBTX) error {
		if err := t.touch(ctx, q, ownerID); err != nil {
			return err
		}
		_, err := q.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %[1]s (%[2]s, tag, exclude) VALUES (?, ?, ?)
			ON CONFLICT (%[2]s, tag) DO UPDATE SET exclude = excluded.exclude
		`, t.table, t.ownerCol), ownerID, tag, exclude)
		return MapError(err)
	})
}

// setExclusion changes the role of an existing membership and reports
// whether one was present.
func (t tagTable) setExclusion(ctx context.Context, db store.DBTX, ownerID uuid.UUID, tag string, exclude bool) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET exclude = ? WHERE %s = ? AND tag = ?`, t.table, t.ownerCol)
	return t.modify(ctx, db, ownerID, query, exclude, ownerID, tag)
}

// remove deletes a membership and reports whether one was present.
func (t tagTable) remove(ctx context.Context, db store.DBTX, ownerID uuid.UUID, tag string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND tag = ?`, t.table, t.ownerCol)
	return t.modify(ctx, db, ownerID, query, ownerID, tag)
}

// modify runs a membership write and touches the owner when a row changed.
func (t tagTable) modify(ctx context.Context, db store.DBTX, ownerID uuid.UUID, query string, args ...any) (bool, error) {
	var changed bool
	err := store.WithinTransaction(ctx, db, func(ctx context.Context, q store.DBTX) error {
		var exists bool
		if err := q.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = ?)`, t.parent), ownerID,
		).Scan(&exists); err != nil {
			return MapError(err)
		}
		if !exists {
			return t.notFound
		}

		result, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return MapError(err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if changed = n > 0; changed {
			return t.touch(ctx, q, ownerID)
		}
		return nil
	})
	return changed, err
}
