package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// tagTable describes a membership table keyed by (owner, tag), such as
// filter_tags or study_tags. Names are fixed identifiers, never user input.
type tagTable struct {
	table    string // e.g. filter_tags
	ownerCol string // e.g. filter_id
	parent   string // e.g. filters
	notFound error
}

var (
	filterTags = tagTable{table: "filter_tags", ownerCol: "filter_id", parent: "filters", notFound: store.ErrFilterNotFound}
	studyTags  = tagTable{table: "study_tags", ownerCol: "study_id", parent: "studies", notFound: store.ErrStudyNotFound}
)

// load returns the memberships of an owner in insertion order.
func (t tagTable) load(ctx context.Context, db store.DBTX, ownerID uuid.UUID) ([]domain.FilterTag, error) {
	query := fmt.Sprintf(`SELECT tag, exclude FROM %s WHERE %s = $1 ORDER BY seq`, t.table, t.ownerCol)
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

// insert writes memberships for a freshly created owner.
func (t tagTable) insert(ctx context.Context, db store.DBTX, ownerID uuid.UUID, tags []domain.FilterTag) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, tag, exclude) VALUES ($1, $2, $3)`, t.table, t.ownerCol)
	for _, tag := range tags {
		if _, err := db.ExecContext(ctx, query, ownerID, tag.Tag, tag.Exclude); err != nil {
			return MapError(err)
		}
	}
	return nil
}

// upsert adds a membership or updates its role, touching the owner's
// updated_at in the same statement. A missing owner yields t.notFound.
func (t tagTable) upsert(ctx context.Context, db store.DBTX, ownerID uuid.UUID, tag string, exclude bool) error {
	query := fmt.Sprintf(`
		WITH owner AS (
			UPDATE %[1]s SET updated_at = $4 WHERE id = $1 RETURNING id
		)
		INSERT INTO %[2]s (%[3]s, tag, exclude)
		SELECT id, $2, $3 FROM owner
		ON CONFLICT (%[3]s, tag) DO UPDATE SET exclude = EXCLUDED.exclude
	`, t.parent, t.table, t.ownerCol)

	result, err := db.ExecContext(ctx, query, ownerID, tag, exclude, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, t.notFound)
}

// setExclusion changes the role of an existing membership. It reports whether
// the membership existed; a missing owner yields t.notFound.
func (t tagTable) setExclusion(ctx context.Context, db store.DBTX, ownerID uuid.UUID, tag string, exclude bool) (bool, error) {
	query := fmt.Sprintf(`
		WITH changed AS (
			UPDATE %[2]s SET exclude = $3 WHERE %[3]s = $1 AND tag = $2 RETURNING 1
		), touched AS (
			UPDATE %[1]s SET updated_at = $4 WHERE id = $1 AND EXISTS (SELECT 1 FROM changed)
		)
		SELECT EXISTS (SELECT 1 FROM %[1]s WHERE id = $1), EXISTS (SELECT 1 FROM changed)
	`, t.parent, t.table, t.ownerCol)

	return t.modify(ctx, db, query, ownerID, tag, exclude, time.Now().UTC())
}

// remove deletes a membership and reports whether it existed.
func (t tagTable) remove(ctx context.Context, db store.DBTX, ownerID uuid.UUID, tag string) (bool, error) {
	query := fmt.Sprintf(`
		WITH removed AS (
			DELETE FROM %[2]s WHERE %[3]s = $1 AND tag = $2 RETURNING 1
		), touched AS (
			UPDATE %[1]s SET updated_at = $3 WHERE id = $1 AND EXISTS (SELECT 1 FROM removed)
		)
		SELECT EXISTS (SELECT 1 FROM %[1]s WHERE id = $1), EXISTS (SELECT 1 FROM removed)
	`, t.parent, t.table, t.ownerCol)

	return t.modify(ctx, db, query, ownerID, tag, time.Now().UTC())
}

func (t tagTable) modify(ctx context.Context, db store.DBTX, query string, args ...any) (bool, error) {
	var found, changed bool
	if err := db.QueryRowContext(ctx, query, args...).Scan(&found, &changed); err != nil {
		return false, MapError(err)
	}
	if !found {
		return false, t.notFound
	}
	return changed, nil
}
