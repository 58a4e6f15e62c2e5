package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orphanFilter removes a filter without cascading, leaving dangling associations behind.
func (db *DB) orphanFilter(id uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.filters, id)
}

type fixture struct {
	db      *DB
	cards   *CardStore
	filters *FilterStore
	dealers *DealerStore
	pack    domain.Pack
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := NewDB()
	fx := &fixture{
		db:      db,
		cards:   NewCardStore(db),
		filters: NewFilterStore(db),
		dealers: NewDealerStore(db),
		pack:    domain.Pack{ID: uuid.New(), Title: "Spanish"},
	}
	require.NoError(t, fx.cards.CreatePack(context.Background(), &fx.pack))
	return fx
}

func (fx *fixture) addCard(t *testing.T, packID uuid.UUID, tags ...string) uuid.UUID {
	t.Helper()

	card := &domain.Card{ID: uuid.New(), PackID: packID, Tags: tags}
	require.NoError(t, fx.cards.CreateCard(context.Background(), card))
	return card.ID
}

func (fx *fixture) addFilter(t *testing.T, label string) *domain.Filter {
	t.Helper()

	f, err := domain.NewFilter(fx.pack.ID, label)
	require.NoError(t, err)
	require.NoError(t, fx.filters.Create(context.Background(), f))
	return f
}

func collect(t *testing.T, seq func(func(uuid.UUID, error) bool)) []uuid.UUID {
	t.Helper()

	var ids []uuid.UUID
	for id, err := range seq {
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestNewStoresPanicOnNilDB(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewCardStore(nil) })
	assert.Panics(t, func() { NewFilterStore(nil) })
	assert.Panics(t, func() { NewDealerStore(nil) })
	assert.Panics(t, func() { NewStudyStore(nil) })
	assert.Panics(t, func() { NewQueryStore(nil) })
}

func TestCardStoreEnumeration(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	other := domain.Pack{ID: uuid.New(), Title: "French"}
	require.NoError(t, fx.cards.CreatePack(ctx, &other))

	c1 := fx.addCard(t, fx.pack.ID, "math")
	c2 := fx.addCard(t, fx.pack.ID, "math", "hard")
	c3 := fx.addCard(t, other.ID)

	assert.ElementsMatch(t, []uuid.UUID{c1, c2}, collect(t, fx.cards.ShuffledCardIDs(ctx, &fx.pack.ID)))
	assert.ElementsMatch(t, []uuid.UUID{c1, c2, c3}, collect(t, fx.cards.ShuffledCardIDs(ctx, nil)))

	tags, err := fx.cards.CardTags(ctx, c2)
	require.NoError(t, err)
	assert.Equal(t, []string{"math", "hard"}, tags)

	_, err = fx.cards.CardTags(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestCardStoreEnumerationStopsEarly(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	for i := 0; i < 10; i++ {
		fx.addCard(t, fx.pack.ID)
	}

	n := 0
	for range fx.cards.ShuffledCardIDs(context.Background(), &fx.pack.ID) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestCardStoreWrites(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, fx.cards.CreatePack(ctx, &fx.pack), store.ErrDuplicate)
	assert.ErrorIs(t, fx.cards.CreateCard(ctx, &domain.Card{ID: uuid.New(), PackID: uuid.New()}), store.ErrPackNotFound)

	id := fx.addCard(t, fx.pack.ID, "a", "a", "b")
	tags, err := fx.cards.CardTags(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)

	require.NoError(t, fx.cards.SetCardTags(ctx, id, []string{"c"}))
	tags, err = fx.cards.CardTags(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, tags)

	assert.ErrorIs(t, fx.cards.SetCardTags(ctx, uuid.New(), nil), store.ErrCardNotFound)

	exists, err := fx.cards.PackExists(ctx, fx.pack.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	pack, err := fx.cards.GetPack(ctx, fx.pack.ID)
	require.NoError(t, err)
	assert.Equal(t, fx.pack, *pack)

	_, err = fx.cards.GetPack(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrPackNotFound)
}

// The memory card store drives the real selection engine.
func TestCardStoreAsSelectionSource(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	c1 := fx.addCard(t, fx.pack.ID, "math")
	fx.addCard(t, fx.pack.ID, "math", "hard")
	c3 := fx.addCard(t, fx.pack.ID)

	engine := selection.NewEngine(fx.cards, nil)
	ids, err := engine.SelectMany(context.Background(), &fx.pack.ID,
		selection.TagCriterion{Excluded: []string{"hard"}}, selection.NoLimit)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{c1, c3}, ids)
}

func TestFilterStoreTags(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	f := fx.addFilter(t, "verbs")

	require.NoError(t, fx.filters.UpsertTag(ctx, f.ID, "x", false))
	require.NoError(t, fx.filters.UpsertTag(ctx, f.ID, "x", false))

	got, err := fx.filters.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.FilterTag{{Tag: "x"}}, got.Tags)

	changed, err := fx.filters.SetTagExclusion(ctx, f.ID, "x", true)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = fx.filters.SetTagExclusion(ctx, f.ID, "absent", true)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err = fx.filters.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.FilterTag{{Tag: "x", Exclude: true}}, got.Tags)

	removed, err := fx.filters.RemoveTag(ctx, f.ID, "x")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = fx.filters.RemoveTag(ctx, f.ID, "x")
	require.NoError(t, err)
	assert.False(t, removed)

	missing := uuid.New()
	assert.ErrorIs(t, fx.filters.UpsertTag(ctx, missing, "x", false), store.ErrFilterNotFound)
	_, err = fx.filters.SetTagExclusion(ctx, missing, "x", true)
	assert.ErrorIs(t, err, store.ErrFilterNotFound)
	_, err = fx.filters.RemoveTag(ctx, missing, "x")
	assert.ErrorIs(t, err, store.ErrFilterNotFound)
}

func TestFilterStoreReturnsCopies(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	f := fx.addFilter(t, "verbs")
	require.NoError(t, fx.filters.UpsertTag(ctx, f.ID, "x", false))

	got, err := fx.filters.GetByID(ctx, f.ID)
	require.NoError(t, err)
	got.Tags[0].Exclude = true

	again, err := fx.filters.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.False(t, again.Tags[0].Exclude)
}

func TestFilterStoreListOrdering(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	alpha := domain.Pack{ID: uuid.New(), Title: "Arabic"}
	require.NoError(t, fx.cards.CreatePack(ctx, &alpha))

	fx.addFilter(t, "nouns")
	fx.addFilter(t, "adjectives")
	first, err := domain.NewFilter(alpha.ID, "script")
	require.NoError(t, err)
	require.NoError(t, fx.filters.Create(ctx, first))

	list, err := fx.filters.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Arabic", list[0].PackTitle)
	assert.Equal(t, "adjectives", list[1].Label)
	assert.Equal(t, "nouns", list[2].Label)
	assert.Equal(t, "Spanish", list[2].PackTitle)

	bad, err := domain.NewFilter(uuid.New(), "orphan")
	require.NoError(t, err)
	assert.ErrorIs(t, fx.filters.Create(ctx, bad), store.ErrPackNotFound)
}

func TestDealerStoreAssociations(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	f1 := fx.addFilter(t, "one")
	f2 := fx.addFilter(t, "two")

	d, err := domain.NewDealer("mix")
	require.NoError(t, err)
	require.NoError(t, fx.dealers.Create(ctx, d))

	require.NoError(t, fx.dealers.AddFilter(ctx, d.ID, f1.ID, 3))
	require.NoError(t, fx.dealers.AddFilter(ctx, d.ID, f2.ID, 1))
	require.NoError(t, fx.dealers.AddFilter(ctx, d.ID, f2.ID, 2))

	filters, err := fx.dealers.ListFilters(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.DealerFilter{
		{FilterID: f1.ID, Label: "one", PackID: fx.pack.ID, PackTitle: "Spanish", Weight: 3},
		{FilterID: f2.ID, Label: "two", PackID: fx.pack.ID, PackTitle: "Spanish", Weight: 2},
	}, filters)

	require.NoError(t, fx.dealers.SetWeight(ctx, d.ID, f1.ID, 5))
	assert.ErrorIs(t, fx.dealers.SetWeight(ctx, d.ID, uuid.New(), 5), store.ErrDealerFilterNotFound)
	assert.ErrorIs(t, fx.dealers.SetWeight(ctx, d.ID, f1.ID, 0), store.ErrInvalidEntity)

	require.NoError(t, fx.dealers.RemoveFilter(ctx, d.ID, f2.ID))
	require.NoError(t, fx.dealers.RemoveFilter(ctx, d.ID, f2.ID), "removing twice is a no-op")

	got, err := fx.dealers.GetByID(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, got.Filters, 1)
	assert.Equal(t, 5, got.Filters[0].Weight)

	missing := uuid.New()
	assert.ErrorIs(t, fx.dealers.AddFilter(ctx, missing, f1.ID, 1), store.ErrDealerNotFound)
	assert.ErrorIs(t, fx.dealers.AddFilter(ctx, d.ID, missing, 1), store.ErrFilterNotFound)
	assert.ErrorIs(t, fx.dealers.RemoveFilter(ctx, missing, f1.ID), store.ErrDealerNotFound)
	_, err = fx.dealers.ListFilters(ctx, missing)
	assert.ErrorIs(t, err, store.ErrDealerNotFound)
}

func TestDealerStoreDanglingFilters(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	kept := fx.addFilter(t, "kept")
	cascaded := fx.addFilter(t, "cascaded")
	orphaned := fx.addFilter(t, "orphaned")

	d, err := domain.NewDealer("mix")
	require.NoError(t, err)
	require.NoError(t, fx.dealers.Create(ctx, d))
	for _, f := range []*domain.Filter{kept, cascaded, orphaned} {
		require.NoError(t, fx.dealers.AddFilter(ctx, d.ID, f.ID, 1))
	}

	require.NoError(t, fx.filters.Delete(ctx, cascaded.ID))
	fx.db.orphanFilter(orphaned.ID)

	filters, err := fx.dealers.ListFilters(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, kept.ID, filters[0].FilterID)
}

func TestDealerStoreLifecycle(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()

	b, err := domain.NewDealer("beta")
	require.NoError(t, err)
	a, err := domain.NewDealer("alpha")
	require.NoError(t, err)
	require.NoError(t, fx.dealers.Create(ctx, b))
	require.NoError(t, fx.dealers.Create(ctx, a))
	assert.ErrorIs(t, fx.dealers.Create(ctx, a), store.ErrDuplicate)

	list, err := fx.dealers.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Title)

	require.NoError(t, fx.dealers.Rename(ctx, b.ID, "aardvark"))
	list, err = fx.dealers.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "aardvark", list[0].Title)

	require.NoError(t, fx.dealers.Delete(ctx, a.ID))
	assert.ErrorIs(t, fx.dealers.Delete(ctx, a.ID), store.ErrDealerNotFound)
	_, err = fx.dealers.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrDealerNotFound)
	assert.ErrorIs(t, fx.dealers.Rename(ctx, a.ID, "x"), store.ErrDealerNotFound)
}

func TestStudyStore(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	studies := NewStudyStore(fx.db)

	s, err := domain.NewStudy("week one", &fx.pack.ID, 10)
	require.NoError(t, err)
	require.NoError(t, studies.Create(ctx, s))

	require.NoError(t, studies.UpsertTag(ctx, s.ID, "verbs", false))
	require.NoError(t, studies.UpsertTag(ctx, s.ID, "irregular", true))
	require.NoError(t, studies.SetLimit(ctx, s.ID, 3))
	require.NoError(t, studies.SetPack(ctx, s.ID, nil))
	require.NoError(t, studies.Rename(ctx, s.ID, "Week One"))

	got, err := studies.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Week One", got.Title)
	assert.Nil(t, got.PackID)
	assert.Equal(t, 3, got.Limit)
	assert.Equal(t, []domain.FilterTag{{Tag: "verbs"}, {Tag: "irregular", Exclude: true}}, got.Tags)

	removed, err := studies.RemoveTag(ctx, s.ID, "verbs")
	require.NoError(t, err)
	assert.True(t, removed)

	assert.ErrorIs(t, studies.SetPack(ctx, s.ID, &uuid.UUID{1}), store.ErrPackNotFound)

	list, err := studies.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Tags)

	require.NoError(t, studies.Delete(ctx, s.ID))
	_, err = studies.GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, store.ErrStudyNotFound)
	assert.ErrorIs(t, studies.Rename(ctx, s.ID, "x"), store.ErrStudyNotFound)
}

func TestQueryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	queries := NewQueryStore(NewDB())

	q, err := domain.NewSavedQuery("mix", selection.NewVersioned(selection.Root{Criterion: selection.TagCriterion{Included: []string{"a"}}}))
	require.NoError(t, err)
	require.NoError(t, queries.Create(ctx, q))
	assert.ErrorIs(t, queries.Create(ctx, q), store.ErrDuplicate)

	got, err := queries.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Query, got.Query)

	list, err := queries.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, queries.Delete(ctx, q.ID))
	assert.ErrorIs(t, queries.Delete(ctx, q.ID), store.ErrQueryNotFound)
}
