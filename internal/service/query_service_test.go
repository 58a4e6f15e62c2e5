package service

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newQueryService(t *testing.T, fx *fixture, opts QueryServiceOptions) QueryService {
	t.Helper()

	svc, err := NewQueryService(fx.queries, fx.cards, fx.engine, opts, nil)
	require.NoError(t, err)
	return svc
}

func TestNewQueryServiceRejectsNilDependencies(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	_, err := NewQueryService(nil, fx.cards, fx.engine, QueryServiceOptions{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewQueryService(fx.queries, nil, fx.engine, QueryServiceOptions{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewQueryService(fx.queries, fx.cards, nil, QueryServiceOptions{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestQueryCards(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	svc := newQueryService(t, fx, QueryServiceOptions{})
	ctx := context.Background()
	limit := func(n int) *int { return &n }

	tests := []struct {
		name  string
		query CardQuery
		want  []uuid.UUID
	}{
		{"included", CardQuery{PackID: &fx.pack.ID, Included: []string{"math"}}, []uuid.UUID{fx.c1, fx.c2}},
		{"excluded", CardQuery{PackID: &fx.pack.ID, Excluded: []string{"hard"}}, []uuid.UUID{fx.c1, fx.c3}},
		{"every pack", CardQuery{Included: []string{"hard"}}, []uuid.UUID{fx.c2}},
		{"no tags", CardQuery{PackID: &fx.pack.ID}, []uuid.UUID{fx.c1, fx.c2, fx.c3}},
		{"overlap", CardQuery{Included: []string{"math"}, Excluded: []string{"math"}}, nil},
		{"duplicate tags", CardQuery{Included: []string{"math", "math"}}, []uuid.UUID{fx.c1, fx.c2}},
		{"limit zero", CardQuery{Limit: limit(0)}, nil},
		{"limit above matches", CardQuery{Included: []string{"math"}, Limit: limit(10)}, []uuid.UUID{fx.c1, fx.c2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ids, err := svc.QueryCards(ctx, tc.query)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, ids)
		})
	}

	t.Run("limit caps the result", func(t *testing.T) {
		ids, err := svc.QueryCards(ctx, CardQuery{Limit: limit(2)})
		require.NoError(t, err)
		assert.Len(t, ids, 2)
		assert.Subset(t, []uuid.UUID{fx.c1, fx.c2, fx.c3}, ids)
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := svc.QueryCards(ctx, CardQuery{Limit: limit(-1)})
		assert.ErrorIs(t, err, domain.ErrInvalidLimit)
	})

	t.Run("blank tag", func(t *testing.T) {
		_, err := svc.QueryCards(ctx, CardQuery{Excluded: []string{""}})
		assert.ErrorIs(t, err, domain.ErrEmptyTag)
	})

	t.Run("unknown pack", func(t *testing.T) {
		missing := uuid.New()
		_, err := svc.QueryCards(ctx, CardQuery{PackID: &missing})
		assert.ErrorIs(t, err, store.ErrPackNotFound)
	})
}

func TestQueryCardsPassesNormalizedCriterion(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	sel := new(MockSelector)
	want := selection.TagCriterion{Included: []string{"a", "b"}, Excluded: []string{"c"}}
	sel.On("SelectMany", mock.Anything, (*uuid.UUID)(nil), want, selection.NoLimit).Return([]uuid.UUID{fx.c1}, nil)

	svc, err := NewQueryService(fx.queries, fx.cards, sel, QueryServiceOptions{}, nil)
	require.NoError(t, err)

	ids, err := svc.QueryCards(context.Background(), CardQuery{
		Included: []string{"a", "b", "a"},
		Excluded: []string{"c"},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{fx.c1}, ids)
	sel.AssertExpectations(t)
}

func TestSavedQueries(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	svc := newQueryService(t, fx, QueryServiceOptions{Rand: rand.New(rand.NewPCG(1, 2))})
	ctx := context.Background()

	tree := selection.NewVersioned(selection.Branch{Children: []selection.Weighted[selection.Node]{
		{Item: selection.Root{PackID: &fx.pack.ID, Criterion: selection.TagCriterion{Included: []string{"hard"}}}, Weight: 1},
	}})

	id, err := svc.SaveQuery(ctx, "hard cards", tree)
	require.NoError(t, err)

	saved, err := svc.GetQuery(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hard cards", saved.Title)
	assert.Equal(t, tree, saved.Query)

	list, err := svc.ListQueries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	cardID, ok, err := svc.DrawQuery(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fx.c2, cardID)

	require.NoError(t, svc.DeleteQuery(ctx, id))
	_, _, err = svc.DrawQuery(ctx, id)
	assert.ErrorIs(t, err, store.ErrQueryNotFound)
	assert.ErrorIs(t, svc.DeleteQuery(ctx, id), store.ErrQueryNotFound)
}

func TestSaveQueryStoresCurrentVersion(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	svc := newQueryService(t, fx, QueryServiceOptions{})
	ctx := context.Background()

	root := selection.Root{PackID: &fx.pack.ID, Criterion: selection.TagCriterion{Included: []string{"math"}}}
	id, err := svc.SaveQuery(ctx, "v1", selection.Versioned{Version: 1, Query: root})
	require.NoError(t, err)

	saved, err := svc.GetQuery(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, selection.CurrentVersion, saved.Query.Version)
	assert.Equal(t, selection.Node(root), saved.Query.Query)
}

func TestSaveQueryRejectsBadTrees(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	svc := newQueryService(t, fx, QueryServiceOptions{})
	ctx := context.Background()

	_, err := svc.SaveQuery(ctx, "future", selection.Versioned{Version: 99, Query: selection.Root{}})
	assert.ErrorIs(t, err, selection.ErrUnsupportedVersion)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.SaveQuery(ctx, "zero weight", selection.NewVersioned(selection.Branch{
		Children: []selection.Weighted[selection.Node]{{Item: selection.Root{}, Weight: 0}},
	}))
	assert.ErrorIs(t, err, selection.ErrInvalidQuery)

	_, err = svc.SaveQuery(ctx, " ", selection.NewVersioned(selection.Root{}))
	assert.ErrorIs(t, err, domain.ErrEmptyLabel)
}

func TestDrawTree(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	svc := newQueryService(t, fx, QueryServiceOptions{})
	ctx := context.Background()

	t.Run("empty branch draws nothing", func(t *testing.T) {
		_, ok, err := svc.DrawTree(ctx, selection.NewVersioned(selection.Branch{}))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cross-pack root", func(t *testing.T) {
		id, ok, err := svc.DrawTree(ctx, selection.NewVersioned(selection.Root{
			Criterion: selection.TagCriterion{Excluded: []string{"math"}},
		}))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, fx.c3, id)
	})

	t.Run("malformed", func(t *testing.T) {
		_, _, err := svc.DrawTree(ctx, selection.NewVersioned(selection.Branch{
			Children: []selection.Weighted[selection.Node]{{Item: nil, Weight: 1}},
		}))
		assert.ErrorIs(t, err, selection.ErrInvalidQuery)
		var validationErr *domain.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}
