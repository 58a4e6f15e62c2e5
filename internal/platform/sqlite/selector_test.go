package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorsAgree(t *testing.T) {
	t.Parallel()

	db, _ := openTestDB(t)
	ctx := context.Background()
	cards := NewCardStore(db, nil)
	s := seedPack(t, cards)

	other := domain.Pack{ID: uuid.New(), Title: "Geometry"}
	require.NoError(t, cards.CreatePack(ctx, &other))
	elsewhere := &domain.Card{ID: uuid.New(), PackID: other.ID, Tags: []string{"math"}}
	require.NoError(t, cards.CreateCard(ctx, elsewhere))

	selectors := map[string]selection.Selector{
		"stream":   selection.NewEngine(cards, nil),
		"pushdown": NewPushdownSelector(db, nil),
	}

	for name, sel := range selectors {
		t.Run(name, func(t *testing.T) {
			tests := []struct {
				name      string
				packID    *uuid.UUID
				criterion selection.TagCriterion
				limit     int
				want      []uuid.UUID
			}{
				{"included", &s.pack.ID, selection.TagCriterion{Included: []string{"math"}}, selection.NoLimit, []uuid.UUID{s.c1, s.c2}},
				{"duplicate included", &s.pack.ID, selection.TagCriterion{Included: []string{"math", "math"}}, selection.NoLimit, []uuid.UUID{s.c1, s.c2}},
				{"both included", &s.pack.ID, selection.TagCriterion{Included: []string{"math", "hard"}}, selection.NoLimit, []uuid.UUID{s.c2}},
				{"excluded", &s.pack.ID, selection.TagCriterion{Excluded: []string{"hard"}}, selection.NoLimit, []uuid.UUID{s.c1, s.c3}},
				{"mixed", &s.pack.ID, selection.TagCriterion{Included: []string{"math"}, Excluded: []string{"hard"}}, selection.NoLimit, []uuid.UUID{s.c1}},
				{"no tags", &s.pack.ID, selection.TagCriterion{}, selection.NoLimit, []uuid.UUID{s.c1, s.c2, s.c3}},
				{"every pack", nil, selection.TagCriterion{Included: []string{"math"}}, selection.NoLimit, []uuid.UUID{s.c1, s.c2, elsewhere.ID}},
				{"overlap", &s.pack.ID, selection.TagCriterion{Included: []string{"math"}, Excluded: []string{"math"}}, selection.NoLimit, []uuid.UUID{}},
				{"unknown tag", &s.pack.ID, selection.TagCriterion{Included: []string{"nonexistent"}}, selection.NoLimit, []uuid.UUID{}},
				{"limit zero", &s.pack.ID, selection.TagCriterion{}, 0, []uuid.UUID{}},
				{"limit above matches", &s.pack.ID, selection.TagCriterion{Included: []string{"math"}}, 10, []uuid.UUID{s.c1, s.c2}},
			}

			for _, tc := range tests {
				ids, err := sel.SelectMany(ctx, tc.packID, tc.criterion, tc.limit)
				require.NoError(t, err, tc.name)
				assert.NotNil(t, ids, tc.name)
				assert.ElementsMatch(t, tc.want, ids, tc.name)
			}

			ids, err := sel.SelectMany(ctx, &s.pack.ID, selection.TagCriterion{}, 2)
			require.NoError(t, err)
			assert.Len(t, ids, 2)

			id, ok, err := sel.SelectOne(ctx, &s.pack.ID, selection.TagCriterion{Included: []string{"hard"}})
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, s.c2, id)

			_, ok, err = sel.SelectOne(ctx, &s.pack.ID, selection.TagCriterion{Included: []string{"nonexistent"}})
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

// Both cards with the included tag must keep turning up across draws.
func TestPushdownSelectorIsRandom(t *testing.T) {
	t.Parallel()

	db, _ := openTestDB(t)
	ctx := context.Background()
	s := seedPack(t, NewCardStore(db, nil))
	sel := NewPushdownSelector(db, nil)

	seen := map[uuid.UUID]int{}
	for range 200 {
		id, ok, err := sel.SelectOne(ctx, &s.pack.ID, selection.TagCriterion{Included: []string{"math"}})
		require.NoError(t, err)
		require.True(t, ok)
		seen[id]++
	}
	assert.Positive(t, seen[s.c1])
	assert.Positive(t, seen[s.c2])
	assert.Len(t, seen, 2)
}

func TestEngineInsideTransaction(t *testing.T) {
	t.Parallel()

	db, _ := openTestDB(t)
	ctx := context.Background()
	s := seedPack(t, NewCardStore(db, nil))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	engine := selection.NewEngine(NewCardStore(tx, nil), nil)
	ids, err := engine.SelectMany(ctx, &s.pack.ID, selection.TagCriterion{Excluded: []string{"hard"}}, selection.NoLimit)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{s.c1, s.c3}, ids)
}

// barrierSource holds every scan at its first tag lookup until all scans
// have enumerated their candidates.
type barrierSource struct {
	*CardStore
	arrived *sync.WaitGroup
	once    sync.Once
}

func (b *barrierSource) CardTags(ctx context.Context, cardID uuid.UUID) ([]string, error) {
	b.once.Do(func() {
		b.arrived.Done()
		b.arrived.Wait()
	})
	return b.CardStore.CardTags(ctx, cardID)
}

func TestEngineConcurrentScansFillingThePool(t *testing.T) {
	t.Parallel()

	db, _ := openTestDB(t)
	cards := NewCardStore(db, nil)
	s := seedPack(t, cards)
	for range 17 {
		card := &domain.Card{ID: uuid.New(), PackID: s.pack.ID, Front: "q", Back: "a", Tags: []string{"filler"}}
		require.NoError(t, cards.CreateCard(context.Background(), card))
	}

	// One scan per pooled connection, all inspecting tags at the same time.
	const scans = 4
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var arrived sync.WaitGroup
	arrived.Add(scans)
	errs := make(chan error, scans)
	for range scans {
		go func() {
			engine := selection.NewEngine(&barrierSource{CardStore: cards, arrived: &arrived}, nil)
			_, ok, err := engine.SelectOne(ctx, &s.pack.ID, selection.TagCriterion{Included: []string{"nonexistent"}})
			if err == nil && ok {
				err = errors.New("unexpected match")
			}
			errs <- err
		}()
	}

	for range scans {
		assert.NoError(t, <-errs)
	}
}
