package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/platform/memory"
	"github.com/stretchr/testify/require"
)

// fixture wires the services to the in-memory stores and the streaming engine.
// The pack holds c1 {math}, c2 {math, hard} and c3 with no tags.
type fixture struct {
	db      *memory.DB
	cards   *memory.CardStore
	filters *memory.FilterStore
	dealers *memory.DealerStore
	studies *memory.StudyStore
	queries *memory.QueryStore
	engine  selection.Selector

	pack       domain.Pack
	c1, c2, c3 uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memory.NewDB()
	fx := &fixture{
		db:      db,
		cards:   memory.NewCardStore(db),
		filters: memory.NewFilterStore(db),
		dealers: memory.NewDealerStore(db),
		studies: memory.NewStudyStore(db),
		queries: memory.NewQueryStore(db),
		pack:    domain.Pack{ID: uuid.New(), Title: "Algebra"},
	}
	fx.engine = selection.NewEngine(fx.cards, nil)

	require.NoError(t, fx.cards.CreatePack(context.Background(), &fx.pack))
	fx.c1 = fx.addCard(t, "math")
	fx.c2 = fx.addCard(t, "math", "hard")
	fx.c3 = fx.addCard(t)
	return fx
}

func (fx *fixture) addCard(t *testing.T, tags ...string) uuid.UUID {
	t.Helper()

	card := &domain.Card{ID: uuid.New(), PackID: fx.pack.ID, Tags: tags}
	require.NoError(t, fx.cards.CreateCard(context.Background(), card))
	return card.ID
}

func (fx *fixture) filterService(t *testing.T, opts FilterServiceOptions) FilterService {
	t.Helper()

	svc, err := NewFilterService(fx.filters, fx.cards, fx.engine, opts, nil)
	require.NoError(t, err)
	return svc
}

func (fx *fixture) dealerService(t *testing.T, opts DealerServiceOptions) DealerService {
	t.Helper()

	svc, err := NewDealerService(fx.dealers, fx.filters, fx.engine, opts, nil)
	require.NoError(t, err)
	return svc
}

// newFilter creates a filter on the fixture pack with the given memberships.
func (fx *fixture) newFilter(t *testing.T, svc FilterService, label string, tags ...domain.FilterTag) uuid.UUID {
	t.Helper()

	ctx := context.Background()
	id, err := svc.CreateFilter(ctx, fx.pack.ID, label)
	require.NoError(t, err)
	for _, tag := range tags {
		require.NoError(t, svc.AddFilterTag(ctx, id, tag.Tag, tag.Exclude))
	}
	return id
}

func include(tag string) domain.FilterTag { return domain.FilterTag{Tag: tag} }
func exclude(tag string) domain.FilterTag { return domain.FilterTag{Tag: tag, Exclude: true} }
