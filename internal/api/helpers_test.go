package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/api/shared"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/events"
	"github.com/phrazzld/scry-dealer/internal/platform/memory"
	"github.com/phrazzld/scry-dealer/internal/service"
	"github.com/stretchr/testify/require"
)

// apiFixture serves the full router over the in-memory stores. The pack
// holds c1 {math}, c2 {math, hard} and c3 with no tags.
type apiFixture struct {
	router http.Handler
	cards  *memory.CardStore

	pack       domain.Pack
	c1, c2, c3 uuid.UUID
}

func newAPIFixture(t *testing.T, cfg RouterConfig) *apiFixture {
	t.Helper()

	db := memory.NewDB()
	cards := memory.NewCardStore(db)
	filters := memory.NewFilterStore(db)
	dealers := memory.NewDealerStore(db)
	studies := memory.NewStudyStore(db)
	queries := memory.NewQueryStore(db)
	engine := selection.NewEngine(cards, nil)

	emitter := events.NewInMemoryEventEmitter(nil)
	cache := service.NewValidityCache(time.Minute, nil)
	emitter.RegisterHandler(cache)

	filterSvc, err := service.NewFilterService(filters, cards, engine,
		service.FilterServiceOptions{Emitter: emitter, Cache: cache}, nil)
	require.NoError(t, err)
	dealerSvc, err := service.NewDealerService(dealers, filters, engine,
		service.DealerServiceOptions{Rand: rand.New(rand.NewPCG(1, 2))}, nil)
	require.NoError(t, err)
	querySvc, err := service.NewQueryService(queries, cards, engine, service.QueryServiceOptions{}, nil)
	require.NoError(t, err)
	studySvc, err := service.NewStudyService(studies, engine, nil)
	require.NoError(t, err)
	cardSvc, err := service.NewCardService(cards, emitter, nil)
	require.NoError(t, err)

	fx := &apiFixture{
		router: NewRouter(Handlers{
			Filters: NewFilterHandler(filterSvc, nil),
			Dealers: NewDealerHandler(dealerSvc, nil),
			Queries: NewQueryHandler(querySvc, nil),
			Studies: NewStudyHandler(studySvc, nil),
			Cards:   NewCardHandler(cardSvc, nil),
		}, cfg),
		cards: cards,
		pack:  domain.Pack{ID: uuid.New(), Title: "Algebra"},
	}

	require.NoError(t, cards.CreatePack(context.Background(), &fx.pack))
	fx.c1 = fx.addCard(t, "math")
	fx.c2 = fx.addCard(t, "math", "hard")
	fx.c3 = fx.addCard(t)
	return fx
}

func (fx *apiFixture) addCard(t *testing.T, tags ...string) uuid.UUID {
	t.Helper()

	card := &domain.Card{ID: uuid.New(), PackID: fx.pack.ID, Tags: tags}
	require.NoError(t, fx.cards.CreateCard(context.Background(), card))
	return card.ID
}

// do sends a request through the router. body may be nil, a string of raw
// JSON, or a value to marshal.
func (fx *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

// createFilter creates a filter in the fixture pack with the given tags.
func (fx *apiFixture) createFilter(t *testing.T, label string, tags map[string]bool) uuid.UUID {
	t.Helper()

	rec := fx.do(t, http.MethodPost, "/api/filters", CreateFilterRequest{PackID: fx.pack.ID, Label: label})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody[IDResponse](t, rec).ID

	for tag, exclude := range tags {
		rec := fx.do(t, http.MethodPut, "/api/filters/"+id.String()+"/tags/"+tag, TagRoleRequest{Exclude: exclude})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	}
	return id
}

func (fx *apiFixture) createDealer(t *testing.T, title string) uuid.UUID {
	t.Helper()

	rec := fx.do(t, http.MethodPost, "/api/dealers", TitleRequest{Title: title})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[IDResponse](t, rec).ID
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[shared.ErrorResponse](t, rec).Error
}
