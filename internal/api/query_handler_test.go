package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestQueryHandler_QueryCards(t *testing.T) {
	fx := newAPIFixture(t, RouterConfig{})

	tests := []struct {
		name string
		req  CardQueryRequest
		want []uuid.UUID
	}{
		{
			name: "included and excluded",
			req:  CardQueryRequest{PackID: &fx.pack.ID, IncludedTags: []string{"math"}, ExcludedTags: []string{"hard"}},
			want: []uuid.UUID{fx.c1},
		},
		{
			name: "every pack",
			req:  CardQueryRequest{IncludedTags: []string{"math"}},
			want: []uuid.UUID{fx.c1, fx.c2},
		},
		{
			name: "no criterion",
			req:  CardQueryRequest{PackID: &fx.pack.ID},
			want: []uuid.UUID{fx.c1, fx.c2, fx.c3},
		},
		{
			name: "tag in both lists",
			req:  CardQueryRequest{IncludedTags: []string{"math"}, ExcludedTags: []string{"math"}},
			want: []uuid.UUID{},
		},
		{
			name: "zero limit",
			req:  CardQueryRequest{IncludedTags: []string{"math"}, Limit: intPtr(0)},
			want: []uuid.UUID{},
		},
		{
			name: "unknown tag",
			req:  CardQueryRequest{IncludedTags: []string{"geometry"}},
			want: []uuid.UUID{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := fx.do(t, http.MethodPost, "/api/cards/query", tc.req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.ElementsMatch(t, tc.want, decodeBody[CardsResponse](t, rec).CardIDs)
		})
	}
}

func TestQueryHandler_QueryCardsLimit(t *testing.T) {
	fx := newAPIFixture(t, RouterConfig{})

	rec := fx.do(t, http.MethodPost, "/api/cards/query", CardQueryRequest{Limit: intPtr(2)})
	require.Equal(t, http.StatusOK, rec.Code)
	ids := decodeBody[CardsResponse](t, rec).CardIDs
	assert.Len(t, ids, 2)
	assert.Subset(t, []uuid.UUID{fx.c1, fx.c2, fx.c3}, ids)
}

func TestQueryHandler_QueryCardsErrors(t *testing.T) {
	fx := newAPIFixture(t, RouterConfig{})
	unknown := uuid.New()

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "unknown pack",
			body:       CardQueryRequest{PackID: &unknown},
			wantStatus: http.StatusNotFound,
			wantMsg:    "Pack not found",
		},
		{
			name:       "negative limit",
			body:       CardQueryRequest{Limit: intPtr(-1)},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid limit: too small",
		},
		{
			name:       "blank tag",
			body:       CardQueryRequest{IncludedTags: []string{" "}},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid tag: cannot be empty",
		},
		{
			name:       "empty tag",
			body:       CardQueryRequest{ExcludedTags: []string{""}},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid excluded_tags[0]: required field",
		},
		{
			name:       "no body",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid request format",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := fx.do(t, http.MethodPost, "/api/cards/query", tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tc.wantMsg, errorMessage(t, rec))
		})
	}
}

// rootTree renders a single-root versioned tree over the fixture pack.
func (fx *apiFixture) rootTree(included, excluded string) string {
	return fmt.Sprintf(`{"version": 1, "query": {"root": {"pack_id": %q, "included_tags": [%s], "excluded_tags": [%s]}}}`,
		fx.pack.ID, included, excluded)
}

func TestQueryHandler_SavedQueries(t *testing.T) {
	fx := newAPIFixture(t, RouterConfig{})

	body := fmt.Sprintf(`{"title": "Easy", "query": {"version": 1, "query": {"branch": [
		{"weight": 2, "query": %s}
	]}}}`, `{"root": {"pack_id": "`+fx.pack.ID.String()+`", "included_tags": ["math"], "excluded_tags": ["hard"]}}`)

	rec := fx.do(t, http.MethodPost, "/api/queries", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody[IDResponse](t, rec).ID

	rec = fx.do(t, http.MethodPost, "/api/queries", fmt.Sprintf(`{"title": "All", "query": %s}`, fx.rootTree("", "")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = fx.do(t, http.MethodGet, "/api/queries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[QueryListResponse](t, rec)
	require.Len(t, list.Queries, 2)
	assert.Equal(t, "All", list.Queries[0].Title)
	assert.Equal(t, "Easy", list.Queries[1].Title)

	rec = fx.do(t, http.MethodGet, "/api/queries/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decodeBody[domain.SavedQuery](t, rec)
	assert.Equal(t, "Easy", saved.Title)
	assert.Equal(t, 1, saved.Query.Version)

	for i := 0; i < 10; i++ {
		rec = fx.do(t, http.MethodPost, "/api/queries/"+id.String()+"/deal", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, fx.c1, decodeBody[CardResponse](t, rec).CardID)
	}

	rec = fx.do(t, http.MethodDelete, "/api/queries/"+id.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = fx.do(t, http.MethodPost, "/api/queries/"+id.String()+"/deal", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Query not found", errorMessage(t, rec))
}

func TestQueryHandler_DrawTree(t *testing.T) {
	fx := newAPIFixture(t, RouterConfig{})

	rec := fx.do(t, http.MethodPost, "/api/queries/draw", fx.rootTree(`"hard"`, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, fx.c2, decodeBody[CardResponse](t, rec).CardID)

	nested := fmt.Sprintf(`{"version": 1, "query": {"branch": [
		{"weight": 1, "query": {"branch": [{"weight": 4, "query": {"root": {"pack_id": %q, "included_tags": [], "excluded_tags": ["math"]}}}]}}
	]}}`, fx.pack.ID)
	rec = fx.do(t, http.MethodPost, "/api/queries/draw", nested)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, fx.c3, decodeBody[CardResponse](t, rec).CardID)

	rec = fx.do(t, http.MethodPost, "/api/queries/draw", `{"version": 1, "query": {"branch": []}}`)
	assert.Equal(t, http.StatusNoContent, rec.Code, "an empty branch draws nothing")

	rec = fx.do(t, http.MethodPost, "/api/queries/draw", fx.rootTree(`"geometry"`, ""))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestQueryHandler_Errors(t *testing.T) {
	fx := newAPIFixture(t, RouterConfig{})
	missing := uuid.New().String()

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "unsupported version",
			method:     http.MethodPost,
			path:       "/api/queries/draw",
			body:       `{"version": 99, "query": {"root": {}}}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Unsupported query format version",
		},
		{
			name:       "unsupported version on save",
			method:     http.MethodPost,
			path:       "/api/queries",
			body:       `{"title": "Future", "query": {"version": 2, "query": {"root": {}}}}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Unsupported query format version",
		},
		{
			name:       "node with neither shape",
			method:     http.MethodPost,
			path:       "/api/queries/draw",
			body:       `{"version": 1, "query": {}}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid query",
		},
		{
			name:       "zero branch weight",
			method:     http.MethodPost,
			path:       "/api/queries/draw",
			body:       `{"version": 1, "query": {"branch": [{"weight": 0, "query": {"root": {}}}]}}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid query",
		},
		{
			name:       "zero branch weight on save",
			method:     http.MethodPost,
			path:       "/api/queries",
			body:       `{"title": "Bad", "query": {"version": 1, "query": {"branch": [{"weight": 0, "query": {"root": {}}}]}}}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid query",
		},
		{
			name:       "save without query",
			method:     http.MethodPost,
			path:       "/api/queries",
			body:       `{"title": "Nothing"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid query",
		},
		{
			name:       "save without title",
			method:     http.MethodPost,
			path:       "/api/queries",
			body:       fmt.Sprintf(`{"query": %s}`, fx.rootTree("", "")),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid title: required field",
		},
		{
			name:       "unknown query",
			method:     http.MethodGet,
			path:       "/api/queries/" + missing,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Query not found",
		},
		{
			name:       "delete unknown query",
			method:     http.MethodDelete,
			path:       "/api/queries/" + missing,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Query not found",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := fx.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tc.wantMsg, errorMessage(t, rec))
		})
	}
}
