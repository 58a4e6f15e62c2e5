package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilterHandlerRequiresService(t *testing.T) {
	assert.Panics(t, func() { NewFilterHandler(nil, nil) })
}

func TestFilterHandler_Lifecycle(t *testing.T) {
	fx := newAPIFixture(t, RouterConfig{})
	id := fx.createFilter(t, "Easy math", nil)
	base := "/api/filters/" + id.String()

	rec := fx.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeBody[domain.FilterDetail](t, rec)
	assert.Equal(t, "Easy math", detail.Label)
	assert.Equal(t, fx.pack.ID, detail.PackID)
	assert.Empty(t, detail.Tags)
	assert.True(t, detail.IsValid, "an empty filter matches every card of the pack")

	// PUT without a body adds a required tag.
	rec = fx.do(t, http.MethodPut, base+"/tags/math", nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = fx.do(t, http.MethodPut, base+"/tags/hard", TagRoleRequest{Exclude: true})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	detail = decodeBody[domain.FilterDetail](t, fx.do(t, http.MethodGet, base, nil))
	assert.Equal(t, []domain.FilterTag{{Tag: "math"}, {Tag: "hard", Exclude: true}}, detail.Tags)
	assert.True(t, detail.IsValid)

	for i := 0; i < 20; i++ {
		rec = fx.do(t, http.MethodGet, base+"/card", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, fx.c1, decodeBody[CardResponse](t, rec).CardID)
	}

	rec = fx.do(t, http.MethodPatch, base+"/tags/hard", TagRoleRequest{Exclude: false})
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = fx.do(t, http.MethodGet, base+"/card", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fx.c2, decodeBody[CardResponse](t, rec).CardID)

	// No card carries "nonexistent"; the cached validity must be evicted.
	rec = fx.do(t, http.MethodPut, base+"/tags/nonexistent", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	detail = decodeBody[domain.FilterDetail](t, fx.do(t, http.MethodGet, base, nil))
	assert.False(t, detail.IsValid)
	assert.Equal(t, http.StatusNoContent, fx.do(t, http.MethodGet, base+"/card", nil).Code)

	rec = fx.do(t, http.MethodDelete, base+"/tags/nonexistent", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	detail = decodeBody[domain.FilterDetail](t, fx.do(t, http.MethodGet, base, nil))
	assert.True(t, detail.IsValid)

	rec = fx.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = fx.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Filter not found", errorMessage(t, rec))
}

func TestFilterHandler_SetExclusionOnAbsentTag(t *testing.T) {
	fx := newAPIFixture(t, RouterConfig{})
	id := fx.createFilter(t, "Math", map[string]bool{"math": false})
	base := "/api/filters/" + id.String()

	rec := fx.do(t, http.MethodPatch, base+"/tags/hard", TagRoleRequest{Exclude: true})
	require.Equal(t, http.StatusNoContent, rec.Code)

	detail := decodeBody[domain.FilterDetail](t, fx.do(t, http.MethodGet, base, nil))
	assert.Equal(t, []domain.FilterTag{{Tag: "math"}}, detail.Tags, "an absent tag stays absent")
}

func TestFilterHandler_ListGroupsByPack(t *testing.T) {
	fx := newAPIFixture(t, RouterConfig{})
	fx.createFilter(t, "Zeta", map[string]bool{"math": false})
	fx.createFilter(t, "Alpha", map[string]bool{"missing": false})

	rec := fx.do(t, http.MethodGet, "/api/filters", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[FilterGroupsResponse](t, rec)
	require.Len(t, resp.Packs, 1)
	group := resp.Packs[0]
	assert.Equal(t, fx.pack.ID, group.PackID)
	assert.Equal(t, "Algebra", group.PackTitle)
	require.Len(t, group.Filters, 2)
	assert.Equal(t, "Alpha", group.Filters[0].Label)
	assert.False(t, group.Filters[0].IsValid)
	assert.Equal(t, "Zeta", group.Filters[1].Label)
	assert.True(t, group.Filters[1].IsValid)
}

func TestFilterHandler_EmptyList(t *testing.T) {
	fx := newAPIFixture(t, RouterConfig{})

	rec := fx.do(t, http.MethodGet, "/api/filters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"packs":[]}`, rec.Body.String())
}

func TestFilterHandler_Errors(t *testing.T) {
	fx := newAPIFixture(t, RouterConfig{})
	missing := uuid.New().String()
	existing := fx.createFilter(t, "Math", nil).String()

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "malformed body",
			method:     http.MethodPost,
			path:       "/api/filters",
			body:       `{"pack_id": `,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid request format",
		},
		{
			name:       "unknown field",
			method:     http.MethodPost,
			path:       "/api/filters",
			body:       `{"label": "x", "colour": "red"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid request format",
		},
		{
			name:       "missing label",
			method:     http.MethodPost,
			path:       "/api/filters",
			body:       CreateFilterRequest{PackID: fx.pack.ID},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid label: required field",
		},
		{
			name:       "unknown pack",
			method:     http.MethodPost,
			path:       "/api/filters",
			body:       CreateFilterRequest{PackID: uuid.New(), Label: "x"},
			wantStatus: http.StatusNotFound,
			wantMsg:    "Pack not found",
		},
		{
			name:       "nil pack",
			method:     http.MethodPost,
			path:       "/api/filters",
			body:       CreateFilterRequest{Label: "x"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid pack_id: cannot be empty",
		},
		{
			name:       "invalid id",
			method:     http.MethodGet,
			path:       "/api/filters/not-a-uuid",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid id: has invalid format",
		},
		{
			name:       "unknown filter",
			method:     http.MethodGet,
			path:       "/api/filters/" + missing,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Filter not found",
		},
		{
			name:       "tag on unknown filter",
			method:     http.MethodPut,
			path:       "/api/filters/" + missing + "/tags/math",
			wantStatus: http.StatusNotFound,
			wantMsg:    "Filter not found",
		},
		{
			name:       "blank tag",
			method:     http.MethodPut,
			path:       "/api/filters/" + existing + "/tags/%20",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid tag: cannot be empty",
		},
		{
			name:       "exclusion without body",
			method:     http.MethodPatch,
			path:       "/api/filters/" + existing + "/tags/math",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid request format",
		},
		{
			name:       "delete unknown filter",
			method:     http.MethodDelete,
			path:       "/api/filters/" + missing,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Filter not found",
		},
		{
			name:       "card from unknown filter",
			method:     http.MethodGet,
			path:       "/api/filters/" + missing + "/card",
			wantStatus: http.StatusNotFound,
			wantMsg:    "Filter not found",
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
