package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
)

// CreateFilterRequest defines the payload for creating a filter in a pack.
type CreateFilterRequest struct {
	PackID uuid.UUID `json:"pack_id"`
	Label  string    `json:"label"   validate:"required,max=200"`
}

// TagRoleRequest sets the role of a tag membership. An omitted body means
// the tag is required.
type TagRoleRequest struct {
	Exclude bool `json:"exclude"`
}

// TitleRequest carries a title for dealer creation and renaming.
type TitleRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// DealerFilterRequest adds a filter to a dealer. Weight defaults to 1.
type DealerFilterRequest struct {
	Weight *int `json:"weight" validate:"omitempty,gt=0"`
}

// SetWeightRequest changes the weight of an existing association.
type SetWeightRequest struct {
	Weight *int `json:"weight" validate:"required,gt=0"`
}

// CardQueryRequest is an ad-hoc bulk selection. Omitting pack_id spans every
// pack; omitting limit returns every match.
type CardQueryRequest struct {
	PackID       *uuid.UUID `json:"pack_id"`
	IncludedTags []string   `json:"included_tags" validate:"dive,required"`
	ExcludedTags []string   `json:"excluded_tags" validate:"dive,required"`
	Limit        *int       `json:"limit"         validate:"omitempty,gte=0"`
}

// SaveQueryRequest stores a versioned query tree under a title.
type SaveQueryRequest struct {
	Title string              `json:"title" validate:"required,max=200"`
	Query selection.Versioned `json:"query"`
}

// CreateStudyRequest defines a study. Limit defaults to domain.DefaultStudyLimit.
type CreateStudyRequest struct {
	Title  string     `json:"title"   validate:"required,max=200"`
	PackID *uuid.UUID `json:"pack_id"`
	Limit  *int       `json:"limit"   validate:"omitempty,gte=0"`
}

// UpdateStudyRequest changes any subset of a study's title, scope and limit.
// AllPacks clears the pack scope; it cannot be combined with PackID.
type UpdateStudyRequest struct {
	Title    *string    `json:"title"     validate:"omitempty,min=1,max=200"`
	PackID   *uuid.UUID `json:"pack_id"   validate:"excluded_with=AllPacks"`
	AllPacks bool       `json:"all_packs"`
	Limit    *int       `json:"limit"     validate:"omitempty,gte=0"`
}

// ImportCard is one card of a pack import. A missing id is generated.
type ImportCard struct {
	ID    uuid.UUID `json:"id"`
	Front string    `json:"front"`
	Back  string    `json:"back"`
	Tags  []string  `json:"tags" validate:"dive,required"`
}

// ImportPackRequest creates a pack if needed and adds cards to it.
type ImportPackRequest struct {
	ID    uuid.UUID    `json:"id"`
	Title string       `json:"title" validate:"required,max=200"`
	Cards []ImportCard `json:"cards" validate:"dive"`
}

// SetCardTagsRequest replaces the tags of a card.
type SetCardTagsRequest struct {
	Tags []string `json:"tags" validate:"dive,required"`
}

// IDResponse returns the id of a created entity.
type IDResponse struct {
	ID uuid.UUID `json:"id"`
}

// CardResponse returns a single selected card.
type CardResponse struct {
	CardID uuid.UUID `json:"card_id"`
}

// CardsResponse returns selected cards in random order.
type CardsResponse struct {
	CardIDs []uuid.UUID `json:"card_ids"`
}

// FilterGroupsResponse lists filters grouped by pack.
type FilterGroupsResponse struct {
	Packs []domain.FilterGroup `json:"packs"`
}

// DealerListResponse lists dealers.
type DealerListResponse struct {
	Dealers []domain.DealerSummary `json:"dealers"`
}

// QueryListResponse lists saved queries.
type QueryListResponse struct {
	Queries []domain.SavedQuery `json:"queries"`
}

// StudyListResponse lists studies.
type StudyListResponse struct {
	Studies []domain.Study `json:"studies"`
}
