package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Mutation event types.
const (
	// FilterTagsChanged is emitted after a filter's tag memberships change.
	// EntityID is the filter id.
	FilterTagsChanged = "filter.tags_changed"

	// FilterDeleted is emitted after a filter is removed. EntityID is the filter id.
	FilterDeleted = "filter.deleted"

	// CardsChanged is emitted after cards are imported or retagged. EntityID
	// is the pack id for imports and the card id for retagging.
	CardsChanged = "cards.changed"
)

// MutationEvent announces a committed write that may change selection results.
type MutationEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the mutation event type constants
	Type string `json:"type"`

	// EntityID identifies the changed entity; its kind depends on Type
	EntityID uuid.UUID `json:"entity_id"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewMutationEvent creates a MutationEvent of the given type for entityID.
func NewMutationEvent(eventType string, entityID uuid.UUID) *MutationEvent {
	return &MutationEvent{
		ID:        uuid.New(),
		Type:      eventType,
		EntityID:  entityID,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *MutationEvent) error
}

// HandlerFunc adapts a plain function to EventHandler.
type HandlerFunc func(ctx context.Context, event *MutationEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *MutationEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *MutationEvent) error
}
