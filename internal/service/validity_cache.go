package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/events"
)

type validityEntry struct {
	valid   bool
	expires time.Time
}

// ValidityCache remembers recently computed filter validity for a bounded time.
// It is an events.EventHandler: tag changes and deletes evict the affected
// filter, and card changes evict everything.
//
// Validity is advisory, so a stale entry only delays a warning; it never
// changes what a draw returns.
//
// Every invalidation bumps a generation counter. Callers read Generation
// before loading the filter and hand it to Put, which drops results computed
// across an invalidation.
type ValidityCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	entries    map[uuid.UUID]validityEntry
	generation uint64
	now     func() time.Time
	logger  *slog.Logger
}

// Ensure ValidityCache implements events.EventHandler
var _ events.EventHandler = (*ValidityCache)(nil)

// NewValidityCache creates a cache whose entries live for ttl.
// A non-positive ttl yields a cache that never stores anything.
func NewValidityCache(ttl time.Duration, logger *slog.Logger) *ValidityCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidityCache{
		ttl:     ttl,
		entries: make(map[uuid.UUID]validityEntry),
		now:     time.Now,
		logger:  logger.With(slog.String("component", "validity_cache")),
	}
}

// Get returns the cached validity of a filter, if a fresh entry exists.
func (c *ValidityCache) Get(filterID uuid.UUID) (valid bool, ok bool) {
	if c == nil {
		return false, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[filterID]
	if !found {
		return false, false
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, filterID)
		return false, false
	}
	return entry.valid, true
}

// Generation returns the current invalidation generation.
func (c *ValidityCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Put records the validity of a filter computed from state read at
// generation. It is a no-op if the cache has been invalidated since.
func (c *ValidityCache) Put(filterID uuid.UUID, valid bool, generation uint64) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		c.logger.Debug("discarding validity computed before an invalidation",
			slog.String("filter_id", filterID.String()))
		return
	}
	c.entries[filterID] = validityEntry{valid: valid, expires: c.now().Add(c.ttl)}
}

// Invalidate drops the entry for a filter.
func (c *ValidityCache) Invalidate(filterID uuid.UUID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	delete(c.entries, filterID)
}

// Flush drops every entry.
func (c *ValidityCache) Flush() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	clear(c.entries)
}

// Len returns the number of stored entries, fresh or not.
func (c *ValidityCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// HandleEvent implements events.EventHandler.
func (c *ValidityCache) HandleEvent(ctx context.Context, event *events.MutationEvent) error {
	if c == nil {
		return nil
	}
	switch event.Type {
	case events.FilterTagsChanged, events.FilterDeleted:
		c.Invalidate(event.EntityID)
	case events.CardsChanged:
		c.Flush()
	default:
		return nil
	}
	c.logger.Debug("validity cache invalidated",
		slog.String("event_type", event.Type),
		slog.String("entity_id", event.EntityID.String()))
	return nil
}
