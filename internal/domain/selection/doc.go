// Package selection implements card selection: tag criteria, weighted choice,
// the streaming selection engine, and the versioned recursive query tree that
// generalizes filters and dealers.
//
// Nothing in this package touches storage directly. Card ids and tags arrive
// through the CardSource interface, so the same matching logic runs against
// Postgres, SQLite, or the in-memory store used in tests.
package selection
