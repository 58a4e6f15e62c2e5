// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store, the embedded goose migrations that
// create their schema, and PushdownSelector, a selection.Selector that
// evaluates tag criteria inside the database.
//
// Stores accept a store.DBTX, so they work against a pool or inside a
// caller-owned transaction. Driver errors are translated to store sentinels
// by MapError; foreign key violations on writes become the not-found error of
// the referenced entity.
package postgres
