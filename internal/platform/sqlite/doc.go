// Package sqlite implements the store interfaces on an embedded SQLite
// database using the pure-Go modernc.org/sqlite driver.
//
// The schema mirrors the PostgreSQL one and is applied with golang-migrate
// from SQL files embedded in the binary. SQLite cannot run data-modifying
// CTEs, so multi-step writes run inside store.WithinTransaction.
package sqlite
