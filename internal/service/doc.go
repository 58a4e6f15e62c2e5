// Package service implements the card selection use cases on top of the
// stores and the selection engine.
//
// FilterService, DealerService, QueryService, StudyService and CardService
// each validate their inputs (weights, tags, labels, query trees) before any
// store is touched and wrap store failures in ServiceError, so callers can
// still match the store sentinels with errors.Is.
//
// Mutations that can change which cards a filter matches emit events through
// internal/events. The ValidityCache listens to them and drops stale
// is_valid results.
package service
