// Package events provides types and interfaces for an event-driven architecture.
//
// Services emit a MutationEvent after each committed write that can change
// which cards a filter matches. Handlers such as the filter validity cache
// subscribe through an EventEmitter without the services knowing about them.
package events
