package domain

import (
	"github.com/google/uuid"
)

// Pack is a named collection of cards. Packs are managed outside this service;
// they are read here for grouping and scope checks only.
type Pack struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// Card is a flashcard owned by exactly one pack. Front and Back are opaque
// to selection; only Tags take part in matching.
type Card struct {
	ID     uuid.UUID `json:"id"`
	PackID uuid.UUID `json:"pack_id"`
	Front  string    `json:"front"`
	Back   string    `json:"back"`
	Tags   []string  `json:"tags"`
}
