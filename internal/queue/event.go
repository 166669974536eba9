// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer.
package queue

// CatalogQueueName is the durable queue catalog changes are published to.
const CatalogQueueName = "catalog.changed"

// Entities and actions carried by CatalogEvent.
const (
	EntityGenre = "genre"
	EntityMovie = "movie"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// CatalogEvent is published after a genre or movie was created, updated or
// deleted.  Poster bytes are never included.
type CatalogEvent struct {
	Entity     string `json:"entity"`
	Action     string `json:"action"`
	ID         int    `json:"id"`
	Name       string `json:"name"` // genre name or movie title
	GenreID    uint8  `json:"genre_id,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
