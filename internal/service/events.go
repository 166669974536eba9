package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/movies-api/internal/queue"
)

// EventPublisher delivers catalog change notifications.  *queue.Publisher
// implements it; a nil publisher disables notifications.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.CatalogEvent) error
}

// notify publishes ev without failing the request.  The publish runs on a
// detached context so a client disconnect does not drop the event.
func notify(ctx context.Context, p EventPublisher, ev queue.CatalogEvent) {
	if p == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.Publish(ctx, ev); err != nil {
		log.Printf("catalog event %s/%s id=%d not published: %v", ev.Entity, ev.Action, ev.ID, err)
	}
}
