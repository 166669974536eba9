package service

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/iliyamo/movies-api/internal/queue"
	"github.com/iliyamo/movies-api/internal/repository/memstore"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.CatalogEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.CatalogEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func upload(name string, data []byte) *Upload {
	return &Upload{
		Filename: name,
		Size:     int64(len(data)),
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func newServices(t *testing.T) (*GenreService, *MovieService, *recordingPublisher) {
	t.Helper()
	store := memstore.New()
	pub := &recordingPublisher{}
	return NewGenreService(store.Genres(), pub),
		NewMovieService(store.Movies(), store.Genres(), DefaultPosterPolicy(), pub),
		pub
}
