// Package service holds the catalog use cases.  Services receive the request
// context explicitly and talk to storage only through the store interfaces
// declared here, so MySQL and the in-memory store are interchangeable.
package service

import (
	"context"

	"github.com/iliyamo/movies-api/internal/model"
	"github.com/iliyamo/movies-api/internal/queue"
)

// GenreStore is implemented by repository.GenreRepo and memstore.GenreRepo.
// Missing rows are reported as repository.ErrGenreNotFound.
type GenreStore interface {
	ListAll(ctx context.Context) ([]model.Genre, error)
	GetByID(ctx context.Context, id uint8) (*model.Genre, error)
	Exists(ctx context.Context, id uint8) (bool, error)
	Create(ctx context.Context, g *model.Genre) error
	UpdateName(ctx context.Context, id uint8, name string) error
	Delete(ctx context.Context, id uint8) (*model.Genre, error)
}

// GenreService implements the genre endpoints.
type GenreService struct {
	genres GenreStore
	events EventPublisher
}

// NewGenreService wires a GenreService.  events may be nil.
func NewGenreService(genres GenreStore, events EventPublisher) *GenreService {
	if genres == nil {
		panic("nil genre store passed to NewGenreService")
	}
	return &GenreService{genres: genres, events: events}
}

// ListAll returns every genre ordered by name.
func (s *GenreService) ListAll(ctx context.Context) ([]model.Genre, error) {
	return s.genres.ListAll(ctx)
}

// Create stores a new genre.  Duplicate names are accepted.
func (s *GenreService) Create(ctx context.Context, name string) (*model.Genre, error) {
	g := &model.Genre{Name: name}
	if err := s.genres.Create(ctx, g); err != nil {
		return nil, err
	}
	notify(ctx, s.events, genreEvent(queue.ActionCreated, g))
	return g, nil
}

// Update renames an existing genre.
func (s *GenreService) Update(ctx context.Context, id uint8, name string) (*model.Genre, error) {
	if err := s.genres.UpdateName(ctx, id, name); err != nil {
		return nil, err
	}
	g := &model.Genre{ID: id, Name: name}
	notify(ctx, s.events, genreEvent(queue.ActionUpdated, g))
	return g, nil
}

// Delete removes a genre and returns its prior state.  Genres still used by
// movies are kept and repository.ErrConflict is returned.
func (s *GenreService) Delete(ctx context.Context, id uint8) (*model.Genre, error) {
	g, err := s.genres.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	notify(ctx, s.events, genreEvent(queue.ActionDeleted, g))
	return g, nil
}

func genreEvent(action string, g *model.Genre) queue.CatalogEvent {
	return queue.CatalogEvent{Entity: queue.EntityGenre, Action: action, ID: int(g.ID), Name: g.Name}
}
