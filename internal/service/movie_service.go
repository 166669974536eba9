package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/movies-api/internal/model"
	"github.com/iliyamo/movies-api/internal/queue"
	"github.com/iliyamo/movies-api/internal/repository"
)

// listQueryTimeout bounds a shared list query.
const listQueryTimeout = 10 * time.Second

// MovieStore is implemented by repository.MovieRepo and memstore.MovieRepo.
// Missing rows are reported as repository.ErrMovieNotFound.
type MovieStore interface {
	ListDetails(ctx context.Context, genreID *uint8) ([]model.MovieDetails, error)
	GetDetails(ctx context.Context, id int) (*model.MovieDetails, error)
	GetByID(ctx context.Context, id int) (*model.Movie, error)
	Create(ctx context.Context, m *model.Movie) error
	Update(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id int) (*model.Movie, error)
}

// MovieInput carries the form fields of a create or update request.
// Poster is nil when no file was sent.
type MovieInput struct {
	Title     string
	Year      int
	Rate      float64
	Storeline string
	GenreID   uint8
	Poster    *Upload
}

// MovieService implements the movie endpoints.
type MovieService struct {
	movies MovieStore
	genres GenreStore
	poster PosterPolicy
	events EventPublisher

	// lists carry every poster, so concurrent identical list reads share
	// one query
	lists singleflight.Group
}

// NewMovieService wires a MovieService.  events may be nil.
func NewMovieService(movies MovieStore, genres GenreStore, poster PosterPolicy, events EventPublisher) *MovieService {
	if movies == nil || genres == nil {
		panic("nil store passed to NewMovieService")
	}
	return &MovieService{movies: movies, genres: genres, poster: poster, events: events}
}

// ListAll returns every movie with its genre name, best rated first.  The
// returned slice may be shared with concurrent callers and must not be
// modified.
func (s *MovieService) ListAll(ctx context.Context) ([]model.MovieDetails, error) {
	return s.list(ctx, "all", nil)
}

// GetByID returns one movie with its genre name.
func (s *MovieService) GetByID(ctx context.Context, id int) (*model.MovieDetails, error) {
	return s.movies.GetDetails(ctx, id)
}

// ListByGenre is ListAll restricted to one genre.
func (s *MovieService) ListByGenre(ctx context.Context, genreID uint8) ([]model.MovieDetails, error) {
	return s.list(ctx, "genre:"+strconv.Itoa(int(genreID)), &genreID)
}

// list runs one shared query per key.  The query is detached from the
// caller that started it, so one client going away does not fail the
// others; each caller still stops waiting when its own ctx ends.
func (s *MovieService) list(ctx context.Context, key string, genreID *uint8) ([]model.MovieDetails, error) {
	ch := s.lists.DoChan(key, func() (interface{}, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listQueryTimeout)
		defer cancel()
		return s.movies.ListDetails(qctx, genreID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.MovieDetails), nil
	}
}

// Create validates the poster and the genre reference, then stores the
// movie with the poster bytes and returns the stored entity.
func (s *MovieService) Create(ctx context.Context, in MovieInput) (*model.Movie, error) {
	if in.Poster == nil {
		return nil, ErrPosterRequired
	}
	if err := s.poster.Validate(in.Poster); err != nil {
		return nil, err
	}
	ok, err := s.genres.Exists(ctx, in.GenreID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidGenre
	}
	data, err := s.poster.readPoster(in.Poster)
	if err != nil {
		return nil, err
	}

	m := &model.Movie{
		Title:     in.Title,
		Year:      in.Year,
		Rate:      in.Rate,
		Storeline: in.Storeline,
		Poster:    data,
		GenreID:   in.GenreID,
	}
	if err := s.movies.Create(ctx, m); err != nil {
		// the genre was deleted after the check above
		if errors.Is(err, repository.ErrGenreNotFound) {
			return nil, ErrInvalidGenre
		}
		return nil, err
	}
	notify(ctx, s.events, movieEvent(queue.ActionCreated, m))
	return m, nil
}

// Update overwrites the scalar fields of an existing movie and replaces the
// poster only when a new one is supplied.
//
// The genre reference is looked up but an unknown genre does not block the
// update; existing clients rely on this.
func (s *MovieService) Update(ctx context.Context, id int, in MovieInput) (*model.Movie, error) {
	m, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if ok, err := s.genres.Exists(ctx, in.GenreID); err != nil {
		return nil, err
	} else if !ok {
		log.Printf("movie %d: updating with unknown genre id %d", id, in.GenreID)
	}

	if in.Poster != nil {
		if err := s.poster.Validate(in.Poster); err != nil {
			return nil, err
		}
		data, err := s.poster.readPoster(in.Poster)
		if err != nil {
			return nil, err
		}
		m.Poster = data
	}

	m.Title = in.Title
	m.Storeline = in.Storeline
	m.Year = in.Year
	m.GenreID = in.GenreID
	m.Rate = in.Rate

	if err := s.movies.Update(ctx, m); err != nil {
		return nil, err
	}
	notify(ctx, s.events, movieEvent(queue.ActionUpdated, m))
	return m, nil
}

// Delete removes a movie and returns its prior state.
func (s *MovieService) Delete(ctx context.Context, id int) (*model.Movie, error) {
	m, err := s.movies.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	notify(ctx, s.events, movieEvent(queue.ActionDeleted, m))
	return m, nil
}

func movieEvent(action string, m *model.Movie) queue.CatalogEvent {
	return queue.CatalogEvent{
		Entity:  queue.EntityMovie,
		Action:  action,
		ID:      m.ID,
		Name:    m.Title,
		GenreID: m.GenreID,
	}
}
