// Package memstore is an in-process implementation of the genre and movie
// repositories.  It backs DB_DRIVER=memory and the service and handler tests.
// Ordering matches the MySQL queries: genres by name then id, movies by rate
// descending then id.
package memstore

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/iliyamo/movies-api/internal/model"
	"github.com/iliyamo/movies-api/internal/repository"
)

var errGenreIDsExhausted = errors.New("memstore: genre id space exhausted")

// Store holds both tables behind one lock so genre deletion can check
// movie references atomically.
type Store struct {
	mu          sync.RWMutex
	genres      map[uint8]model.Genre
	movies      map[int]model.Movie
	nextGenreID int
	nextMovieID int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		genres:      make(map[uint8]model.Genre),
		movies:      make(map[int]model.Movie),
		nextGenreID: 1,
		nextMovieID: 1,
	}
}

// PingContext always succeeds; it lets the store serve /readyz.
func (s *Store) PingContext(ctx context.Context) error { return ctx.Err() }

// Genres returns the genre repository view of the store.
func (s *Store) Genres() *GenreRepo { return &GenreRepo{s: s} }

// Movies returns the movie repository view of the store.
func (s *Store) Movies() *MovieRepo { return &MovieRepo{s: s} }

// GenreRepo mirrors repository.GenreRepo.
type GenreRepo struct{ s *Store }

func (r *GenreRepo) ListAll(ctx context.Context) ([]model.Genre, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Genre, 0, len(r.s.genres))
	for _, g := range r.s.genres {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *GenreRepo) GetByID(ctx context.Context, id uint8) (*model.Genre, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.genres[id]
	if !ok {
		return nil, repository.ErrGenreNotFound
	}
	return &g, nil
}

func (r *GenreRepo) Exists(ctx context.Context, id uint8) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.genres[id]
	return ok, nil
}

// Create assigns the next id.  Like a TINYINT UNSIGNED column the id space
// ends at 255.
func (r *GenreRepo) Create(ctx context.Context, g *model.Genre) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.nextGenreID > math.MaxUint8 {
		return errGenreIDsExhausted
	}
	g.ID = uint8(r.s.nextGenreID)
	r.s.nextGenreID++
	r.s.genres[g.ID] = *g
	return nil
}

func (r *GenreRepo) UpdateName(ctx context.Context, id uint8, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.genres[id]
	if !ok {
		return repository.ErrGenreNotFound
	}
	g.Name = name
	r.s.genres[id] = g
	return nil
}

func (r *GenreRepo) Delete(ctx context.Context, id uint8) (*model.Genre, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.genres[id]
	if !ok {
		return nil, repository.ErrGenreNotFound
	}
	for _, m := range r.s.movies {
		if m.GenreID == id {
			return nil, repository.ErrConflict
		}
	}
	delete(r.s.genres, id)
	return &g, nil
}

// MovieRepo mirrors repository.MovieRepo.
type MovieRepo struct{ s *Store }

func (r *MovieRepo) ListDetails(ctx context.Context, genreID *uint8) ([]model.MovieDetails, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.MovieDetails{}
	for _, m := range r.s.movies {
		if genreID != nil && m.GenreID != *genreID {
			continue
		}
		out = append(out, r.details(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate > out[j].Rate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MovieRepo) GetDetails(ctx context.Context, id int) (*model.MovieDetails, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.movies[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	d := r.details(m)
	return &d, nil
}

// details must be called with the lock held.
func (r *MovieRepo) details(m model.Movie) model.MovieDetails {
	return model.MovieDetails{
		ID:        m.ID,
		Title:     m.Title,
		Year:      m.Year,
		Rate:      m.Rate,
		Storeline: m.Storeline,
		Poster:    clone(m.Poster),
		GenreID:   m.GenreID,
		GenreName: r.s.genres[m.GenreID].Name,
	}
}

func (r *MovieRepo) GetByID(ctx context.Context, id int) (*model.Movie, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.movies[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	m.Poster = clone(m.Poster)
	return &m, nil
}

// Create fails with repository.ErrGenreNotFound when the genre does not
// exist, checked under the same lock GenreRepo.Delete takes.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.genres[m.GenreID]; !ok {
		return repository.ErrGenreNotFound
	}
	m.ID = r.s.nextMovieID
	r.s.nextMovieID++
	stored := *m
	stored.Poster = clone(m.Poster)
	stored.Genre = nil
	r.s.movies[m.ID] = stored
	return nil
}

func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.movies[m.ID]; !ok {
		return repository.ErrMovieNotFound
	}
	stored := *m
	stored.Poster = clone(m.Poster)
	stored.Genre = nil
	r.s.movies[m.ID] = stored
	return nil
}

func (r *MovieRepo) Delete(ctx context.Context, id int) (*model.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.movies[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	delete(r.s.movies, id)
	return &m, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
