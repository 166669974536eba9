package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movies-api/internal/model"
)

// MovieRepo encapsulates all database queries related to movies.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// The details projection joins the genre name.  A LEFT JOIN keeps movies
// whose genre id no longer resolves; their GenreName is empty.
const selectDetails = `SELECT m.id, m.title, m.year, m.rate, m.storeline, m.poster, m.genre_id, COALESCE(g.name, '')
	FROM movies m LEFT JOIN genres g ON g.id = m.genre_id`

// ListDetails returns movie projections ordered by rate, highest first.
// When genreID is non-nil only that genre's movies are returned.
func (r *MovieRepo) ListDetails(ctx context.Context, genreID *uint8) ([]model.MovieDetails, error) {
	q := selectDetails
	var args []any
	if genreID != nil {
		q += ` WHERE m.genre_id = ?`
		args = append(args, *genreID)
	}
	q += ` ORDER BY m.rate DESC, m.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	out := []model.MovieDetails{}
	for rows.Next() {
		var d model.MovieDetails
		if err := rows.Scan(&d.ID, &d.Title, &d.Year, &d.Rate, &d.Storeline, &d.Poster, &d.GenreID, &d.GenreName); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDetails fetches one movie projection or returns ErrMovieNotFound.
func (r *MovieRepo) GetDetails(ctx context.Context, id int) (*model.MovieDetails, error) {
	var d model.MovieDetails
	err := r.db.QueryRowContext(ctx, selectDetails+` WHERE m.id = ?`, id).
		Scan(&d.ID, &d.Title, &d.Year, &d.Rate, &d.Storeline, &d.Poster, &d.GenreID, &d.GenreName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("get movie details %d: %w", id, err)
	}
	return &d, nil
}

// GetByID fetches the stored entity without the genre join.
func (r *MovieRepo) GetByID(ctx context.Context, id int) (*model.Movie, error) {
	return getMovie(ctx, r.db, id)
}

func getMovie(ctx context.Context, db DBTX, id int) (*model.Movie, error) {
	const q = `SELECT id, title, year, rate, storeline, poster, genre_id FROM movies WHERE id = ?`
	var m model.Movie
	err := db.QueryRowContext(ctx, q, id).
		Scan(&m.ID, &m.Title, &m.Year, &m.Rate, &m.Storeline, &m.Poster, &m.GenreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	return &m, nil
}

// Create inserts a movie and fills in the generated id.  The insert selects
// the genre row under a shared lock, so it waits for a concurrent
// GenreRepo.Delete and fails with ErrGenreNotFound if the genre is gone.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (title, year, rate, storeline, poster, genre_id)
		SELECT ?, ?, ?, ?, ?, id FROM genres WHERE id = ? LOCK IN SHARE MODE`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Year, m.Rate, m.Storeline, m.Poster, m.GenreID)
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrGenreNotFound
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = int(id)
	return nil
}

// Update writes every column of an existing movie, poster included.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies SET title = ?, year = ?, rate = ?, storeline = ?, poster = ?, genre_id = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, m.Title, m.Year, m.Rate, m.Storeline, m.Poster, m.GenreID, m.ID); err != nil {
		return fmt.Errorf("update movie %d: %w", m.ID, err)
	}
	return nil
}

// Delete removes a movie and returns the row as it was.
func (r *MovieRepo) Delete(ctx context.Context, id int) (*model.Movie, error) {
	var deleted *model.Movie
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		m, err := getMovie(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete movie %d: %w", id, err)
		}
		deleted = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
