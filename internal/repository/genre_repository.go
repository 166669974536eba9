package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movies-api/internal/model"
)

// GenreRepo encapsulates all database queries related to genres.
type GenreRepo struct {
	db *sql.DB
}

// NewGenreRepo constructs a GenreRepo with the provided DB handle.
func NewGenreRepo(db *sql.DB) *GenreRepo {
	return &GenreRepo{db: db}
}

// ListAll returns every genre ordered by name.
func (r *GenreRepo) ListAll(ctx context.Context) ([]model.Genre, error) {
	const q = `SELECT id, name FROM genres ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a genre or returns ErrGenreNotFound.
func (r *GenreRepo) GetByID(ctx context.Context, id uint8) (*model.Genre, error) {
	return getGenre(ctx, r.db, id)
}

func getGenre(ctx context.Context, db DBTX, id uint8) (*model.Genre, error) {
	return scanGenre(ctx, db, `SELECT id, name FROM genres WHERE id = ?`, id)
}

func scanGenre(ctx context.Context, db DBTX, q string, id uint8) (*model.Genre, error) {
	var g model.Genre
	if err := db.QueryRowContext(ctx, q, id).Scan(&g.ID, &g.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGenreNotFound
		}
		return nil, fmt.Errorf("get genre %d: %w", id, err)
	}
	return &g, nil
}

// Exists reports whether a genre with the id is present.
func (r *GenreRepo) Exists(ctx context.Context, id uint8) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM genres WHERE id = ?)`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("genre exists %d: %w", id, err)
	}
	return ok, nil
}

// Create inserts a genre and fills in the generated id.
func (r *GenreRepo) Create(ctx context.Context, g *model.Genre) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO genres (name) VALUES (?)`, g.Name)
	if err != nil {
		return fmt.Errorf("insert genre: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint8(id)
	return nil
}

// UpdateName overwrites the name of an existing genre.  A missing row is
// detected with a lookup because MySQL reports zero affected rows when the
// new name equals the old one.
func (r *GenreRepo) UpdateName(ctx context.Context, id uint8, name string) error {
	if _, err := getGenre(ctx, r.db, id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE genres SET name = ? WHERE id = ?`, name, id); err != nil {
		return fmt.Errorf("update genre %d: %w", id, err)
	}
	return nil
}

// Delete removes a genre and returns the row as it was.  Genres that are
// still referenced by movies are kept and ErrConflict is returned.
//
// The genre row is locked FOR UPDATE before movies are counted, and
// MovieRepo.Create reads the genre with a shared lock, so a movie cannot be
// inserted for the genre between the count and the delete.
func (r *GenreRepo) Delete(ctx context.Context, id uint8) (*model.Genre, error) {
	var deleted *model.Genre
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		g, err := scanGenre(ctx, tx, `SELECT id, name FROM genres WHERE id = ? FOR UPDATE`, id)
		if err != nil {
			return err
		}
		var refs int
		const qRefs = `SELECT COUNT(*) FROM movies WHERE genre_id = ? LOCK IN SHARE MODE`
		if err := tx.QueryRowContext(ctx, qRefs, id).Scan(&refs); err != nil {
			return fmt.Errorf("genre usage %d: %w", id, err)
		}
		if refs > 0 {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM genres WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete genre %d: %w", id, err)
		}
		deleted = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
