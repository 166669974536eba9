// Package repository contains data access logic separated from HTTP handlers.
// The sentinel errors below are shared by the MySQL repositories and the
// in-memory store so that higher layers can map them to HTTP statuses
// without knowing which backend is in use.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ErrGenreNotFound is returned when no genre has the requested id.
var ErrGenreNotFound = errors.New("genre not found")

// ErrMovieNotFound is returned when no movie has the requested id.
var ErrMovieNotFound = errors.New("movie not found")

// ErrConflict is returned when a delete cannot proceed because other rows
// still depend on the target, e.g. a genre that movies reference.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn inside a transaction, committing when fn returns nil.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}
