package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/movies-api/internal/model"
	"github.com/iliyamo/movies-api/internal/repository"
)

func TestGenresSortedByName(t *testing.T) {
	ctx := context.Background()
	g := New().Genres()
	for _, name := range []string{"Horror", "Action", "Drama"} {
		if err := g.Create(ctx, &model.Genre{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	list, err := g.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Action", "Drama", "Horror"}
	for i, name := range want {
		if list[i].Name != name {
			t.Fatalf("list[%d] = %q, want %q", i, list[i].Name, name)
		}
	}
}

func TestGenreIDSpaceIsBounded(t *testing.T) {
	ctx := context.Background()
	g := New().Genres()
	for i := 0; i < 255; i++ {
		if err := g.Create(ctx, &model.Genre{Name: "g"}); err != nil {
			t.Fatalf("create #%d: %v", i, err)
		}
	}
	if err := g.Create(ctx, &model.Genre{Name: "overflow"}); err == nil {
		t.Fatal("expected error once 255 genres exist")
	}
}

func TestDeleteGenreInUse(t *testing.T) {
	ctx := context.Background()
	s := New()
	genre := &model.Genre{Name: "Drama"}
	if err := s.Genres().Create(ctx, genre); err != nil {
		t.Fatal(err)
	}
	if err := s.Movies().Create(ctx, &model.Movie{Title: "x", GenreID: genre.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Genres().Delete(ctx, genre.ID); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestMoviesOrderedByRateAndFiltered(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := &model.Genre{Name: "A"}
	b := &model.Genre{Name: "B"}
	_ = s.Genres().Create(ctx, a)
	_ = s.Genres().Create(ctx, b)
	for _, m := range []model.Movie{
		{Title: "low", Rate: 2, GenreID: a.ID},
		{Title: "high", Rate: 9, GenreID: b.ID},
		{Title: "mid", Rate: 5, GenreID: a.ID},
	} {
		m := m
		if err := s.Movies().Create(ctx, &m); err != nil {
			t.Fatal(err)
		}
	}

	all, _ := s.Movies().ListDetails(ctx, nil)
	if len(all) != 3 || all[0].Title != "high" || all[2].Title != "low" {
		t.Fatalf("unexpected order: %+v", all)
	}
	if all[0].GenreName != "B" {
		t.Errorf("GenreName = %q, want B", all[0].GenreName)
	}

	onlyA, _ := s.Movies().ListDetails(ctx, &a.ID)
	if len(onlyA) != 2 || onlyA[0].Title != "mid" {
		t.Fatalf("unexpected filtered list: %+v", onlyA)
	}
}

func TestStoredPosterIsCopied(t *testing.T) {
	ctx := context.Background()
	s := New()
	g := &model.Genre{Name: "g"}
	_ = s.Genres().Create(ctx, g)
	poster := []byte{1, 2, 3}
	m := &model.Movie{Title: "x", Poster: poster, GenreID: g.ID}
	if err := s.Movies().Create(ctx, m); err != nil {
		t.Fatal(err)
	}
	poster[0] = 9
	got, err := s.Movies().GetByID(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Poster[0] != 1 {
		t.Fatal("store kept a reference to the caller's poster slice")
	}
}

func TestMovieCreateRequiresGenre(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Movies().Create(ctx, &model.Movie{Title: "orphan", GenreID: 3}); !errors.Is(err, repository.ErrGenreNotFound) {
		t.Fatalf("err = %v, want ErrGenreNotFound", err)
	}
	if all, _ := s.Movies().ListDetails(ctx, nil); len(all) != 0 {
		t.Fatalf("orphan movie stored: %+v", all)
	}
}
