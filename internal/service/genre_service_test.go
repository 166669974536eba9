package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/movies-api/internal/queue"
	"github.com/iliyamo/movies-api/internal/repository"
)

func TestGenreCreateThenListIsSortedByName(t *testing.T) {
	ctx := context.Background()
	genres, _, _ := newServices(t)

	for _, name := range []string{"Western", "Animation"} {
		if _, err := genres.Create(ctx, name); err != nil {
			t.Fatal(err)
		}
	}
	created, err := genres.Create(ctx, "Musical")
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 {
		t.Fatal("created genre has no id")
	}

	list, err := genres.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Animation", "Musical", "Western"}
	if len(list) != len(want) {
		t.Fatalf("got %d genres, want %d", len(list), len(want))
	}
	for i := range want {
		if list[i].Name != want[i] {
			t.Errorf("list[%d] = %q, want %q", i, list[i].Name, want[i])
		}
	}
}

func TestGenreDuplicateNamesAllowed(t *testing.T) {
	ctx := context.Background()
	genres, _, _ := newServices(t)
	a, _ := genres.Create(ctx, "Drama")
	b, err := genres.Create(ctx, "Drama")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Fatal("duplicate genres share an id")
	}
}

func TestGenreUpdateAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	genres, _, _ := newServices(t)

	if _, err := genres.Update(ctx, 42, "x"); !errors.Is(err, repository.ErrGenreNotFound) {
		t.Errorf("Update: err = %v, want ErrGenreNotFound", err)
	}
	if _, err := genres.Delete(ctx, 42); !errors.Is(err, repository.ErrGenreNotFound) {
		t.Errorf("Delete: err = %v, want ErrGenreNotFound", err)
	}
}

func TestGenreUpdateAndDeleteReturnRecord(t *testing.T) {
	ctx := context.Background()
	genres, _, pub := newServices(t)

	g, _ := genres.Create(ctx, "Scifi")
	updated, err := genres.Update(ctx, g.ID, "Sci-Fi")
	if err != nil {
		t.Fatal(err)
	}
	if updated.ID != g.ID || updated.Name != "Sci-Fi" {
		t.Errorf("updated = %+v", updated)
	}
	deleted, err := genres.Delete(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted.Name != "Sci-Fi" {
		t.Errorf("deleted = %+v, want prior state", deleted)
	}

	actions := []string{queue.ActionCreated, queue.ActionUpdated, queue.ActionDeleted}
	if len(pub.events) != len(actions) {
		t.Fatalf("published %d events, want %d", len(pub.events), len(actions))
	}
	for i, a := range actions {
		if pub.events[i].Action != a || pub.events[i].Entity != queue.EntityGenre {
			t.Errorf("event %d = %+v", i, pub.events[i])
		}
	}
}

func TestGenreDeleteInUseIsConflict(t *testing.T) {
	ctx := context.Background()
	genres, movies, _ := newServices(t)
	g, _ := genres.Create(ctx, "Noir")
	if _, err := movies.Create(ctx, MovieInput{Title: "x", GenreID: g.ID, Poster: upload("p.png", []byte{1})}); err != nil {
		t.Fatal(err)
	}
	if _, err := genres.Delete(ctx, g.ID); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}
