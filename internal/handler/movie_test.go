package handler

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/iliyamo/movies-api/internal/model"
)

func TestMovieListOrderedByRateDescending(t *testing.T) {
	e := newTestServer(t)
	g := createGenre(t, e, "Drama")
	createMovie(t, e, "Middling", 6.1, g.ID)
	createMovie(t, e, "Best", 9.3, g.ID)
	createMovie(t, e, "Worst", 2.0, g.ID)

	rec := do(e, jsonRequest(http.MethodGet, "/api/movies", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[[]model.MovieDetails](t, rec)
	want := []string{"Best", "Middling", "Worst"}
	if len(got) != len(want) {
		t.Fatalf("got %d movies, want %d", len(got), len(want))
	}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("movies[%d] = %q, want %q", i, got[i].Title, title)
		}
		if got[i].GenreName != "Drama" {
			t.Errorf("movies[%d].genreName = %q", i, got[i].GenreName)
		}
	}
}

func TestMovieCreateReturnsEntity(t *testing.T) {
	e := newTestServer(t)
	g := createGenre(t, e, "Drama")
	m := createMovie(t, e, "Heat", 8.3, g.ID)

	if m.ID == 0 || m.Title != "Heat" || m.Year != 1999 || m.GenreID != g.ID {
		t.Errorf("created = %+v", m)
	}
	if !bytes.Equal(m.Poster, []byte("png-bytes")) {
		t.Errorf("poster = %q", m.Poster)
	}
	if m.Genre != nil {
		t.Errorf("genre = %+v, want null", m.Genre)
	}
	rec := do(e, jsonRequest(http.MethodDelete, "/api/movies/1", ""))
	if !strings.Contains(rec.Body.String(), `"genre":null`) {
		t.Errorf("delete body lacks \"genre\":null: %s", rec.Body.String())
	}
}

func TestMovieCreateValidation(t *testing.T) {
	e := newTestServer(t)
	g := createGenre(t, e, "Drama")
	big := bytes.Repeat([]byte{0xff}, 1<<20+1)

	tests := []struct {
		name   string
		fields map[string]string
		poster *poster
		want   string
	}{
		{"no poster", movieFields("A", 5, g.ID), nil, "Poster is Required"},
		{"gif poster", movieFields("A", 5, g.ID), &poster{"p.gif", []byte("gif")}, "Only .Png and .Jpg images are allowed!"},
		{"upper-case extension", movieFields("A", 5, g.ID), &poster{"p.JPG", []byte("jpg")}, "Only .Png and .Jpg images are allowed!"},
		{"poster too large", movieFields("A", 5, g.ID), &poster{"p.jpg", big}, "Max allowed size for Poster is 1MB!"},
		{"unknown genre", movieFields("A", 5, 99), &poster{"p.jpg", []byte("jpg")}, "Invalid genre ID!"},
		{"missing title", movieFields("", 5, g.ID), &poster{"p.jpg", []byte("jpg")}, "The Title field is required."},
		{"title too long", movieFields(strings.Repeat("t", 251), 5, g.ID), &poster{"p.jpg", []byte("jpg")}, "The Title field must be at most 250 characters."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, movieRequest(t, http.MethodPost, "/api/movies", tt.fields, tt.poster))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
			}
			if rec.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}

	rec := do(e, jsonRequest(http.MethodGet, "/api/movies", ""))
	if got := decode[[]model.MovieDetails](t, rec); len(got) != 0 {
		t.Errorf("rejected creates stored %d movies", len(got))
	}
}

func TestMovieCreateAcceptsPosterAtLimit(t *testing.T) {
	e := newTestServer(t)
	g := createGenre(t, e, "Drama")
	exact := bytes.Repeat([]byte{0x01}, 1<<20)

	rec := do(e, movieRequest(t, http.MethodPost, "/api/movies", movieFields("Exact", 5, g.ID), &poster{"p.jpg", exact}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
}

func TestMovieGetByID(t *testing.T) {
	e := newTestServer(t)
	g := createGenre(t, e, "Thriler")
	createMovie(t, e, "Se7en", 8.6, g.ID)

	// the details reflect the genre's current name
	if rec := do(e, jsonRequest(http.MethodPut, "/api/genres/1", `{"name":"Thriller"}`)); rec.Code != http.StatusOK {
		t.Fatalf("rename genre: %d", rec.Code)
	}

	rec := do(e, jsonRequest(http.MethodGet, "/api/movies/1", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	d := decode[model.MovieDetails](t, rec)
	if d.Title != "Se7en" || d.GenreID != g.ID || d.GenreName != "Thriller" {
		t.Errorf("details = %+v", d)
	}

	rec = do(e, jsonRequest(http.MethodGet, "/api/movies/7", ""))
	if rec.Code != http.StatusNotFound || rec.Body.String() != "No movie was found with ID: 7" {
		t.Errorf("missing movie: %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(e, jsonRequest(http.MethodGet, "/api/movies/abc", "")); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id status = %d, want 400", rec.Code)
	}
}

func TestMovieListByGenre(t *testing.T) {
	e := newTestServer(t)
	drama := createGenre(t, e, "Drama")
	comedy := createGenre(t, e, "Comedy")
	createMovie(t, e, "D1", 7, drama.ID)
	createMovie(t, e, "C1", 6, comedy.ID)
	createMovie(t, e, "D2", 8, drama.ID)

	rec := do(e, jsonRequest(http.MethodGet, "/api/movies/GetByGenreId?genreId=1", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[[]model.MovieDetails](t, rec)
	if len(got) != 2 || got[0].Title != "D2" || got[1].Title != "D1" {
		t.Errorf("drama movies = %+v", got)
	}

	rec = do(e, jsonRequest(http.MethodGet, "/api/movies/GetByGenreId", ""))
	if got := decode[[]model.MovieDetails](t, rec); rec.Code != http.StatusOK || len(got) != 0 {
		t.Errorf("no genreId: %d %d movies", rec.Code, len(got))
	}

	rec = do(e, jsonRequest(http.MethodGet, "/api/movies/GetByGenreId?genreId=x", ""))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad genreId status = %d, want 400", rec.Code)
	}
}

func TestMovieUpdateKeepsPosterWhenOmitted(t *testing.T) {
	e := newTestServer(t)
	g := createGenre(t, e, "Drama")
	createMovie(t, e, "Old", 5, g.ID)

	rec := do(e, movieRequest(t, http.MethodPut, "/api/movies/1", movieFields("New", 7.5, g.ID), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
	m := decode[model.Movie](t, rec)
	if m.Title != "New" || m.Rate != 7.5 {
		t.Errorf("updated = %+v", m)
	}
	if !bytes.Equal(m.Poster, []byte("png-bytes")) {
		t.Errorf("poster = %q, want the original", m.Poster)
	}
}

func TestMovieUpdateReplacesPoster(t *testing.T) {
	e := newTestServer(t)
	g := createGenre(t, e, "Drama")
	createMovie(t, e, "Old", 5, g.ID)

	rec := do(e, movieRequest(t, http.MethodPut, "/api/movies/1", movieFields("Old", 5, g.ID), &poster{"new.jpg", []byte("jpg-bytes")}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
	if m := decode[model.Movie](t, rec); !bytes.Equal(m.Poster, []byte("jpg-bytes")) {
		t.Errorf("poster = %q", m.Poster)
	}

	rec = do(e, movieRequest(t, http.MethodPut, "/api/movies/1", movieFields("Old", 5, g.ID), &poster{"new.bmp", []byte("bmp")}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad poster status = %d, want 400", rec.Code)
	}
}

func TestMovieUpdateWithUnknownGenreSucceeds(t *testing.T) {
	e := newTestServer(t)
	g := createGenre(t, e, "Drama")
	createMovie(t, e, "Loose", 5, g.ID)

	rec := do(e, movieRequest(t, http.MethodPut, "/api/movies/1", movieFields("Loose", 5, 77), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if m := decode[model.Movie](t, rec); m.GenreID != 77 {
		t.Errorf("genreId = %d, want 77", m.GenreID)
	}
}

func TestMovieUpdateUnknownIDIsNotFound(t *testing.T) {
	e := newTestServer(t)
	rec := do(e, movieRequest(t, http.MethodPut, "/api/movies/9", movieFields("X", 1, 1), nil))
	if rec.Code != http.StatusNotFound || rec.Body.String() != "No movie was found with ID: 9" {
		t.Errorf("update missing: %d %q", rec.Code, rec.Body.String())
	}
}

func TestMovieDelete(t *testing.T) {
	e := newTestServer(t)
	g := createGenre(t, e, "Drama")
	createMovie(t, e, "Gone", 5, g.ID)

	rec := do(e, jsonRequest(http.MethodDelete, "/api/movies/1", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if m := decode[model.Movie](t, rec); m.Title != "Gone" {
		t.Errorf("deleted = %+v", m)
	}
	if rec := do(e, jsonRequest(http.MethodGet, "/api/movies/1", "")); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
	if rec := do(e, jsonRequest(http.MethodDelete, "/api/movies/1", "")); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}
