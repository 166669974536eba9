package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movies-api/internal/model"
	"github.com/iliyamo/movies-api/internal/repository/memstore"
	"github.com/iliyamo/movies-api/internal/service"
)

// newTestServer mounts the catalog handlers on a bare echo instance backed
// by the in-memory store.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	store := memstore.New()
	gh := NewGenreHandler(service.NewGenreService(store.Genres(), nil))
	mh := NewMovieHandler(service.NewMovieService(store.Movies(), store.Genres(), service.DefaultPosterPolicy(), nil))

	e := echo.New()
	e.GET("/api/genres", gh.List)
	e.POST("/api/genres", gh.Create)
	e.PUT("/api/genres/:id", gh.Update)
	e.DELETE("/api/genres/:id", gh.Delete)
	e.GET("/api/movies/GetByGenreId", mh.ListByGenre)
	e.GET("/api/movies", mh.List)
	e.GET("/api/movies/:id", mh.Get)
	e.POST("/api/movies", mh.Create)
	e.PUT("/api/movies/:id", mh.Update)
	e.DELETE("/api/movies/:id", mh.Delete)
	return e
}

func do(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

type poster struct {
	name string
	data []byte
}

// movieRequest builds a multipart movie form.  A nil poster omits the file.
func movieRequest(t *testing.T, method, path string, fields map[string]string, p *poster) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if p != nil {
		fw, err := w.CreateFormFile("Poster", p.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(p.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func movieFields(title string, rate float64, genreID uint8) map[string]string {
	return map[string]string{
		"Title":     title,
		"Year":      "1999",
		"Rate":      strconv.FormatFloat(rate, 'f', -1, 64),
		"Storeline": "a story",
		"GenreId":   strconv.Itoa(int(genreID)),
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func createGenre(t *testing.T, e *echo.Echo, name string) model.Genre {
	t.Helper()
	rec := do(e, jsonRequest(http.MethodPost, "/api/genres", `{"name":"`+name+`"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("create genre: %d %s", rec.Code, rec.Body.String())
	}
	return decode[model.Genre](t, rec)
}

func createMovie(t *testing.T, e *echo.Echo, title string, rate float64, genreID uint8) model.Movie {
	t.Helper()
	req := movieRequest(t, http.MethodPost, "/api/movies", movieFields(title, rate, genreID), &poster{"p.png", []byte("png-bytes")})
	rec := do(e, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create movie: %d %s", rec.Code, rec.Body.String())
	}
	return decode[model.Movie](t, rec)
}
