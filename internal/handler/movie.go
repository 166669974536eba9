package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movies-api/internal/repository"
	"github.com/iliyamo/movies-api/internal/service"
)

const (
	maxTitleLen     = 250
	maxStorelineLen = 2500
)

// MovieHandler serves /api/movies.
type MovieHandler struct {
	Movies *service.MovieService
}

// NewMovieHandler panics when the service is missing.
func NewMovieHandler(movies *service.MovieService) *MovieHandler {
	if movies == nil {
		panic("nil service passed to NewMovieHandler")
	}
	return &MovieHandler{Movies: movies}
}

// movieForm is the multipart form of create and update requests.  Field
// names match case-insensitively.
type movieForm struct {
	Title     string  `form:"Title"`
	Year      int     `form:"Year"`
	Rate      float64 `form:"Rate"`
	Storeline string  `form:"Storeline"`
	GenreID   uint8   `form:"GenreId"`
}

// bindMovie reads the form fields and the optional Poster file.  A
// non-empty problem is the 400 message.
func bindMovie(c echo.Context) (in service.MovieInput, problem string) {
	var form movieForm
	if err := c.Bind(&form); err != nil {
		return in, "invalid form data"
	}
	switch {
	case form.Title == "":
		return in, "The Title field is required."
	case utf8.RuneCountInString(form.Title) > maxTitleLen:
		return in, fmt.Sprintf("The Title field must be at most %d characters.", maxTitleLen)
	case utf8.RuneCountInString(form.Storeline) > maxStorelineLen:
		return in, fmt.Sprintf("The Storeline field must be at most %d characters.", maxStorelineLen)
	}

	in = service.MovieInput{
		Title:     form.Title,
		Year:      form.Year,
		Rate:      form.Rate,
		Storeline: form.Storeline,
		GenreID:   form.GenreID,
	}
	fh, err := posterFile(c)
	if err != nil {
		return in, "invalid poster upload"
	}
	if fh != nil {
		in.Poster = &service.Upload{
			Filename: fh.Filename,
			Size:     fh.Size,
			Open:     func() (io.ReadCloser, error) { return fh.Open() },
		}
	}
	return in, ""
}

// posterFile returns the uploaded poster, or nil when none was sent.
func posterFile(c echo.Context) (*multipart.FileHeader, error) {
	for _, name := range []string{"Poster", "poster"} {
		fh, err := c.FormFile(name)
		if err == nil {
			return fh, nil
		}
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
	}
	return nil, nil
}

func movieNotFound(c echo.Context, id int) error {
	return c.String(http.StatusNotFound, fmt.Sprintf("No movie was found with ID: %d", id))
}

func parseMovieID(c echo.Context) (int, error) {
	return strconv.Atoi(c.Param("id"))
}

// List handles GET /api/movies.
func (h *MovieHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	movies, err := h.Movies.ListAll(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, movies)
}

// Get handles GET /api/movies/:id.
func (h *MovieHandler) Get(c echo.Context) error {
	id, err := parseMovieID(c)
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	d, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return movieNotFound(c, id)
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// ListByGenre handles GET /api/movies/GetByGenreId?genreId=.  A missing
// genreId means genre 0, which matches nothing.
func (h *MovieHandler) ListByGenre(c echo.Context) error {
	var genreID uint8
	if raw := c.QueryParam("genreId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid genreId")
		}
		genreID = uint8(id)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	movies, err := h.Movies.ListByGenre(ctx, genreID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, movies)
}

// Create handles POST /api/movies (multipart form).
func (h *MovieHandler) Create(c echo.Context) error {
	in, problem := bindMovie(c)
	if problem != "" {
		return c.String(http.StatusBadRequest, problem)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	m, err := h.Movies.Create(ctx, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Update handles PUT /api/movies/:id (multipart form, Poster optional).
func (h *MovieHandler) Update(c echo.Context) error {
	id, err := parseMovieID(c)
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid id")
	}
	in, problem := bindMovie(c)
	if problem != "" {
		return c.String(http.StatusBadRequest, problem)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	m, err := h.Movies.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return movieNotFound(c, id)
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /api/movies/:id.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, err := parseMovieID(c)
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	m, err := h.Movies.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return movieNotFound(c, id)
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}
