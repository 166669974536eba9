package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movies-api/internal/repository"
	"github.com/iliyamo/movies-api/internal/service"
)

const maxGenreNameLen = 100

// GenreHandler serves /api/genres.
type GenreHandler struct {
	Genres *service.GenreService
}

// NewGenreHandler panics when the service is missing.
func NewGenreHandler(genres *service.GenreService) *GenreHandler {
	if genres == nil {
		panic("nil service passed to NewGenreHandler")
	}
	return &GenreHandler{Genres: genres}
}

type genreBody struct {
	Name string `json:"name"`
}

// bindGenre decodes the JSON body and checks the name.  A non-empty problem
// is the 400 message.
func bindGenre(c echo.Context) (name, problem string) {
	var body genreBody
	if err := c.Bind(&body); err != nil {
		return "", "invalid request body"
	}
	if body.Name == "" {
		return "", "The Name field is required."
	}
	if utf8.RuneCountInString(body.Name) > maxGenreNameLen {
		return "", fmt.Sprintf("The Name field must be at most %d characters.", maxGenreNameLen)
	}
	return body.Name, ""
}

func parseGenreID(s string) (uint8, error) {
	id, err := strconv.ParseUint(s, 10, 8)
	return uint8(id), err
}

func genreNotFound(c echo.Context, id uint8) error {
	return c.String(http.StatusNotFound, fmt.Sprintf("No genre was found with ID: %d", id))
}

// List handles GET /api/genres.
func (h *GenreHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	genres, err := h.Genres.ListAll(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, genres)
}

// Create handles POST /api/genres.
func (h *GenreHandler) Create(c echo.Context) error {
	name, problem := bindGenre(c)
	if problem != "" {
		return c.String(http.StatusBadRequest, problem)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	g, err := h.Genres.Create(ctx, name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

// Update handles PUT /api/genres/:id.
func (h *GenreHandler) Update(c echo.Context) error {
	id, err := parseGenreID(c.Param("id"))
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid id")
	}
	name, problem := bindGenre(c)
	if problem != "" {
		return c.String(http.StatusBadRequest, problem)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	g, err := h.Genres.Update(ctx, id, name)
	if err != nil {
		if errors.Is(err, repository.ErrGenreNotFound) {
			return genreNotFound(c, id)
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

// Delete handles DELETE /api/genres/:id.  Genres used by movies answer 409.
func (h *GenreHandler) Delete(c echo.Context) error {
	id, err := parseGenreID(c.Param("id"))
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	g, err := h.Genres.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGenreNotFound) {
			return genreNotFound(c, id)
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}
