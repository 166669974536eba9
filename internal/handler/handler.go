// Package handler exposes the catalog over HTTP.  Handlers parse and bind
// the request, call a service with the request context and translate
// domain errors into status codes.  Error bodies are plain text.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movies-api/internal/repository"
	"github.com/iliyamo/movies-api/internal/service"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 10 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// respondError maps errors that are not "not found" to a response.
// Anything unrecognised is logged and reported as a 500.
func respondError(c echo.Context, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.String(http.StatusBadRequest, verr.Message)
	case errors.Is(err, repository.ErrConflict):
		return c.String(http.StatusConflict, "Genre is still used by movies")
	default:
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		return c.String(http.StatusInternalServerError, "internal error")
	}
}
