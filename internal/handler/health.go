package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a liveness probe.  It returns a plain "ok" with 200 as long as
// the process serves HTTP.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// ReadinessChecker is satisfied by database.ReadinessChecker.
type ReadinessChecker interface {
	CheckReady(ctx context.Context) error
}

// Ready returns a readiness probe that answers 503 while the store is
// unreachable.
func Ready(rc ReadinessChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := rc.CheckReady(c.Request().Context()); err != nil {
			c.Logger().Warnf("readiness: %v", err)
			return c.String(http.StatusServiceUnavailable, "not ready")
		}
		return c.String(http.StatusOK, "ready")
	}
}
