package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movies-api/internal/config"
	"github.com/iliyamo/movies-api/internal/handler"
	"github.com/iliyamo/movies-api/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// liveness, readiness and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, ready handler.ReadinessChecker) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(ready))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// CatalogOptions configures the middleware of the /api group.  Redis may be
// nil, in which case responses are not cached and rate limiting stays in
// process.  An empty JWTSecret leaves the mutating routes open.
type CatalogOptions struct {
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
}

// RegisterCatalog registers the genre and movie endpoints under /api.
func RegisterCatalog(e *echo.Echo, g *handler.GenreHandler, m *handler.MovieHandler, opts CatalogOptions) {
	api := e.Group(
		"/api",
		middleware.NewTokenBucket(opts.RateLimit, opts.Redis),
		middleware.NewRedisCache(opts.Cache, opts.Redis),
	)

	var admin []echo.MiddlewareFunc
	if opts.JWTSecret != "" {
		admin = []echo.MiddlewareFunc{
			middleware.JWTAuth(opts.JWTSecret),
			middleware.RequireRole(handler.AdminRole),
		}
	}

	// ---- Genres ----
	api.GET("/genres", g.List)
	api.POST("/genres", g.Create, admin...)
	api.PUT("/genres/:id", g.Update, admin...)
	api.DELETE("/genres/:id", g.Delete, admin...)

	// ---- Movies ----
	// static segment, so it wins over /movies/:id regardless of order
	api.GET("/movies/GetByGenreId", m.ListByGenre)
	api.GET("/movies", m.List)
	api.GET("/movies/:id", m.Get)
	api.POST("/movies", m.Create, admin...)
	api.PUT("/movies/:id", m.Update, admin...)
	api.DELETE("/movies/:id", m.Delete, admin...)
}

// RegisterAuth registers the token endpoint.  It is only mounted when a
// JWT secret is configured; mw typically carries the rate limiter.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, mw ...echo.MiddlewareFunc) {
	e.POST("/api/auth/token", a.Token, mw...)
}
