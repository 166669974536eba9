package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/movies-api/internal/config"
	"github.com/iliyamo/movies-api/internal/database"
	"github.com/iliyamo/movies-api/internal/handler"
	"github.com/iliyamo/movies-api/internal/middleware"
	"github.com/iliyamo/movies-api/internal/queue"
	"github.com/iliyamo/movies-api/internal/repository"
	"github.com/iliyamo/movies-api/internal/repository/memstore"
	"github.com/iliyamo/movies-api/internal/router"
	"github.com/iliyamo/movies-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("ignoring .env: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		genres service.GenreStore
		movies service.MovieStore
		pinger database.Pinger
	)
	switch cfg.DBDriver {
	case config.DriverMemory:
		store := memstore.New()
		genres, movies, pinger = store.Genres(), store.Movies(), store
		log.Printf("storage: in-memory")
	default:
		if cfg.Migrate {
			if err := database.Migrate(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName); err != nil {
				log.Fatalf("migrate: %v", err)
			}
		}
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("db open: %v", err)
		}
		defer func(db *sql.DB) { _ = db.Close() }(db)
		genres, movies, pinger = repository.NewGenreRepo(db), repository.NewMovieRepo(db), db
		log.Printf("storage: mysql %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
	}

	var events service.EventPublisher
	if cfg.AMQPURL != "" {
		events = queue.NewPublisher(cfg.AMQPURL)
		if cfg.ConsumerEnabled {
			consumer := queue.NewConsumer(cfg.AMQPURL, cfg.CatalogLogDir)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("catalog consumer stopped: %v", err)
				}
			}()
		}
	}

	rdb := config.NewRedisClient() // nil when Redis is disabled or unreachable
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	poster := service.PosterPolicy{AllowedExtensions: cfg.PosterExtensions, MaxBytes: cfg.PosterMaxBytes}
	genreSvc := service.NewGenreService(genres, events)
	movieSvc := service.NewMovieService(movies, genres, poster, events)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Logger())
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.Metrics())

	rateCfg := config.LoadRateLimitConfig()
	router.RegisterRoutes(e, database.NewReadinessChecker(pinger))
	router.RegisterCatalog(e,
		handler.NewGenreHandler(genreSvc),
		handler.NewMovieHandler(movieSvc),
		router.CatalogOptions{
			JWTSecret: cfg.JWTSecret,
			Cache:     config.LoadCacheConfig(),
			RateLimit: rateCfg,
			Redis:     rdb,
		},
	)
	if cfg.AuthEnabled() {
		router.RegisterAuth(e, handler.NewAuthHandler(cfg), middleware.NewTokenBucket(rateCfg, rdb))
	} else {
		log.Printf("JWT_SECRET not set: catalog writes are unauthenticated")
	}

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Printf("server stopped")
}
