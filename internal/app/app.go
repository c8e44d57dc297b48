package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/enrollment-service/internal/config"
	"github.com/RubachokBoss/enrollment-service/internal/delivery/httpd"
	"github.com/RubachokBoss/enrollment-service/internal/middleware"
	"github.com/RubachokBoss/enrollment-service/internal/repository"
	"github.com/RubachokBoss/enrollment-service/internal/service"
	"github.com/RubachokBoss/enrollment-service/internal/service/integration"
)

type App struct {
	server    *http.Server
	logger    zerolog.Logger
	config    *config.Config
	db        *sql.DB
	redis     *redis.Client
	publisher integration.EventPublisher
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	publisher := newPublisher(cfg.RabbitMQ, log)

	redisClient := newRedisClient(ctx, cfg.Redis, log)
	courseRepo := NewCourseRepository(db, redisClient, cfg.Redis, log)

	enrollmentRepo := repository.NewEnrollmentRepository(db, log)
	userRepo := repository.NewUserRepository(db, log)

	enrollmentService := service.NewEnrollmentService(
		enrollmentRepo,
		courseRepo,
		userRepo,
		publisher,
		log,
	)

	handler := httpd.NewHandler(
		enrollmentService,
		middleware.Authenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, log),
		repository.NewPostgresRepository(db, log),
		log,
	)

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	router.Use(middleware.NewCORS(cfg.CORS))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:    server,
		logger:    log,
		config:    cfg,
		db:        db,
		redis:     redisClient,
		publisher: publisher,
	}, nil
}

// NewCourseRepository returns the Postgres course catalog, fronted by the
// Redis cache when a client is available.
func NewCourseRepository(db *sql.DB, client *redis.Client, cfg config.RedisConfig, log zerolog.Logger) repository.CourseRepository {
	courses := repository.NewCourseRepository(db, log)
	if client == nil {
		return courses
	}
	return repository.NewCachedCourseRepository(courses, client, cfg.CourseTTL, cfg.KeyPrefix, log)
}

func newRedisClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) *redis.Client {
	if cfg.URL == "" {
		log.Info().Msg("Course cache disabled")
		return nil
	}

	client, err := repository.NewRedisClient(ctx, cfg.URL)
	if err != nil {
		log.Warn().Err(err).Msg("Course cache unavailable, continuing without it")
		return nil
	}

	log.Info().Msg("Course cache connected")
	return client
}

func newPublisher(cfg config.RabbitMQConfig, log zerolog.Logger) integration.EventPublisher {
	if cfg.URL == "" {
		return integration.NewNopPublisher(log)
	}

	publisher, err := integration.NewRabbitMQPublisher(cfg.URL, cfg.Exchange, log)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, enrollment events will be dropped")
		return integration.NewNopPublisher(log)
	}

	return integration.NewAsyncPublisher(publisher, cfg.PublishWorkers, cfg.PublishQueueSize, log)
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting enrollment service on %s", a.config.Server.Address)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down enrollment service...")

	err := a.server.Shutdown(ctx)

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close event publisher")
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return err
}
