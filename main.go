package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/enrollment-service/internal/app"
	"github.com/RubachokBoss/enrollment-service/internal/catalog"
	"github.com/RubachokBoss/enrollment-service/internal/config"
	"github.com/RubachokBoss/enrollment-service/internal/database"
	"github.com/RubachokBoss/enrollment-service/internal/repository"
	"github.com/RubachokBoss/enrollment-service/pkg/logger"
)

func main() {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	migrateDirection := migrateCmd.String("direction", "up", "direction of migration (up/down)")

	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	seedDir := seedCmd.String("dir", "", "directory holding courses.yaml and users.yaml (defaults to catalog.seed_dir)")

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			migrateCmd.Parse(os.Args[2:])
			runMigrations(*migrateDirection)
			return
		case "seed":
			seedCmd.Parse(os.Args[2:])
			runSeed(*seedDir)
			return
		}
	}

	cfg, log := loadConfig()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := database.Ping(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}

	log.Info().Msg("Database connection established")

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg, log, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	go func() {
		if err := application.Run(); err != nil {
			log.Fatal().Err(err).Msg("Failed to run application")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown gracefully")
	}

	log.Info().Msg("Enrollment Service stopped")
}

func loadConfig() (*config.Config, zerolog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	return cfg, logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)
}

func runMigrations(direction string) {
	cfg, log := loadConfig()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	migrator, err := database.NewMigrator(db, cfg.Database.MigrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}
	defer migrator.Close()

	switch direction {
	case "up":
		if err := migrator.Up(); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Migrations applied successfully")
	case "down":
		if err := migrator.Down(); err != nil {
			log.Fatal().Err(err).Msg("Failed to rollback migrations")
		}
		log.Info().Msg("Migrations rolled back successfully")
	default:
		log.Fatal().Msg("Invalid migration direction. Use 'up' or 'down'")
	}
}

func runSeed(dir string) {
	cfg, log := loadConfig()
	if dir == "" {
		dir = cfg.Catalog.SeedDir
	}

	c, err := catalog.Load(dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("Failed to load catalog")
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.Ping(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Upserts go through the cache so stale course entries are invalidated.
	var courses repository.CourseRepository = repository.NewCourseRepository(db, log)
	if cfg.Redis.URL != "" {
		if client, err := repository.NewRedisClient(ctx, cfg.Redis.URL); err == nil {
			defer client.Close()
			courses = app.NewCourseRepository(db, client, cfg.Redis, log)
		} else {
			log.Warn().Err(err).Msg("Course cache unavailable, cached courses may be stale until they expire")
		}
	}

	users := repository.NewUserRepository(db, log)

	if err := catalog.Seed(ctx, c, courses, users, time.Now().UTC(), log); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed catalog")
	}
}
