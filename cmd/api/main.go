package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"videotube/internal/cache"
	"videotube/internal/config"
	"videotube/internal/database"
	"videotube/internal/handlers"
	"videotube/internal/jobs"
	"videotube/internal/log"
	"videotube/internal/queue"
	"videotube/internal/repository"
	"videotube/internal/security"
	"videotube/internal/server"
	"videotube/internal/service"
	"videotube/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel)

	ctx := context.Background()

	if cfg.Postgres.AutoMigrate {
		if err := database.Migrate(cfg.Postgres.DSN); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
	}

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage, cfg.Media.UploadTimeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	if err := os.MkdirAll(cfg.Media.TempDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.Media.TempDir).Msg("failed to create temp dir")
	}

	users := repository.NewUserRepository(dbPool)
	videos := repository.NewVideoRepository(dbPool)
	cleanup := queue.NewPublisher(redisClient, cfg.Queue.Stream)
	tokens := security.NewTokenIssuer(cfg.Security)

	handlerSet := handlers.NewHandlerSet(logger, cfg, handlers.Dependencies{
		Auth:     service.NewAuthService(users, tokens, objectStore, cleanup, logger),
		Profiles: service.NewProfileService(users, objectStore, cleanup, logger),
		Videos:   service.NewVideoService(videos, objectStore, cleanup, logger),
		Checks: map[string]handlers.PingFunc{
			"database": dbPool.Ping,
			"cache":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			"storage":  objectStore.Ping,
		},
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(cfg.Media.TempDir, cfg.Media.TempMaxAge, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("scheduler did not stop in time")
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
