package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/natty6418/task-flow-sub000/pkg/config"
	"github.com/natty6418/task-flow-sub000/pkg/database"
	"github.com/natty6418/task-flow-sub000/pkg/diff"
	"github.com/natty6418/task-flow-sub000/pkg/handlers"
	"github.com/natty6418/task-flow-sub000/pkg/logging"
	"github.com/natty6418/task-flow-sub000/pkg/middleware"
	"github.com/natty6418/task-flow-sub000/pkg/repositories"
	"github.com/natty6418/task-flow-sub000/pkg/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("target", logging.SanitizeConnectionString(cfg.Database.URL())),
			zap.Error(err))
	}
	defer db.Close()

	migrationDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	migrationDB.Close() //nolint:errcheck

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	activityRepo := repositories.NewActivityRepository(db.Pool)
	lookups := repositories.NewLookupRepository(db.Pool)
	resolver := services.NewCachedResolver(
		services.NewStoreResolver(lookups),
		redisClient,
		time.Duration(cfg.Redis.NameCacheTTLMinutes)*time.Minute,
		logger,
	)
	thresholds := diff.Thresholds{
		StorageDiff:      cfg.Diff.StorageThresholdChars,
		CompactNarration: cfg.Diff.NarrationThresholdChars,
	}
	activityService := services.NewActivityService(activityRepo, resolver, thresholds, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewActivityHandler(activityService, logger).RegisterRoutes(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting activity engine",
		zap.String("addr", addr),
		zap.String("env", cfg.Env))
	if err := http.ListenAndServe(addr, middleware.RequestLogger(logger)(mux)); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
