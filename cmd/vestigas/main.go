// Command vestigas runs the delivery ingestion API: it fetches delivery
// records from partner feeds, normalizes and scores them, and serves job and
// delivery queries over HTTP.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/krishnx/vestigas/config"
	"github.com/krishnx/vestigas/internal/bootstrap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting vestigas service",
		"http_addr", cfg.HTTP.Addr,
		"db_enabled", cfg.Postgres.Enabled,
		"partner_a", cfg.Partners.PartnerAURL != "",
		"partner_b", cfg.Partners.PartnerBURL != "")

	db, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close database failed", "error", cerr)
			}
		}()
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	if db != nil && cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	server := bootstrap.StartHTTPServer(&bootstrap.HTTPServerConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.InfoContext(ctx, "shutting down")
	if err := bootstrap.ShutdownHTTPServer(ctx, server, shutdownTimeout); err != nil {
		logger.ErrorContext(ctx, "http shutdown failed", "error", err)
	}
	// Let in-flight ingestion pipelines reach a terminal status.
	services.Ingest.Wait()

	if err := services.Statsd.Close(); err != nil {
		logger.ErrorContext(ctx, "statsd close failed", "error", err)
	}

	return nil
}

func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, *redis.Client, error) {
	var (
		db  *sql.DB
		err error
	)
	if cfg.Postgres.Enabled {
		db, err = bootstrap.ConnectDB(bootstrap.DatabaseConfig{
			DBConfig: cfg.Postgres,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
	} else if !cfg.IsDev {
		return nil, nil, fmt.Errorf("database disabled outside development mode")
	}

	var redisClient *redis.Client
	if cfg.Redis.URI != "" {
		redisClient, err = bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
			RedisConfig: cfg.Redis,
			Logger:      logger,
		})
		if err != nil {
			if db != nil {
				if cerr := db.Close(); cerr != nil {
					logger.ErrorContext(ctx, "close database after redis connect failure", "error", cerr)
				}
			}
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	return db, redisClient, nil
}
