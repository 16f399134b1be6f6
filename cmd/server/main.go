package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/hongminglow/erp-portal/internal/config"
	"github.com/hongminglow/erp-portal/internal/logging"
	"github.com/hongminglow/erp-portal/internal/metrics"
	"github.com/hongminglow/erp-portal/internal/revoke"
	"github.com/hongminglow/erp-portal/internal/server"
	"github.com/hongminglow/erp-portal/internal/storage"
	"github.com/hongminglow/erp-portal/internal/storage/memory"
	"github.com/hongminglow/erp-portal/internal/storage/postgres"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Setup(cfg.LogLevel, cfg.Production)
	if envErr != nil {
		log.Info().Msg("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	store := openStore(ctx, cfg)
	defer store.Close()

	revoked := openRevocations(ctx, cfg)

	if err := server.SeedAdmin(ctx, store, cfg.SeedAdminPassword); err != nil {
		log.Fatal().Err(err).Msg("seed admin")
	}

	srv := server.New(cfg, store, revoked, metrics.New())

	go func() {
		log.Info().Str("addr", cfg.HTTPAddress()).Msg("ERP portal API listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	if err := revoked.Close(); err != nil {
		log.Error().Err(err).Msg("close revocation store")
	}
}

func openStore(ctx context.Context, cfg config.Config) storage.Store {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set; using in-memory storage")
		return memory.NewStore()
	}
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("init database")
	}
	return store
}

func openRevocations(ctx context.Context, cfg config.Config) revoke.Store {
	if cfg.RedisURL == "" {
		return revoke.NewMemory()
	}
	rdb, err := revoke.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("init redis")
	}
	return rdb
}
