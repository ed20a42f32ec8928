// cmd/api/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/riftrecap/riftrecap/cache"
	"github.com/riftrecap/riftrecap/internal/config"
	"github.com/riftrecap/riftrecap/internal/http/routes"
	"github.com/riftrecap/riftrecap/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := zerolog.New(os.Stderr)
		logger.Fatal().Err(err).Msg("load configuration")
	}
	logger := newLogger(cfg.LogLevel)

	if err := cfg.ValidateServer(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	reports := report.NewStore(pool)
	if err := reports.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("prepare reports schema")
	}

	store, err := cache.New(cfg.Cache.Dir,
		cache.WithDefaultTTL(cfg.Cache.TTL),
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
		cache.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("open cache")
	}

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Error().Err(err).Msg("close queue client")
		}
	}()

	s := routes.New(routes.ServerOptions{
		Queue:   queue,
		Reports: reports,
		Cache:   store,
		Log:     logger,
		APIKey:  cfg.AdminAPIKey,
	})
	h := hlog.NewHandler(logger)(s.Router)

	addr := ":" + strconv.Itoa(cfg.Port)
	logger.Info().Str("addr", addr).Msg("api listening")
	srv := &http.Server{Addr: addr, Handler: h}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(lvl)
}
