package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/riftrecap/riftrecap/cache"
	"github.com/riftrecap/riftrecap/fetch"
	"github.com/riftrecap/riftrecap/internal/config"
	"github.com/riftrecap/riftrecap/internal/jobs"
	"github.com/riftrecap/riftrecap/internal/llm"
	"github.com/riftrecap/riftrecap/internal/notify"
	"github.com/riftrecap/riftrecap/internal/pipeline"
	"github.com/riftrecap/riftrecap/internal/prompt"
	"github.com/riftrecap/riftrecap/internal/report"
	"github.com/riftrecap/riftrecap/riot"
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
	if !cfg.HasAI() {
		logger.Fatal().Msg("AI_API_KEY is required")
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

	runner, err := buildRunner(cfg, reports, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build pipeline")
	}

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency:    8,
		StrictPriority: false,
		Queues: map[string]int{
			"analyze": 10, // higher priority
			"default": 5,  // default priority
		},
	})
	mux := asynq.NewServeMux()

	mux.HandleFunc(jobs.TaskAnalyzeSummoner, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.AnalyzeSummonerPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			logger.Error().Err(err).Msg("bad task payload, dropping")
			return nil
		}

		logger.Info().Str("summoner", p.SummonerName).Msg("analysis started")
		start := time.Now()
		err := runner.AnalyzeSummoner(ctx, p.SummonerName, p.MatchCount)
		duration := time.Since(start)

		if err != nil {
			if retryable(err) {
				logger.Warn().Err(err).Dur("duration", duration).Str("summoner", p.SummonerName).Msg("analysis failed, will retry")
				return err
			}
			logger.Error().Err(err).Dur("duration", duration).Str("summoner", p.SummonerName).Msg("analysis failed, dropping task")
			return nil
		}
		logger.Info().Dur("duration", duration).Str("summoner", p.SummonerName).Msg("analysis done")
		return nil
	})

	logger.Info().Str("redis", cfg.RedisAddr).Msg("worker running")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}

func buildRunner(cfg *config.Config, reports *report.Store, logger zerolog.Logger) (*pipeline.Runner, error) {
	store, err := cache.New(cfg.Cache.Dir,
		cache.WithDefaultTTL(cfg.Cache.TTL),
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
		cache.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.SweepOnStart {
		store.Sweep()
	}

	policy := fetch.DefaultPolicy()
	policy.MaxRetries = cfg.Riot.MaxRetries
	fetcher, err := fetch.New(cfg.Riot.BaseURL, cfg.Riot.APIKey, store,
		fetch.WithPolicy(policy),
		fetch.WithRateLimit(cfg.Riot.RatePerSec, cfg.Riot.RateBurst),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	riotClient, err := riot.New(fetcher, riot.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	model, err := llm.New(cfg.AI.BaseURL, cfg.AI.APIKey,
		llm.WithModel(cfg.AI.Model),
		llm.WithSystemPrompt(prompt.SystemPrompt),
		llm.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return pipeline.New(riotClient, model, buildSender(cfg, logger),
		pipeline.WithReportStore(reports),
		pipeline.WithMatchCount(cfg.Riot.MatchCount),
		pipeline.WithLogger(logger),
	)
}

func buildSender(cfg *config.Config, logger zerolog.Logger) notify.Sender {
	if cfg.HasWeChat() {
		opts := []notify.WeChatOption{notify.WithLogger(logger)}
		if cfg.WeChat.GroupName != "" {
			opts = append(opts, notify.WithMentionAll())
		}
		sender, err := notify.NewWeChatSender(cfg.WeChat.WebhookURL, opts...)
		if err == nil {
			return sender
		}
		logger.Warn().Err(err).Msg("wechat sender unavailable, printing to stdout")
	}
	return &notify.StdoutSender{}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(lvl)
}

// retryable decides whether a failed analysis should go back on the
// queue. Upstream exhaustion, rate limits, and network trouble are
// transient; client errors (unknown names, rejected requests) never
// heal on their own.
func retryable(err error) bool {
	if fetch.IsClientError(err) {
		return false
	}
	if errors.Is(err, fetch.ErrRetriesExhausted) || fetch.IsRateLimited(err) {
		return true
	}
	var netErr *fetch.NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	// Model API failures only carry their HTTP status in the message.
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection")
}
