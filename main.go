package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/riftrecap/riftrecap/cache"
	"github.com/riftrecap/riftrecap/fetch"
	"github.com/riftrecap/riftrecap/internal/config"
	"github.com/riftrecap/riftrecap/internal/llm"
	"github.com/riftrecap/riftrecap/internal/notify"
	"github.com/riftrecap/riftrecap/internal/pipeline"
	"github.com/riftrecap/riftrecap/internal/prompt"
	"github.com/riftrecap/riftrecap/internal/report"
	"github.com/riftrecap/riftrecap/riot"
)

func main() {
	if err := runCLI(os.Args[1:]); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runCLI(args []string) error {
	if len(args) == 0 {
		return runAnalysis()
	}

	switch args[0] {
	case "help", "--help", "-h":
		printUsage()
	case "version", "--version", "-v":
		fmt.Println("riftrecap v0.1.0")
	case "analyze":
		return runAnalysis()
	case "sweep":
		return runSweep()
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}

	return nil
}

func printUsage() {
	fmt.Println("Usage: riftrecap [command]")
	fmt.Println("Commands:")
	fmt.Println("  analyze             Analyze recent matches for the configured summoners (default)")
	fmt.Println("  sweep               Remove expired response cache entries")
	fmt.Println("  help, --help, -h    Show this help message")
	fmt.Println("Environment:")
	fmt.Println("  RIOT_API_KEY        Riot API key (required)")
	fmt.Println("  SUMMONER_NAMES      Comma-separated summoner names (required)")
	fmt.Println("  AI_API_KEY          OpenAI-compatible API key (required for analyze)")
	fmt.Println("  WECHAT_WEBHOOK_URL  WeChat work webhook URL (optional, stdout otherwise)")
	fmt.Println("  DATABASE_URL        Postgres DSN for report storage (optional)")
	fmt.Println("  CACHE_DIR           Response cache directory (default .cache)")
}

// runAnalysis is the run-once pipeline: every configured summoner gets
// their recent matches fetched, scored, judged by the model, and the
// verdicts delivered.
func runAnalysis() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.HasAI() {
		return errors.New("AI_API_KEY is required for analysis")
	}

	logger := newLogger(cfg.LogLevel)
	ctx := context.Background()

	store, err := openCache(cfg, logger)
	if err != nil {
		return err
	}
	if cfg.Cache.SweepOnStart {
		if n := store.Sweep(); n > 0 {
			logger.Info().Int("removed", n).Msg("swept expired cache entries")
		}
	}

	policy := fetch.DefaultPolicy()
	policy.MaxRetries = cfg.Riot.MaxRetries
	fetcher, err := fetch.New(cfg.Riot.BaseURL, cfg.Riot.APIKey, store,
		fetch.WithPolicy(policy),
		fetch.WithRateLimit(cfg.Riot.RatePerSec, cfg.Riot.RateBurst),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("build fetcher: %w", err)
	}

	riotClient, err := riot.New(fetcher, riot.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("build riot client: %w", err)
	}

	model, err := llm.New(cfg.AI.BaseURL, cfg.AI.APIKey,
		llm.WithModel(cfg.AI.Model),
		llm.WithSystemPrompt(prompt.SystemPrompt),
		llm.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("build model client: %w", err)
	}

	opts := []pipeline.Option{
		pipeline.WithMatchCount(cfg.Riot.MatchCount),
		pipeline.WithLogger(logger),
	}
	if cfg.HasDatabase() {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		reports := report.NewStore(pool)
		if err := reports.EnsureSchema(ctx); err != nil {
			return err
		}
		opts = append(opts, pipeline.WithReportStore(reports))
	}

	runner, err := pipeline.New(riotClient, model, buildSender(cfg, logger), opts...)
	if err != nil {
		return err
	}

	summoners := cfg.Summoners()
	failed := 0
	for _, name := range summoners {
		if err := runner.AnalyzeSummoner(ctx, name, cfg.Riot.MatchCount); err != nil {
			failed++
			logger.Error().Err(err).Str("summoner", name).Msg("summoner analysis failed")
		}
	}
	if failed == len(summoners) {
		return fmt.Errorf("analysis failed for all %d summoners", failed)
	}
	return nil
}

// runSweep prunes expired cache entries and exits.
func runSweep() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := openCache(cfg, newLogger(cfg.LogLevel))
	if err != nil {
		return err
	}
	removed := store.Sweep()
	fmt.Printf("removed %d expired entries, %d remain\n", removed, store.Size())
	return nil
}

func openCache(cfg *config.Config, logger zerolog.Logger) (*cache.Store, error) {
	store, err := cache.New(cfg.Cache.Dir,
		cache.WithDefaultTTL(cfg.Cache.TTL),
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
		cache.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return store, nil
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
