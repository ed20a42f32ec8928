// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Riot   RiotConfig
	Cache  CacheConfig
	AI     AIConfig
	WeChat WeChatConfig

	DatabaseURL string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`
}

// RiotConfig covers the upstream match API and how hard to lean on it.
type RiotConfig struct {
	APIKey        string   `env:"RIOT_API_KEY"`
	BaseURL       string   `env:"RIOT_API_BASE_URL" envDefault:"https://kr.api.riotgames.com"`
	SummonerNames []string `env:"SUMMONER_NAMES" envSeparator:","`
	MatchCount    int      `env:"MATCH_COUNT" envDefault:"5"`
	RatePerSec    float64  `env:"RIOT_RATE_PER_SEC" envDefault:"10"`
	RateBurst     int      `env:"RIOT_RATE_BURST" envDefault:"20"`
	MaxRetries    int      `env:"RIOT_MAX_RETRIES" envDefault:"3"`
}

// CacheConfig bounds the on-disk response cache.
type CacheConfig struct {
	Dir          string        `env:"CACHE_DIR" envDefault:".cache"`
	TTL          time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	MaxEntries   int           `env:"CACHE_MAX_ENTRIES" envDefault:"1000"`
	SweepOnStart bool          `env:"CACHE_SWEEP_ON_START" envDefault:"true"`
}

// AIConfig covers the chat-completions endpoint used for verdicts.
type AIConfig struct {
	APIKey  string `env:"AI_API_KEY"`
	BaseURL string `env:"AI_API_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model   string `env:"AI_MODEL" envDefault:"gpt-3.5-turbo"`
}

// WeChatConfig covers the group webhook verdicts are delivered to.
type WeChatConfig struct {
	WebhookURL string `env:"WECHAT_WEBHOOK_URL"`
	GroupName  string `env:"WECHAT_GROUP_NAME"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// Summoners returns the configured summoner names, trimmed, empties dropped.
func (c *Config) Summoners() []string {
	out := make([]string, 0, len(c.Riot.SummonerNames))
	for _, n := range c.Riot.SummonerNames {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// HasAI returns true if verdict generation is configured.
func (c *Config) HasAI() bool {
	return c.AI.APIKey != ""
}

// HasWeChat returns true if group delivery is configured.
func (c *Config) HasWeChat() bool {
	return c.WeChat.WebhookURL != ""
}

// HasDatabase returns true if report persistence is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// Validate checks everything the analysis pipeline needs.
func (c *Config) Validate() error {
	if c.Riot.APIKey == "" {
		return errors.New("RIOT_API_KEY is required")
	}
	if len(c.Summoners()) == 0 {
		return errors.New("SUMMONER_NAMES must name at least one summoner")
	}
	if c.Riot.MatchCount <= 0 {
		return fmt.Errorf("MATCH_COUNT must be positive, got %d", c.Riot.MatchCount)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be positive, got %d", c.Cache.MaxEntries)
	}
	return nil
}

// ValidateServer additionally checks what the queue worker and HTTP API
// need on top of the pipeline configuration.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required")
	}
	return nil
}
