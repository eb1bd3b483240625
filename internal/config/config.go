// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"

	"github.com/olegiv/ocms-translate/internal/translator"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"OCMS_DB_PATH" envDefault:"./data/ocms.db"`
	ServerHost string `env:"OCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"OCMS_SERVER_PORT" envDefault:"8081"`
	Env        string `env:"OCMS_ENV" envDefault:"development"`
	LogLevel   string `env:"OCMS_LOG_LEVEL" envDefault:"info"`

	// APIToken protects the admin API with a bearer token when set.
	APIToken string `env:"OCMS_API_TOKEN"`

	// Cache configuration
	RedisURL    string `env:"OCMS_REDIS_URL"`                                 // Optional Redis URL for shared stats
	CachePrefix string `env:"OCMS_CACHE_PREFIX" envDefault:"ocms-translate:"` // Redis key prefix
	CacheTTL    int    `env:"OCMS_CACHE_TTL" envDefault:"30"`                 // Stats TTL in seconds

	// Translation provider
	Provider     string `env:"OCMS_TRANSLATE_PROVIDER" envDefault:"openai"`
	Model        string `env:"OCMS_TRANSLATE_MODEL"`
	OpenAIAPIKey string `env:"OCMS_OPENAI_API_KEY"`
	ClaudeAPIKey string `env:"OCMS_CLAUDE_API_KEY"`
	GroqAPIKey   string `env:"OCMS_GROQ_API_KEY"`
	OllamaURL    string `env:"OCMS_OLLAMA_URL" envDefault:"http://localhost:11434"`

	// Pipeline
	MaxRetries        int           `env:"OCMS_TRANSLATE_MAX_RETRIES" envDefault:"3"`
	BatchSize         int           `env:"OCMS_TRANSLATE_BATCH_SIZE" envDefault:"50"`
	Concurrency       int           `env:"OCMS_TRANSLATE_CONCURRENCY" envDefault:"2"`
	RateLimit         float64       `env:"OCMS_TRANSLATE_RATE_LIMIT" envDefault:"2"` // requests per second, 0 = unlimited
	ProcessingTimeout time.Duration `env:"OCMS_TRANSLATE_PROCESSING_TIMEOUT" envDefault:"10m"`
	PruneOrphans      bool          `env:"OCMS_TRANSLATE_PRUNE_ORPHANS" envDefault:"false"`
	KeepCompleted     time.Duration `env:"OCMS_TRANSLATE_KEEP_COMPLETED" envDefault:"24h"`
	UIStringsPath     string        `env:"OCMS_UI_STRINGS_PATH"`
	LockPath          string        `env:"OCMS_RECONCILE_LOCK_PATH" envDefault:"./data/reconcile.lock"`

	// Schedules (standard 5-field cron or descriptor). "off" disables the schedule.
	ReconcileSchedule string `env:"OCMS_RECONCILE_SCHEDULE" envDefault:"*/15 * * * *"`
	WorkerSchedule    string `env:"OCMS_WORKER_SCHEDULE" envDefault:"* * * * *"`
	ReclaimSchedule   string `env:"OCMS_RECLAIM_SCHEDULE" envDefault:"*/5 * * * *"`

	// Webhook notifications (disabled when OCMS_WEBHOOK_URL is empty)
	WebhookURL      string        `env:"OCMS_WEBHOOK_URL"`
	WebhookSecret   string        `env:"OCMS_WEBHOOK_SECRET"`
	WebhookEvents   []string      `env:"OCMS_WEBHOOK_EVENTS" envSeparator:","` // empty = all events
	WebhookDebounce time.Duration `env:"OCMS_WEBHOOK_DEBOUNCE" envDefault:"5s"`
	// Allow endpoints on loopback and private networks
	WebhookAllowPrivate bool `env:"OCMS_WEBHOOK_ALLOW_PRIVATE" envDefault:"false"`

	// Seeding configuration
	DoSeed   bool `env:"OCMS_DO_SEED" envDefault:"false"`   // Seed default languages
	DemoMode bool `env:"OCMS_DEMO_MODE" envDefault:"false"` // Seed sample host content
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// WebhooksEnabled returns true if a webhook endpoint is configured.
func (c Config) WebhooksEnabled() bool {
	return c.WebhookURL != ""
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns the stats cache TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ProviderAPIKey returns the API key of the selected provider.
func (c Config) ProviderAPIKey() string {
	switch c.Provider {
	case translator.ProviderOpenAI:
		return c.OpenAIAPIKey
	case translator.ProviderClaude:
		return c.ClaudeAPIKey
	case translator.ProviderGroq:
		return c.GroqAPIKey
	default:
		return ""
	}
}

// TranslatorConfig returns the provider configuration.
func (c Config) TranslatorConfig() translator.Config {
	return translator.Config{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    c.ProviderAPIKey(),
		OllamaURL: c.OllamaURL,
	}
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	for _, spec := range []*string{&cfg.ReconcileSchedule, &cfg.WorkerSchedule, &cfg.ReclaimSchedule} {
		if strings.EqualFold(strings.TrimSpace(*spec), "off") {
			*spec = ""
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if needsAPIKey(cfg.Provider) && cfg.ProviderAPIKey() == "" {
		slog.Warn("no API key configured for translation provider; workers will fail to start",
			"provider", cfg.Provider)
	}
	return cfg, nil
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	var errs []error

	if !translator.IsValidProvider(c.Provider) {
		errs = append(errs, fmt.Errorf("OCMS_TRANSLATE_PROVIDER %q is not one of %s",
			c.Provider, strings.Join(translator.Providers, ", ")))
	}
	if c.MaxRetries < 1 {
		errs = append(errs, errors.New("OCMS_TRANSLATE_MAX_RETRIES must be at least 1"))
	}
	if c.BatchSize < 1 {
		errs = append(errs, errors.New("OCMS_TRANSLATE_BATCH_SIZE must be positive"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, errors.New("OCMS_TRANSLATE_CONCURRENCY must be positive"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("OCMS_TRANSLATE_RATE_LIMIT must not be negative"))
	}
	if c.ProcessingTimeout <= 0 {
		errs = append(errs, errors.New("OCMS_TRANSLATE_PROCESSING_TIMEOUT must be positive"))
	}
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("OCMS_SERVER_PORT %d is out of range", c.ServerPort))
	}

	if c.WebhookURL != "" {
		if u, err := url.Parse(c.WebhookURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("OCMS_WEBHOOK_URL %q must be an absolute http(s) URL", c.WebhookURL))
		}
	}
	if c.WebhookDebounce < 0 {
		errs = append(errs, errors.New("OCMS_WEBHOOK_DEBOUNCE must not be negative"))
	}

	schedules := []struct{ key, spec string }{
		{"OCMS_RECONCILE_SCHEDULE", c.ReconcileSchedule},
		{"OCMS_WORKER_SCHEDULE", c.WorkerSchedule},
		{"OCMS_RECLAIM_SCHEDULE", c.ReclaimSchedule},
	}
	for _, s := range schedules {
		if s.spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(s.spec); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", s.key, s.spec, err))
		}
	}

	return errors.Join(errs...)
}

func needsAPIKey(provider string) bool {
	switch provider {
	case translator.ProviderOpenAI, translator.ProviderClaude, translator.ProviderGroq:
		return true
	}
	return false
}
