// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/olegiv/ocms-translate/internal/cache"
	"github.com/olegiv/ocms-translate/internal/catalog"
	"github.com/olegiv/ocms-translate/internal/config"
	"github.com/olegiv/ocms-translate/internal/logging"
	"github.com/olegiv/ocms-translate/internal/runlock"
	"github.com/olegiv/ocms-translate/internal/service"
	"github.com/olegiv/ocms-translate/internal/store"
	"github.com/olegiv/ocms-translate/internal/translator"
	"github.com/olegiv/ocms-translate/internal/webhook"
)

// errProviderNotConfigured is returned by every translation when the
// provider could not be created and the command does not translate.
var errProviderNotConfigured = errors.New("translation provider is not configured")

// app is the wired pipeline shared by all commands.
type app struct {
	cfg      *config.Config
	db       *sql.DB
	logger   *slog.Logger
	cache    cache.Cacher
	events   *service.EventService
	registry *service.LanguageRegistry
	svc      *service.TranslationService

	webhooks  *webhook.Dispatcher
	debouncer *webhook.Debouncer
}

type appOptions struct {
	// requireTranslator fails startup when the provider cannot be created.
	requireTranslator bool
	logOutput         io.Writer
}

// newApp opens the database and wires the pipeline.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	if opts.logOutput == nil {
		opts.logOutput = os.Stderr
	}
	textHandler := slog.NewTextHandler(opts.logOutput, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger := slog.New(textHandler)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	logger.Debug("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	a := &app{cfg: cfg, db: db}

	if err := store.Migrate(db); err != nil {
		a.close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	// WARN and ERROR records also go to the event log.
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	a.logger = logger

	if err := store.Seed(ctx, db, cfg.DoSeed); err != nil {
		a.close()
		return nil, fmt.Errorf("seeding database: %w", err)
	}
	if err := store.SeedDemo(ctx, db, cfg.DemoMode); err != nil {
		a.close()
		return nil, fmt.Errorf("seeding demo content: %w", err)
	}

	sources := catalog.DefaultTableSources(db)
	if cfg.UIStringsPath != "" {
		sources = append(sources, catalog.NewYAMLSource(cfg.UIStringsPath))
	}
	enum, err := catalog.NewEnumerator(logger, sources...)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("registering catalog sources: %w", err)
	}

	lock, err := runlock.New(cfg.LockPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("creating reconcile lock: %w", err)
	}

	tr, err := translator.New(cfg.TranslatorConfig())
	if err != nil {
		if opts.requireTranslator {
			a.close()
			return nil, fmt.Errorf("creating translator: %w", err)
		}
		logger.Debug("translator unavailable", "provider", cfg.Provider, "error", err)
		fake := translator.NewFake()
		fake.Func = func(string, string) (string, error) { return "", errProviderNotConfigured }
		tr = fake
	}

	a.cache = cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
	}, logger)

	a.events = service.NewEventService(db, logger)
	a.registry = service.NewLanguageRegistry(db, logger)
	orch := service.NewOrchestrator(db, a.registry, enum, lock, service.OrchestratorConfig{
		PruneOrphans: cfg.PruneOrphans,
	}, logger)
	worker := service.NewWorker(db, tr, service.WorkerConfig{
		MaxRetries:        cfg.MaxRetries,
		Concurrency:       cfg.Concurrency,
		RateLimit:         cfg.RateLimit,
		ProcessingTimeout: cfg.ProcessingTimeout,
	}, logger)
	a.svc = service.NewTranslationService(db, a.registry, orch, worker, a.events, a.cache,
		service.TranslationServiceConfig{
			BatchSize:     cfg.BatchSize,
			KeepCompleted: cfg.KeepCompleted,
			StatsTTL:      cfg.CacheTTLDuration(),
		}, logger)

	if cfg.WebhooksEnabled() {
		a.startWebhooks(ctx)
	}

	logger.Debug("pipeline ready",
		"provider", tr.ID(),
		"content_types", enum.ContentTypes(),
		"lock", lock.Path(),
	)
	return a, nil
}

// startWebhooks routes pipeline notifications to the configured endpoint.
func (a *app) startWebhooks(ctx context.Context) {
	a.webhooks = webhook.NewDispatcher(webhook.Config{
		URL:    a.cfg.WebhookURL,
		Secret: a.cfg.WebhookSecret,
		Events: a.cfg.WebhookEvents,

		AllowPrivate: a.cfg.WebhookAllowPrivate,
	}, a.logger)
	a.webhooks.Start(ctx)

	if a.cfg.WebhookDebounce > 0 {
		a.debouncer = webhook.NewDebouncer(a.webhooks, webhook.DebounceConfig{
			Interval: a.cfg.WebhookDebounce,
			MaxWait:  12 * a.cfg.WebhookDebounce,
		})
		a.svc.SetNotifier(a.debouncer)
		return
	}
	a.svc.SetNotifier(a.webhooks)
}

// close flushes webhooks and releases the cache and the database.
func (a *app) close() {
	if a.debouncer != nil {
		a.debouncer.Stop()
	}
	if a.webhooks != nil {
		a.webhooks.Stop()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Warn("error closing cache", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}
}

// withApp runs fn against a wired app and closes it afterwards.
func (cc *commandContext) withApp(ctx context.Context, opts appOptions, fn func(a *app) error) error {
	a, err := newApp(ctx, cc.cfg, opts)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

// shortDuration formats d for table output.
func shortDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}
