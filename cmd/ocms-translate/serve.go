// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/ocms-translate/internal/handler/api"
	"github.com/olegiv/ocms-translate/internal/scheduler"
)

func newServeCommand(cc *commandContext) *cobra.Command {
	var noScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API and the scheduled pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return cc.withApp(ctx, appOptions{requireTranslator: true}, func(a *app) error {
				return serve(ctx, a, !noScheduler)
			})
		},
	}
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Serve the API without running scheduled jobs")
	return cmd
}

func serve(ctx context.Context, a *app, runScheduler bool) error {
	cfg := a.cfg

	registry := scheduler.NewRegistry(scheduler.DefaultTriggerInterval, a.logger)
	sched := scheduler.New(registry, cfg.ProcessingTimeout, a.logger)
	if err := scheduler.RegisterPipeline(sched, a.svc, scheduler.Schedules{
		Reconcile: cfg.ReconcileSchedule,
		Worker:    cfg.WorkerSchedule,
		Reclaim:   cfg.ReclaimSchedule,
	}); err != nil {
		return fmt.Errorf("registering scheduled jobs: %w", err)
	}
	if runScheduler {
		sched.Start()
		defer sched.Stop()
	}

	h := api.NewHandler(api.Deps{
		DB:      a.db,
		Service: a.svc,
		Events:  a.events,
		Jobs:    registry,
		Version: versionInfo(),
		Logger:  a.logger,
	})
	router := api.NewRouter(h, api.RouterOptions{
		APIToken:       cfg.APIToken,
		RateLimit:      100,
		RateBurst:      200,
		RequestTimeout: cfg.ProcessingTimeout,
	})

	if cfg.APIToken == "" && !cfg.IsDevelopment() {
		a.logger.Warn("admin API is running without authentication, set OCMS_API_TOKEN", "category", "system")
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.ProcessingTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", appVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
