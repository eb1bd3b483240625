// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs pipeline tasks on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is the body of a scheduled job.
type Task func(ctx context.Context) error

// Scheduler runs registered tasks on their cron schedules. Overlapping runs
// of the same task are skipped.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	logger   *slog.Logger
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler. Every run gets a context that is cancelled by
// Stop and expires after timeout (zero means no limit).
func New(registry *Registry, timeout time.Duration, logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		registry: registry,
		logger:   logger,
		timeout:  timeout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Registry returns the job registry.
func (s *Scheduler) Registry() *Registry { return s.registry }

// Add schedules task under name. An empty schedule registers the task for
// manual triggering only.
func (s *Scheduler) Add(name, description, schedule string, task Task) error {
	run := func() error { return s.run(name, task) }
	jobFunc := func() {
		// Errors are logged by run.
		_ = run()
	}

	var entryID cron.EntryID
	if schedule != "" {
		id, err := s.cron.AddFunc(schedule, jobFunc)
		if err != nil {
			return fmt.Errorf("scheduling %s with %q: %w", name, schedule, err)
		}
		entryID = id
	}

	if err := s.registry.Register(name, description, schedule, s.cron, entryID, run); err != nil {
		if schedule != "" {
			s.cron.Remove(entryID)
		}
		return err
	}
	return nil
}

func (s *Scheduler) run(name string, task Task) error {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := task(ctx)
	s.registry.recordRun(name, start, err)
	if err != nil {
		s.logger.Error("scheduled job failed", "category", "scheduler", "job", name, "error", err)
		return err
	}
	s.logger.Debug("scheduled job finished", "job", name, "duration", time.Since(start))
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "category", "scheduler", "error", err)...)
}
