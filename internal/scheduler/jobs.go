// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"

	"github.com/olegiv/ocms-translate/internal/service"
)

// Names of the pipeline jobs.
const (
	JobReconcile = "reconcile"
	JobWorker    = "worker"
	JobReclaim   = "reclaim"
)

// Schedules holds the cron expressions of the pipeline jobs. An empty
// expression leaves the job available for manual triggering only.
type Schedules struct {
	Reconcile string
	Worker    string
	Reclaim   string
}

// Pipeline is the part of the translation service the scheduler drives.
type Pipeline interface {
	ReconcileAll(ctx context.Context) (*service.ReconcileResult, error)
	ProcessQueue(ctx context.Context, limit int) (*service.BatchResult, error)
	ReclaimStale(ctx context.Context) (int, error)
	PruneCompleted(ctx context.Context) (int64, error)
}

// RegisterPipeline adds the reconcile, worker and reclaim jobs.
func RegisterPipeline(s *Scheduler, p Pipeline, sched Schedules) error {
	jobs := []struct {
		name, description, schedule string
		task                        Task
	}{
		{
			JobReconcile,
			"Scan content and enqueue missing or outdated translations",
			sched.Reconcile,
			func(ctx context.Context) error {
				_, err := p.ReconcileAll(ctx)
				if errors.Is(err, service.ErrReconcileInProgress) {
					s.logger.Info("reconciliation skipped, another run holds the lock")
					return nil
				}
				return err
			},
		},
		{
			JobWorker,
			"Translate a batch of pending jobs",
			sched.Worker,
			func(ctx context.Context) error {
				_, err := p.ProcessQueue(ctx, 0)
				return err
			},
		},
		{
			JobReclaim,
			"Requeue timed-out jobs and prune old completed jobs",
			sched.Reclaim,
			func(ctx context.Context) error {
				_, reclaimErr := p.ReclaimStale(ctx)
				_, pruneErr := p.PruneCompleted(ctx)
				return errors.Join(reclaimErr, pruneErr)
			},
		},
	}

	for _, j := range jobs {
		if err := s.Add(j.name, j.description, j.schedule, j.task); err != nil {
			return err
		}
	}
	return nil
}
