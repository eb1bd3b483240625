// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

// Registry errors.
var (
	ErrJobNotFound        = errors.New("scheduled job not found")
	ErrDuplicateJob       = errors.New("scheduled job already registered")
	ErrTriggerRateLimited = errors.New("job was triggered too recently")
)

// DefaultTriggerInterval is the minimum time between manual triggers of one job.
const DefaultTriggerInterval = 10 * time.Second

// registeredJob holds metadata about a registered cron job.
type registeredJob struct {
	name         string
	description  string
	schedule     string
	cronInstance *cron.Cron
	entryID      cron.EntryID
	triggerFunc  func() error
	limiter      *rate.Limiter

	lastRun      time.Time
	lastDuration time.Duration
	lastError    string
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Schedule     string        `json:"schedule"`
	LastRun      time.Time     `json:"last_run,omitzero"`
	LastDuration time.Duration `json:"last_duration"`
	LastError    string        `json:"last_error,omitempty"`
	NextRun      time.Time     `json:"next_run,omitzero"`
}

// Registry tracks scheduled jobs and allows manual triggering.
type Registry struct {
	logger          *slog.Logger
	triggerInterval time.Duration

	mu   sync.RWMutex
	jobs map[string]*registeredJob
}

// NewRegistry creates a registry. Manual triggers of the same job are
// limited to one per triggerInterval; zero uses DefaultTriggerInterval.
func NewRegistry(triggerInterval time.Duration, logger *slog.Logger) *Registry {
	if triggerInterval <= 0 {
		triggerInterval = DefaultTriggerInterval
	}
	return &Registry{
		logger:          logger,
		triggerInterval: triggerInterval,
		jobs:            make(map[string]*registeredJob),
	}
}

// Register records a job after it has been added to a cron instance.
// cronInst may be nil for jobs that only run on demand.
func (r *Registry) Register(name, description, schedule string, cronInst *cron.Cron, entryID cron.EntryID, triggerFunc func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	r.jobs[name] = &registeredJob{
		name:         name,
		description:  description,
		schedule:     schedule,
		cronInstance: cronInst,
		entryID:      entryID,
		triggerFunc:  triggerFunc,
		limiter:      rate.NewLimiter(rate.Every(r.triggerInterval), 1),
	}

	r.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

// List returns all registered jobs sorted by name.
func (r *Registry) List() []JobInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]JobInfo, 0, len(r.jobs))
	for _, job := range r.jobs {
		info := JobInfo{
			Name:         job.name,
			Description:  job.description,
			Schedule:     job.schedule,
			LastRun:      job.lastRun,
			LastDuration: job.lastDuration,
			LastError:    job.lastError,
		}
		if job.cronInstance != nil && job.schedule != "" {
			info.NextRun = job.cronInstance.Entry(job.entryID).Next
		}
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// TriggerNow runs a job immediately and returns its error.
func (r *Registry) TriggerNow(name string) error {
	r.mu.RLock()
	job, ok := r.jobs[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if !job.limiter.Allow() {
		return fmt.Errorf("%w: %s", ErrTriggerRateLimited, name)
	}

	r.logger.Info("manually triggering job", "name", name)
	return job.triggerFunc()
}

func (r *Registry) recordRun(name string, start time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[name]
	if !ok {
		return
	}
	job.lastRun = start
	job.lastDuration = time.Since(start)
	job.lastError = ""
	if err != nil {
		job.lastError = err.Error()
	}
}
