// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/olegiv/ocms-translate/internal/cache"
	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/store"
)

const (
	statsCacheKey    = "translation:stats"
	statsCachePrefix = "translation:"
)

// TranslationServiceConfig configures a TranslationService.
type TranslationServiceConfig struct {
	// BatchSize is the number of jobs ProcessQueue handles when no limit is given.
	BatchSize int
	// KeepCompleted is how long COMPLETED jobs are kept before pruning.
	KeepCompleted time.Duration
	// StatsTTL is how long dashboard stats are cached.
	StatsTTL time.Duration
}

// TranslationService is the admin surface of the pipeline: queries,
// statistics and job management.
type TranslationService struct {
	db           *sql.DB
	queries      *store.Queries
	registry     *LanguageRegistry
	orchestrator *Orchestrator
	worker       *Worker
	events       *EventService
	cache        cache.Cacher
	stats        *cache.TypedCache[Stats]
	cfg          TranslationServiceConfig
	notifier     Notifier
	logger       *slog.Logger
	now          Clock
}

// Pipeline notification event types.
const (
	EventReconciled     = "translation.reconciled"
	EventBatchCompleted = "translation.batch_completed"
	EventJobsFailed     = "translation.jobs_failed"
)

// Notifier receives pipeline notifications. Notify must not block.
type Notifier interface {
	Notify(ctx context.Context, eventType string, data any)
}

// NewTranslationService creates a TranslationService. c may be nil to disable caching.
func NewTranslationService(
	db *sql.DB,
	registry *LanguageRegistry,
	orchestrator *Orchestrator,
	worker *Worker,
	events *EventService,
	c cache.Cacher,
	cfg TranslationServiceConfig,
	logger *slog.Logger,
) *TranslationService {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 50
	}
	if cfg.KeepCompleted <= 0 {
		cfg.KeepCompleted = 24 * time.Hour
	}
	if cfg.StatsTTL <= 0 {
		cfg.StatsTTL = 30 * time.Second
	}

	s := &TranslationService{
		db:           db,
		queries:      store.New(db),
		registry:     registry,
		orchestrator: orchestrator,
		worker:       worker,
		events:       events,
		cache:        c,
		cfg:          cfg,
		logger:       logger,
		now:          utcNow,
	}
	if c != nil {
		s.stats = cache.NewTypedCache[Stats](c, cfg.StatsTTL)
	}
	return s
}

// SetNotifier registers n for pipeline notifications. nil disables them.
func (s *TranslationService) SetNotifier(n Notifier) { s.notifier = n }

func (s *TranslationService) notify(ctx context.Context, eventType string, data any) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, eventType, data)
	}
}

// Languages returns the language registry.
func (s *TranslationService) Languages() *LanguageRegistry { return s.registry }

// TranslationQuery filters and paginates ListTranslations.
type TranslationQuery struct {
	LanguageID  string
	Status      string
	ContentType string
	IsOutdated  *bool
	Pagination
}

// TranslationPage is a page of translations.
type TranslationPage struct {
	Items      []store.Translation `json:"items"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
	TotalPages int                 `json:"total_pages"`
}

// ListTranslations returns translations, most recently updated first.
func (s *TranslationService) ListTranslations(ctx context.Context, q TranslationQuery) (*TranslationPage, error) {
	if q.Status != "" && q.Status != model.TranslationStatusPending && q.Status != model.TranslationStatusTranslated {
		return nil, &ValidationError{Field: "status", Message: "must be PENDING or TRANSLATED"}
	}

	p := q.Pagination.normalize()
	filter := store.TranslationFilter{
		LanguageID:  q.LanguageID,
		Status:      q.Status,
		ContentType: q.ContentType,
		IsOutdated:  q.IsOutdated,
	}

	items, err := s.queries.ListTranslations(ctx, filter, p.limit(), p.offset())
	if err != nil {
		return nil, persistErr("listing translations", err)
	}
	total, err := s.queries.CountTranslations(ctx, filter)
	if err != nil {
		return nil, persistErr("counting translations", err)
	}

	return &TranslationPage{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: p.TotalPages(total),
	}, nil
}

// ContentTypeStats aggregates one content type.
type ContentTypeStats struct {
	ContentType string `json:"content_type"`
	Total       int64  `json:"total"`
	Translated  int64  `json:"translated"`
	Outdated    int64  `json:"outdated"`
	PendingJobs int64  `json:"pending_jobs"`
	FailedJobs  int64  `json:"failed_jobs"`
}

// Stats is the dashboard summary.
type Stats struct {
	Translations    store.TranslationCounts `json:"translations"`
	Jobs            store.JobCounts         `json:"jobs"`
	ByContentType   []ContentTypeStats      `json:"by_content_type"`
	TargetLanguages int                     `json:"target_languages"`
	GeneratedAt     time.Time               `json:"generated_at"`
}

// Stats returns translation and job counters, served from cache when fresh.
func (s *TranslationService) Stats(ctx context.Context) (*Stats, error) {
	if s.stats == nil {
		return s.loadStats(ctx)
	}
	return s.stats.GetOrSet(ctx, statsCacheKey, func() (*Stats, error) {
		return s.loadStats(ctx)
	})
}

func (s *TranslationService) loadStats(ctx context.Context) (*Stats, error) {
	counts, err := s.queries.CountTranslationsByState(ctx)
	if err != nil {
		return nil, persistErr("counting translations", err)
	}
	jobs, err := s.queries.CountJobsByStatus(ctx)
	if err != nil {
		return nil, persistErr("counting jobs", err)
	}
	trSummary, err := s.queries.TranslationSummaryByContentType(ctx)
	if err != nil {
		return nil, persistErr("summarizing translations", err)
	}
	jobSummary, err := s.queries.JobSummaryByContentType(ctx)
	if err != nil {
		return nil, persistErr("summarizing jobs", err)
	}
	targets, err := s.registry.ActiveTargets(ctx)
	if err != nil {
		return nil, err
	}

	byType := make(map[string]*ContentTypeStats)
	get := func(ct string) *ContentTypeStats {
		st, ok := byType[ct]
		if !ok {
			st = &ContentTypeStats{ContentType: ct}
			byType[ct] = st
		}
		return st
	}
	for _, t := range trSummary {
		st := get(t.ContentType)
		st.Total, st.Translated, st.Outdated = t.Total, t.Translated, t.Outdated
	}
	for _, j := range jobSummary {
		st := get(j.ContentType)
		st.PendingJobs, st.FailedJobs = j.Pending, j.Failed
	}

	stats := &Stats{
		Translations:    counts,
		Jobs:            jobs,
		ByContentType:   make([]ContentTypeStats, 0, len(byType)),
		TargetLanguages: len(targets),
		GeneratedAt:     s.now(),
	}
	for _, st := range byType {
		stats.ByContentType = append(stats.ByContentType, *st)
	}
	sort.Slice(stats.ByContentType, func(i, j int) bool {
		return stats.ByContentType[i].ContentType < stats.ByContentType[j].ContentType
	})
	return stats, nil
}

// InvalidateStats drops cached dashboard data.
func (s *TranslationService) InvalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, statsCachePrefix); err != nil {
		s.logger.Warn("failed to invalidate stats cache", "category", model.EventCategoryCache, "error", err)
	}
}

// DeleteTranslation deletes a single translation row.
func (s *TranslationService) DeleteTranslation(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteTranslation(ctx, id)
	if err != nil {
		return persistErr("deleting translation", err)
	}
	if n == 0 {
		return &NotFoundError{Entity: "translation", ID: id}
	}

	s.InvalidateStats(ctx)
	s.events.LogTranslationEvent(ctx, "translation deleted", map[string]any{"translation_id": id})
	return nil
}

// ReconcileAll runs a full reconciliation.
func (s *TranslationService) ReconcileAll(ctx context.Context) (*ReconcileResult, error) {
	result, err := s.orchestrator.ReconcileAll(ctx)
	if err != nil {
		return nil, err
	}
	s.InvalidateStats(ctx)
	if result.JobsCreated > 0 || result.OrphansPruned > 0 {
		s.events.LogTranslationEvent(ctx, "reconciliation enqueued jobs", map[string]any{
			"jobs_created":   result.JobsCreated,
			"orphans_pruned": result.OrphansPruned,
			"errors":         result.ErrorCount,
		})
		s.notify(ctx, EventReconciled, result)
	}
	return result, nil
}

// JobQuery filters and paginates ListJobs.
type JobQuery struct {
	LanguageID  string
	Status      string
	ContentType string
	Pagination
}

// JobPage is a page of jobs.
type JobPage struct {
	Items      []store.TranslationJob `json:"items"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PerPage    int                    `json:"per_page"`
	TotalPages int                    `json:"total_pages"`
}

// ListJobs returns jobs, newest first.
func (s *TranslationService) ListJobs(ctx context.Context, q JobQuery) (*JobPage, error) {
	if q.Status != "" && !model.IsValidJobStatus(q.Status) {
		return nil, &ValidationError{Field: "status", Message: "unknown job status"}
	}

	p := q.Pagination.normalize()
	filter := store.JobFilter{LanguageID: q.LanguageID, Status: q.Status, ContentType: q.ContentType}

	items, err := s.queries.ListJobs(ctx, filter, p.limit(), p.offset())
	if err != nil {
		return nil, persistErr("listing jobs", err)
	}
	total, err := s.queries.CountJobs(ctx, filter)
	if err != nil {
		return nil, persistErr("counting jobs", err)
	}

	return &JobPage{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: p.TotalPages(total),
	}, nil
}

// ProcessQueue runs one worker batch. A non-positive limit uses the configured batch size.
func (s *TranslationService) ProcessQueue(ctx context.Context, limit int) (*BatchResult, error) {
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	res, err := s.worker.RunBatch(ctx, limit)
	if res != nil && res.Claimed > 0 {
		s.InvalidateStats(ctx)
		if res.Completed > 0 {
			s.notify(ctx, EventBatchCompleted, res)
		}
		if res.Failed > 0 {
			s.notify(ctx, EventJobsFailed, res)
		}
	}
	return res, err
}

// ReclaimStale returns timed-out PROCESSING jobs to the queue.
func (s *TranslationService) ReclaimStale(ctx context.Context) (int, error) {
	n, err := s.worker.ReclaimStale(ctx)
	if n > 0 {
		s.InvalidateStats(ctx)
	}
	return n, err
}

// PruneCompleted deletes COMPLETED jobs older than the retention period.
func (s *TranslationService) PruneCompleted(ctx context.Context) (int64, error) {
	n, err := s.worker.PruneCompleted(ctx, s.cfg.KeepCompleted)
	if n > 0 {
		s.InvalidateStats(ctx)
	}
	return n, err
}

// RetryResult is the outcome of RetryJob.
type RetryResult struct {
	JobID int64 `json:"job_id"`
	// Superseded is true when an active job already covered the identity
	// and the failed job was deleted instead of reset.
	Superseded bool                  `json:"superseded"`
	Job        *store.TranslationJob `json:"job,omitempty"`
}

// RetryJob resets a FAILED job to PENDING with zero attempts.
func (s *TranslationService) RetryJob(ctx context.Context, id int64) (*RetryResult, error) {
	result := &RetryResult{JobID: id}
	now := s.now()

	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		job, err := q.GetJob(ctx, id)
		if err != nil {
			return lookupErr("job", id, "getting job", err)
		}
		if job.Status != model.JobStatusFailed {
			return &ValidationError{Field: "status", Message: fmt.Sprintf("only FAILED jobs can be retried, job is %s", job.Status)}
		}

		if _, err := q.GetActiveJobByIdentity(ctx, job.Identity()); err == nil {
			if _, err := q.DeleteJob(ctx, id); err != nil {
				return persistErr("deleting superseded job", err)
			}
			result.Superseded = true
			return nil
		} else if !errors.Is(err, sql.ErrNoRows) {
			return persistErr("loading active job", err)
		}

		if _, err := q.RetryJob(ctx, id, now); err != nil {
			return persistErr("retrying job", err)
		}
		updated, err := q.GetJob(ctx, id)
		if err != nil {
			return persistErr("getting job", err)
		}
		result.Job = &updated
		return nil
	})
	if err != nil {
		return nil, txErr("retrying job", err)
	}

	s.InvalidateStats(ctx)
	s.events.LogJobEvent(ctx, "job retried", map[string]any{"job_id": id, "superseded": result.Superseded})
	return result, nil
}

// BulkResult reports rows affected by a bulk action.
type BulkResult struct {
	Retried int64 `json:"retried"`
	Removed int64 `json:"removed"`
}

// RetryAllFailed resets every FAILED job. Failed jobs whose identity already
// has an active job are deleted instead.
func (s *TranslationService) RetryAllFailed(ctx context.Context) (*BulkResult, error) {
	result := &BulkResult{}
	now := s.now()

	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		if result.Retried, err = q.RetryAllFailed(ctx, now); err != nil {
			return err
		}
		result.Removed, err = q.DeleteSupersededFailedJobs(ctx)
		return err
	})
	if err != nil {
		return nil, persistErr("retrying failed jobs", err)
	}

	s.InvalidateStats(ctx)
	s.events.LogJobEvent(ctx, "failed jobs retried", map[string]any{"retried": result.Retried, "removed": result.Removed})
	s.logger.Info("retried failed jobs", "retried", result.Retried, "removed", result.Removed)
	return result, nil
}

// DeleteJob deletes a single job in any status.
func (s *TranslationService) DeleteJob(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteJob(ctx, id)
	if err != nil {
		return persistErr("deleting job", err)
	}
	if n == 0 {
		return &NotFoundError{Entity: "job", ID: id}
	}

	s.InvalidateStats(ctx)
	s.events.LogJobEvent(ctx, "job deleted", map[string]any{"job_id": id})
	return nil
}

// ClearAllFailed deletes every FAILED job and returns the number removed.
func (s *TranslationService) ClearAllFailed(ctx context.Context) (int64, error) {
	n, err := s.queries.DeleteJobsByStatus(ctx, model.JobStatusFailed)
	if err != nil {
		return 0, persistErr("clearing failed jobs", err)
	}

	s.InvalidateStats(ctx)
	s.events.LogJobEvent(ctx, "failed jobs cleared", map[string]any{"removed": n})
	s.logger.Info("cleared failed jobs", "removed", n)
	return n, nil
}

// txErr passes typed errors through and wraps everything else.
func txErr(op string, err error) error {
	var (
		ve *ValidationError
		nf *NotFoundError
		pe *PersistenceError
	)
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &pe) {
		return err
	}
	return persistErr(op, err)
}
