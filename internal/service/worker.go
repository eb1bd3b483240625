// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/store"
	"github.com/olegiv/ocms-translate/internal/translator"
)

// Worker defaults.
const (
	DefaultMaxRetries        = 3
	DefaultConcurrency       = 2
	DefaultProcessingTimeout = 10 * time.Minute
	timedOutMessage          = "processing timed out"

	// writeTimeout bounds outcome writes, which outlive batch cancellation.
	writeTimeout = 10 * time.Second
)

var errJobNotProcessing = errors.New("job is no longer processing")

// WorkerConfig configures a Worker.
type WorkerConfig struct {
	// MaxRetries is the number of failed attempts after which a job is FAILED.
	MaxRetries int
	// Concurrency is the number of jobs translated in parallel.
	Concurrency int
	// RateLimit caps provider requests per second. Zero disables the limit.
	RateLimit float64
	// ProcessingTimeout is how long a job may stay PROCESSING before it is reclaimed.
	ProcessingTimeout time.Duration
	// PersistRetries and PersistBackoff control retries of store writes
	// after a provider call.
	PersistRetries uint64
	PersistBackoff time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.MaxRetries < 1 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Concurrency < 1 {
		c.Concurrency = DefaultConcurrency
	}
	if c.ProcessingTimeout <= 0 {
		c.ProcessingTimeout = DefaultProcessingTimeout
	}
	if c.PersistRetries == 0 {
		c.PersistRetries = 3
	}
	if c.PersistBackoff <= 0 {
		c.PersistBackoff = 100 * time.Millisecond
	}
	return c
}

// BatchResult summarizes a RunBatch call.
type BatchResult struct {
	Claimed   int           `json:"claimed"`
	Completed int           `json:"completed"`
	Retried   int           `json:"retried"`
	Failed    int           `json:"failed"`
	Released  int           `json:"released"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
}

// Worker claims PENDING jobs, translates them and records the outcome.
//
// Job lifecycle:
//
//	PENDING -> PROCESSING -> COMPLETED
//	                      -> PENDING  (provider error, attempts < MaxRetries)
//	                      -> FAILED   (provider error, attempts = MaxRetries)
//	FAILED  -> PENDING    (admin retry, attempts reset)
type Worker struct {
	db         *sql.DB
	queries    *store.Queries
	translator translator.Translator
	cfg        WorkerConfig
	limiter    *rate.Limiter
	sanitizer  *bluemonday.Policy
	id         string
	logger     *slog.Logger
	now        Clock
}

// NewWorker creates a Worker with a unique claim identity.
func NewWorker(db *sql.DB, tr translator.Translator, cfg WorkerConfig, logger *slog.Logger) *Worker {
	cfg = cfg.withDefaults()

	limit := rate.Inf
	burst := cfg.Concurrency
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	id := uuid.NewString()
	return &Worker{
		db:         db,
		queries:    store.New(db),
		translator: tr,
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, burst),
		sanitizer:  bluemonday.UGCPolicy(),
		id:         id,
		logger:     logger.With("worker", id),
		now:        utcNow,
	}
}

// ID returns the identity recorded in claimed_by.
func (w *Worker) ID() string { return w.id }

// MaxRetries returns the configured attempt cap.
func (w *Worker) MaxRetries() int { return w.cfg.MaxRetries }

// RunBatch claims and processes up to limit jobs. A job is claimed only after
// a processing slot is free. A store failure while claiming stops the batch
// and is returned.
func (w *Worker) RunBatch(ctx context.Context, limit int) (*BatchResult, error) {
	start := time.Now()
	res := &BatchResult{}
	var mu sync.Mutex
	tally := func(fn func(r *BatchResult)) {
		mu.Lock()
		fn(res)
		mu.Unlock()
	}

	g := new(errgroup.Group)
	g.SetLimit(w.cfg.Concurrency)
	slots := make(chan struct{}, w.cfg.Concurrency)

	var claimErr error
	for range limit {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		job, err := w.claimNext(ctx)
		if errors.Is(err, sql.ErrNoRows) || ctx.Err() != nil {
			<-slots
			break
		}
		if err != nil {
			<-slots
			claimErr = persistErr("claiming job", err)
			break
		}
		tally(func(r *BatchResult) { r.Claimed++ })

		g.Go(func() error {
			defer func() { <-slots }()
			outcome := w.process(ctx, job)
			tally(func(r *BatchResult) { outcome.apply(r) })
			return nil
		})
	}
	_ = g.Wait()

	res.Duration = time.Since(start)
	if res.Claimed > 0 {
		w.logger.Info("batch finished",
			"claimed", res.Claimed,
			"completed", res.Completed,
			"retried", res.Retried,
			"failed", res.Failed,
			"released", res.Released,
			"errors", res.Errors,
			"duration", res.Duration,
		)
	}
	return res, claimErr
}

// claimNext claims the most urgent PENDING job. It returns sql.ErrNoRows
// when the queue is empty. A claim lost to another worker moves on to the
// next candidate.
func (w *Worker) claimNext(ctx context.Context) (store.TranslationJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return store.TranslationJob{}, err
		}
		id, err := w.queries.NextPendingJobID(ctx)
		if err != nil {
			return store.TranslationJob{}, err
		}
		job, err := w.queries.ClaimJob(ctx, id, w.id, w.now())
		if errors.Is(err, store.ErrClaimLost) {
			continue
		}
		return job, err
	}
}

type outcome int

const (
	outcomeCompleted outcome = iota
	outcomeRetried
	outcomeFailed
	outcomeReleased
	outcomeError
)

func (o outcome) apply(r *BatchResult) {
	switch o {
	case outcomeCompleted:
		r.Completed++
	case outcomeRetried:
		r.Retried++
	case outcomeFailed:
		r.Failed++
	case outcomeReleased:
		r.Released++
	default:
		r.Errors++
	}
}

func (w *Worker) jobLogger(job store.TranslationJob) *slog.Logger {
	return w.logger.With(
		"job_id", job.ID,
		"language", job.LanguageID,
		"content_type", job.ContentType,
		"content_id", job.ContentID,
		"field", job.Field,
	)
}

// process translates one claimed job and records the result.
func (w *Worker) process(ctx context.Context, job store.TranslationJob) outcome {
	log := w.jobLogger(job)

	if err := w.limiter.Wait(ctx); err != nil {
		return w.release(job, log)
	}

	translated, err := w.translator.Translate(ctx, job.OriginalText, job.LanguageID, job.Format)
	if err != nil {
		if ctx.Err() != nil {
			return w.release(job, log)
		}
		return w.fail(ctx, job, &ProviderError{Provider: w.translator.ID(), Err: err}, log)
	}

	if job.Format == model.FormatHTML {
		translated = w.sanitizer.Sanitize(translated)
	}

	// The provider result is kept even if the batch is cancelled now.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	err = w.persist(wctx, func(ctx context.Context) error {
		return store.RunInTx(ctx, w.db, func(q *store.Queries) error {
			if _, err := q.UpsertTranslation(ctx, store.UpsertTranslationParams{
				Identity:        job.Identity(),
				TranslatedValue: translated,
				SourceHash:      job.SourceHash,
				Now:             w.now(),
			}); err != nil {
				return err
			}
			n, err := q.CompleteJob(ctx, job.ID, w.id, w.now())
			if err != nil {
				return err
			}
			if n == 0 {
				return errJobNotProcessing
			}
			return nil
		})
	})
	switch {
	case errors.Is(err, errJobNotProcessing):
		log.Warn("job was reclaimed before completion, result discarded", "category", model.EventCategoryJob)
		return outcomeError
	case err != nil:
		log.Error("failed to store translation, job left for reclaim", "error", err)
		return outcomeError
	}

	log.Debug("job completed")
	return outcomeCompleted
}

// fail records a failed attempt.
func (w *Worker) fail(ctx context.Context, job store.TranslationJob, cause error, log *slog.Logger) outcome {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	var updated store.TranslationJob
	err := w.persist(wctx, func(ctx context.Context) error {
		var err error
		updated, err = w.queries.FailJobAttempt(ctx, store.FailJobAttemptParams{
			ID:         job.ID,
			WorkerID:   w.id,
			LastError:  cause.Error(),
			MaxRetries: int64(w.cfg.MaxRetries),
			Now:        w.now(),
		})
		if errors.Is(err, sql.ErrNoRows) {
			return errJobNotProcessing
		}
		return err
	})
	switch {
	case errors.Is(err, errJobNotProcessing):
		log.Warn("job was reclaimed before the failure was recorded", "category", model.EventCategoryJob, "cause", cause)
		return outcomeError
	case err != nil:
		log.Error("failed to record job failure", "error", err, "cause", cause)
		return outcomeError
	}

	if updated.Status == model.JobStatusFailed {
		log.Warn("translation job failed",
			"category", model.EventCategoryJob,
			"attempts", updated.Attempts,
			"error", cause,
		)
		return outcomeFailed
	}
	log.Info("translation attempt failed, will retry", "attempts", updated.Attempts, "error", cause)
	return outcomeRetried
}

// release hands an interrupted job back to the queue without counting an attempt.
func (w *Worker) release(job store.TranslationJob, log *slog.Logger) outcome {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	n, err := w.queries.ReleaseJob(ctx, job.ID, w.id, w.now())
	if err != nil {
		log.Error("failed to release job", "error", err)
		return outcomeError
	}
	if n == 0 {
		log.Warn("job was reclaimed before release", "category", model.EventCategoryJob, "error", errJobNotProcessing)
		return outcomeError
	}
	log.Info("job released")
	return outcomeReleased
}

// persist retries a store write with exponential backoff. errJobNotProcessing
// is final.
func (w *Worker) persist(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(w.cfg.PersistRetries, retry.NewExponential(w.cfg.PersistBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil || errors.Is(err, errJobNotProcessing) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// ReclaimStale counts a failed attempt against every job that has been
// PROCESSING for longer than the processing timeout.
func (w *Worker) ReclaimStale(ctx context.Context) (int, error) {
	now := w.now()
	jobs, err := w.queries.ReclaimStaleJobs(ctx, store.ReclaimStaleJobsParams{
		Cutoff:     now.Add(-w.cfg.ProcessingTimeout),
		LastError:  timedOutMessage,
		MaxRetries: int64(w.cfg.MaxRetries),
		Now:        now,
	})
	for _, job := range jobs {
		w.jobLogger(job).Warn("reclaimed stale job",
			"category", model.EventCategoryJob,
			"status", job.Status,
			"attempts", job.Attempts,
		)
	}
	if err != nil {
		return len(jobs), persistErr("reclaiming stale jobs", err)
	}
	return len(jobs), nil
}

// PruneCompleted deletes COMPLETED jobs older than olderThan.
func (w *Worker) PruneCompleted(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := w.queries.DeleteCompletedJobsBefore(ctx, w.now().Add(-olderThan))
	if err != nil {
		return 0, persistErr("pruning completed jobs", err)
	}
	if n > 0 {
		w.logger.Info("pruned completed jobs", "count", n)
	}
	return n, nil
}
