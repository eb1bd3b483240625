// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/olegiv/ocms-translate/internal/model"
)

const jobColumns = `id, language_id, content_type, content_id, field, original_text, source_hash,
	format, priority, status, attempts, last_error, claimed_by, claimed_at, created_at, updated_at`

func scanJob(row rowScanner) (TranslationJob, error) {
	var j TranslationJob
	err := row.Scan(
		&j.ID, &j.LanguageID, &j.ContentType, &j.ContentID, &j.Field, &j.OriginalText, &j.SourceHash,
		&j.Format, &j.Priority, &j.Status, &j.Attempts, &j.LastError, &j.ClaimedBy, &j.ClaimedAt,
		&j.CreatedAt, &j.UpdatedAt,
	)
	return j, err
}

func (q *Queries) queryJobs(ctx context.Context, query string, args ...any) ([]TranslationJob, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []TranslationJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateJobParams holds the values of a new PENDING job.
type CreateJobParams struct {
	Identity     model.Identity
	OriginalText string
	SourceHash   string
	Format       string
	Priority     int64
	Now          time.Time
}

// CreateJob enqueues a PENDING job. It returns false when an active job
// already exists for the identity.
func (q *Queries) CreateJob(ctx context.Context, arg CreateJobParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO translation_jobs (language_id, content_type, content_id, field,
			original_text, source_hash, format, priority, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'PENDING', 0, ?, ?)`,
		arg.Identity.LanguageID, arg.Identity.ContentType, arg.Identity.ContentID, arg.Identity.Field,
		arg.OriginalText, arg.SourceHash, arg.Format, arg.Priority, arg.Now, arg.Now,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetJob returns a job by ID.
func (q *Queries) GetJob(ctx context.Context, id int64) (TranslationJob, error) {
	return scanJob(q.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM translation_jobs WHERE id = ?`, id))
}

// GetActiveJobByIdentity returns the PENDING or PROCESSING job for an identity.
func (q *Queries) GetActiveJobByIdentity(ctx context.Context, id model.Identity) (TranslationJob, error) {
	return scanJob(q.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM translation_jobs
		WHERE language_id = ? AND content_type = ? AND content_id = ? AND field = ?
			AND status IN ('PENDING', 'PROCESSING')`,
		id.LanguageID, id.ContentType, id.ContentID, id.Field,
	))
}

// NextPendingJobID returns the ID of the most urgent PENDING job.
// It returns sql.ErrNoRows when the queue is empty.
func (q *Queries) NextPendingJobID(ctx context.Context) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, `SELECT id FROM translation_jobs
		WHERE status = 'PENDING'
		ORDER BY priority DESC, created_at ASC, id ASC
		LIMIT 1`).Scan(&id)
	return id, err
}

// ErrClaimLost is returned by ClaimJob when another worker claimed the job first.
var ErrClaimLost = errors.New("job already claimed")

// ClaimJob moves a PENDING job to PROCESSING. The update only applies when
// the job is still PENDING; otherwise ErrClaimLost is returned.
func (q *Queries) ClaimJob(ctx context.Context, id int64, workerID string, now time.Time) (TranslationJob, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE translation_jobs
		SET status = 'PROCESSING', claimed_by = ?, claimed_at = ?, updated_at = ?
		WHERE id = ? AND status = 'PENDING'`,
		workerID, now, now, id,
	)
	if err != nil {
		return TranslationJob{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return TranslationJob{}, err
	}
	if n != 1 {
		return TranslationJob{}, ErrClaimLost
	}
	return q.GetJob(ctx, id)
}

// CompleteJob marks a job PROCESSING under workerID as COMPLETED. It
// affects no rows once the job was reclaimed or claimed by another worker.
func (q *Queries) CompleteJob(ctx context.Context, id int64, workerID string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE translation_jobs
		SET status = 'COMPLETED', last_error = NULL, updated_at = ?
		WHERE id = ? AND status = 'PROCESSING' AND claimed_by = ?`, now, id, workerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseJob returns a job PROCESSING under workerID to PENDING without
// counting an attempt.
func (q *Queries) ReleaseJob(ctx context.Context, id int64, workerID string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE translation_jobs
		SET status = 'PENDING', claimed_by = NULL, claimed_at = NULL, updated_at = ?
		WHERE id = ? AND status = 'PROCESSING' AND claimed_by = ?`, now, id, workerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FailJobAttemptParams describes a failed processing attempt.
type FailJobAttemptParams struct {
	ID         int64
	WorkerID   string
	LastError  string
	MaxRetries int64
	Now        time.Time
}

const failAttemptSet = `SET attempts = attempts + 1,
			status = CASE WHEN attempts + 1 >= ? THEN 'FAILED' ELSE 'PENDING' END,
			last_error = ?,
			claimed_by = NULL,
			claimed_at = NULL,
			updated_at = ?`

// FailJobAttempt records a failed attempt on a PROCESSING job. The job goes
// back to PENDING, or to FAILED once attempts reach MaxRetries.
// It returns sql.ErrNoRows when the job is not PROCESSING under WorkerID.
func (q *Queries) FailJobAttempt(ctx context.Context, arg FailJobAttemptParams) (TranslationJob, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE translation_jobs `+failAttemptSet+`
		WHERE id = ? AND status = 'PROCESSING' AND claimed_by = ?`,
		arg.MaxRetries, model.TruncateError(arg.LastError), arg.Now, arg.ID, arg.WorkerID,
	)
	if err != nil {
		return TranslationJob{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return TranslationJob{}, err
	}
	if n == 0 {
		return TranslationJob{}, sql.ErrNoRows
	}
	return q.GetJob(ctx, arg.ID)
}

// ReclaimStaleJobsParams selects PROCESSING jobs claimed before Cutoff.
type ReclaimStaleJobsParams struct {
	Cutoff     time.Time
	LastError  string
	MaxRetries int64
	Now        time.Time
}

// ReclaimStaleJobs counts a failed attempt against every job stuck in
// PROCESSING since before the cutoff and returns the updated rows.
func (q *Queries) ReclaimStaleJobs(ctx context.Context, arg ReclaimStaleJobsParams) ([]TranslationJob, error) {
	stale, err := q.queryJobs(ctx, `SELECT `+jobColumns+` FROM translation_jobs
		WHERE status = 'PROCESSING' AND claimed_at < ?
		ORDER BY id`, arg.Cutoff)
	if err != nil {
		return nil, err
	}

	var reclaimed []TranslationJob
	for _, job := range stale {
		res, err := q.db.ExecContext(ctx, `UPDATE translation_jobs `+failAttemptSet+`
			WHERE id = ? AND status = 'PROCESSING' AND claimed_at < ?`,
			arg.MaxRetries, model.TruncateError(arg.LastError), arg.Now, job.ID, arg.Cutoff,
		)
		if err != nil {
			return reclaimed, err
		}
		// Completed or failed by its worker in the meantime.
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		updated, err := q.GetJob(ctx, job.ID)
		if err != nil {
			return reclaimed, err
		}
		reclaimed = append(reclaimed, updated)
	}
	return reclaimed, nil
}

const resetJobSet = `SET status = 'PENDING', attempts = 0, last_error = NULL,
			claimed_by = NULL, claimed_at = NULL, updated_at = ?`

// RetryJob resets a FAILED job to PENDING with zero attempts.
func (q *Queries) RetryJob(ctx context.Context, id int64, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE translation_jobs `+resetJobSet+`
		WHERE id = ? AND status = 'FAILED'`, now, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RetryAllFailed resets every FAILED job whose identity has no active job.
// Rows that would violate the active identity index are left FAILED.
func (q *Queries) RetryAllFailed(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE OR IGNORE translation_jobs `+resetJobSet+`
		WHERE status = 'FAILED'`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteSupersededFailedJobs removes FAILED jobs whose identity has an active job.
func (q *Queries) DeleteSupersededFailedJobs(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM translation_jobs
		WHERE status = 'FAILED' AND EXISTS (
			SELECT 1 FROM translation_jobs a
			WHERE a.language_id = translation_jobs.language_id
				AND a.content_type = translation_jobs.content_type
				AND a.content_id = translation_jobs.content_id
				AND a.field = translation_jobs.field
				AND a.status IN ('PENDING', 'PROCESSING')
		)`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteJob deletes a single job.
func (q *Queries) DeleteJob(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM translation_jobs WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteJobsByStatus deletes all jobs with the given status.
func (q *Queries) DeleteJobsByStatus(ctx context.Context, status string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM translation_jobs WHERE status = ?`, status)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteCompletedJobsBefore prunes COMPLETED jobs last updated before cutoff.
func (q *Queries) DeleteCompletedJobsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM translation_jobs
		WHERE status = 'COMPLETED' AND updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListJobs returns jobs matching filter, newest first.
func (q *Queries) ListJobs(ctx context.Context, filter JobFilter, limit, offset int64) ([]TranslationJob, error) {
	where, args := filter.where()
	args = append(args, limit, offset)
	return q.queryJobs(ctx, `SELECT `+jobColumns+` FROM translation_jobs`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, args...)
}

// CountJobs counts jobs matching filter.
func (q *Queries) CountJobs(ctx context.Context, filter JobFilter) (int64, error) {
	where, args := filter.where()
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translation_jobs`+where, args...).Scan(&n)
	return n, err
}

// JobCounts aggregates jobs by status.
type JobCounts struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// CountJobsByStatus returns the number of jobs in each status.
func (q *Queries) CountJobsByStatus(ctx context.Context) (JobCounts, error) {
	var c JobCounts
	err := q.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'PENDING' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'PROCESSING' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'COMPLETED' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'FAILED' THEN 1 ELSE 0 END), 0)
		FROM translation_jobs`).Scan(&c.Pending, &c.Processing, &c.Completed, &c.Failed)
	return c, err
}

// JobContentTypeSummary aggregates open work for one content type.
type JobContentTypeSummary struct {
	ContentType string `json:"content_type"`
	Pending     int64  `json:"pending"`
	Failed      int64  `json:"failed"`
}

// JobSummaryByContentType returns PENDING and FAILED counters per content type.
func (q *Queries) JobSummaryByContentType(ctx context.Context) ([]JobContentTypeSummary, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT content_type,
			COALESCE(SUM(CASE WHEN status IN ('PENDING', 'PROCESSING') THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'FAILED' THEN 1 ELSE 0 END), 0)
		FROM translation_jobs
		WHERE status != 'COMPLETED'
		GROUP BY content_type
		ORDER BY content_type`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []JobContentTypeSummary
	for rows.Next() {
		var s JobContentTypeSummary
		if err := rows.Scan(&s.ContentType, &s.Pending, &s.Failed); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListOpenJobIdentities returns PENDING and FAILED jobs of a content type.
// PROCESSING jobs are excluded since a worker owns them.
func (q *Queries) ListOpenJobIdentities(ctx context.Context, contentType string) ([]IdentityRow, error) {
	return q.queryIdentities(ctx, `SELECT id, language_id, content_type, content_id, field
		FROM translation_jobs
		WHERE content_type = ? AND status IN ('PENDING', 'FAILED')
		ORDER BY id`, contentType)
}
