// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/ocms-translate/internal/catalog"
	"github.com/olegiv/ocms-translate/internal/contenthash"
	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/store"
)

// MaxReconcileErrors bounds the errors kept in a ReconcileResult.
const MaxReconcileErrors = 10

// Locker serializes reconciliation runs across processes.
type Locker interface {
	TryLock() (bool, error)
	Unlock() error
}

// Scanner produces the current catalog.
type Scanner interface {
	Scan(ctx context.Context) (*catalog.ScanResult, error)
}

// ReconcileResult summarizes a reconciliation run.
type ReconcileResult struct {
	Languages        int           `json:"languages"`
	Items            int           `json:"items"`
	JobsCreated      int           `json:"jobs_created"`
	SkippedCurrent   int           `json:"skipped_current"`
	SkippedActive    int           `json:"skipped_active"`
	DuplicateSkipped int           `json:"duplicate_skipped"`
	MarkedOutdated   int           `json:"marked_outdated"`
	OrphansPruned    int64         `json:"orphans_pruned"`
	ErrorCount       int           `json:"error_count"`
	Errors           []string      `json:"errors"`
	Duration         time.Duration `json:"duration"`
}

func (r *ReconcileResult) addError(err error) {
	r.ErrorCount++
	if len(r.Errors) < MaxReconcileErrors {
		r.Errors = append(r.Errors, err.Error())
	}
}

// OrchestratorConfig configures an Orchestrator.
type OrchestratorConfig struct {
	// PruneOrphans deletes PENDING and FAILED jobs and translations whose
	// content no longer exists in a successfully scanned source.
	PruneOrphans bool
}

// Orchestrator compares the catalog with stored translations and enqueues
// a job for every item that is missing or stale in an active target language.
type Orchestrator struct {
	queries  *store.Queries
	registry *LanguageRegistry
	scanner  Scanner
	locker   Locker
	cfg      OrchestratorConfig
	logger   *slog.Logger
	now      Clock
}

// NewOrchestrator creates an Orchestrator. locker may be nil.
func NewOrchestrator(db *sql.DB, registry *LanguageRegistry, scanner Scanner, locker Locker, cfg OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		queries:  store.New(db),
		registry: registry,
		scanner:  scanner,
		locker:   locker,
		cfg:      cfg,
		logger:   logger,
		now:      utcNow,
	}
}

// ReconcileAll reloads the target languages, scans the catalog and
// reconciles. It returns ErrReconcileInProgress when another run holds the lock.
func (o *Orchestrator) ReconcileAll(ctx context.Context) (*ReconcileResult, error) {
	if o.locker != nil {
		ok, err := o.locker.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquiring reconcile lock: %w", err)
		}
		if !ok {
			return nil, ErrReconcileInProgress
		}
		defer func() {
			if err := o.locker.Unlock(); err != nil {
				o.logger.Error("failed to release reconcile lock", "error", err)
			}
		}()
	}

	start := time.Now()

	languages, err := o.registry.ActiveTargets(ctx)
	if err != nil {
		return nil, err
	}

	scan, err := o.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning catalog: %w", err)
	}

	result := o.Reconcile(ctx, languages, scan.Items)
	for ct, serr := range scan.Failed {
		result.addError(fmt.Errorf("source %s: %w", ct, serr))
	}
	for _, rerr := range scan.Rejected {
		result.addError(rerr)
	}

	if o.cfg.PruneOrphans {
		pruned, err := o.pruneOrphans(ctx, scan)
		result.OrphansPruned = pruned
		if err != nil {
			result.addError(err)
		}
	}

	result.Duration = time.Since(start)
	o.logger.Info("reconciliation finished",
		"languages", result.Languages,
		"items", result.Items,
		"jobs_created", result.JobsCreated,
		"skipped_current", result.SkippedCurrent,
		"skipped_active", result.SkippedActive,
		"marked_outdated", result.MarkedOutdated,
		"orphans_pruned", result.OrphansPruned,
		"errors", result.ErrorCount,
		"duration", result.Duration,
	)
	if result.ErrorCount > 0 {
		o.logger.Warn("reconciliation finished with errors",
			"category", model.EventCategoryTranslation,
			"errors", result.ErrorCount,
			"first_error", result.Errors[0],
		)
	}
	return result, nil
}

// Reconcile enqueues jobs for items that have no current translation and no
// active job in each language. Blank values are skipped; items with an
// incomplete identity or unknown format are per-item errors. Per-item failures
// are collected and do not stop the run. Re-running only creates jobs that are
// still missing.
func (o *Orchestrator) Reconcile(ctx context.Context, languages []store.Language, items []model.TranslatableItem) *ReconcileResult {
	result := &ReconcileResult{Languages: len(languages), Items: len(items)}

	for _, lang := range languages {
		for _, item := range items {
			if ctx.Err() != nil {
				result.addError(ctx.Err())
				return result
			}
			err := o.reconcileItem(ctx, lang.ID, item, result)
			switch {
			case errors.Is(err, ErrDuplicateSkipped):
				result.DuplicateSkipped++
			case err != nil:
				result.addError(fmt.Errorf("%s: %w", item.IdentityFor(lang.ID), err))
			}
		}
	}
	return result
}

func (o *Orchestrator) reconcileItem(ctx context.Context, languageID string, item model.TranslatableItem, result *ReconcileResult) error {
	if strings.TrimSpace(item.Value) == "" {
		return nil
	}
	id := item.IdentityFor(languageID)
	if missing := id.Missing(); missing != "" {
		return &ValidationError{Field: missing, Message: "is required"}
	}
	switch item.Format {
	case "":
		item.Format = model.FormatText
	case model.FormatText, model.FormatHTML:
	default:
		return &ValidationError{Field: "format", Message: fmt.Sprintf("unsupported format %q", item.Format)}
	}

	hash := contenthash.Hash(item.Value)

	tr, err := o.queries.GetTranslationByIdentity(ctx, id)
	switch {
	case err == nil:
		if tr.SourceHash == hash {
			result.SkippedCurrent++
			return nil
		}
		if !tr.IsOutdated {
			n, err := o.queries.MarkTranslationOutdated(ctx, tr.ID, o.now())
			if err != nil {
				return persistErr("marking translation outdated", err)
			}
			result.MarkedOutdated += int(n)
		}
	case !errors.Is(err, sql.ErrNoRows):
		return persistErr("loading translation", err)
	}

	if _, err := o.queries.GetActiveJobByIdentity(ctx, id); err == nil {
		result.SkippedActive++
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return persistErr("loading active job", err)
	}

	created, err := o.queries.CreateJob(ctx, store.CreateJobParams{
		Identity:     id,
		OriginalText: item.Value,
		SourceHash:   hash,
		Format:       item.Format,
		Priority:     item.Priority,
		Now:          o.now(),
	})
	if err != nil {
		return persistErr("creating job", err)
	}
	if !created {
		return ErrDuplicateSkipped
	}
	result.JobsCreated++
	return nil
}

// pruneOrphans removes rows whose content is gone from a source that scanned
// successfully. Sources that failed or are no longer registered are left alone.
func (o *Orchestrator) pruneOrphans(ctx context.Context, scan *catalog.ScanResult) (int64, error) {
	live := make(map[string]struct{}, len(scan.Items))
	for _, item := range scan.Items {
		live[item.Key()] = struct{}{}
	}
	isOrphan := func(id model.Identity) bool {
		_, ok := live[id.ContentType+"/"+id.ContentID+"/"+id.Field]
		return !ok
	}

	var pruned int64
	for _, ct := range scan.Scanned {
		translations, err := o.queries.ListTranslationIdentities(ctx, ct)
		if err != nil {
			return pruned, persistErr("listing translations", err)
		}
		for _, row := range translations {
			if !isOrphan(row.Identity) {
				continue
			}
			n, err := o.queries.DeleteTranslation(ctx, row.ID)
			if err != nil {
				return pruned, persistErr("deleting orphaned translation", err)
			}
			pruned += n
		}

		jobs, err := o.queries.ListOpenJobIdentities(ctx, ct)
		if err != nil {
			return pruned, persistErr("listing jobs", err)
		}
		for _, row := range jobs {
			if !isOrphan(row.Identity) {
				continue
			}
			n, err := o.queries.DeleteJob(ctx, row.ID)
			if err != nil {
				return pruned, persistErr("deleting orphaned job", err)
			}
			pruned += n
		}
	}

	if pruned > 0 {
		o.logger.Info("pruned orphaned rows", "count", pruned)
	}
	return pruned, nil
}
