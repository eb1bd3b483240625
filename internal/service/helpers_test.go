// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-translate/internal/cache"
	"github.com/olegiv/ocms-translate/internal/catalog"
	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/store"
	"github.com/olegiv/ocms-translate/internal/testutil"
	"github.com/olegiv/ocms-translate/internal/translator"
)

// itemSource is a mutable catalog source.
type itemSource struct {
	mu    sync.Mutex
	typ   string
	items []model.TranslatableItem
	err   error
}

func (s *itemSource) ContentType() string { return s.typ }

func (s *itemSource) ListTranslatableFields(context.Context) ([]model.TranslatableItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.TranslatableItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *itemSource) set(items ...model.TranslatableItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

func (s *itemSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func uiItem(id, value string) model.TranslatableItem {
	return model.TranslatableItem{
		ContentType: catalog.UIContentType,
		ContentID:   id,
		Field:       "text",
		Value:       value,
		Priority:    catalog.PriorityUI,
	}
}

type pipeline struct {
	db           *sql.DB
	queries      *store.Queries
	source       *itemSource
	enumerator   *catalog.Enumerator
	registry     *LanguageRegistry
	orchestrator *Orchestrator
	fake         *translator.Fake
	worker       *Worker
	events       *EventService
	svc          *TranslationService
}

type pipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	orchestrator OrchestratorConfig
	worker       WorkerConfig
	locker       Locker
}

func withPruneOrphans() pipelineOption {
	return func(c *pipelineConfig) { c.orchestrator.PruneOrphans = true }
}

func withWorkerConfig(wc WorkerConfig) pipelineOption {
	return func(c *pipelineConfig) { c.worker = wc }
}

func withLocker(l Locker) pipelineOption {
	return func(c *pipelineConfig) { c.locker = l }
}

// newPipeline wires the full pipeline over a seeded database
// (en default, de/fr/es targets) and a single "ui" source.
func newPipeline(t *testing.T, opts ...pipelineOption) *pipeline {
	t.Helper()

	cfg := pipelineConfig{worker: WorkerConfig{Concurrency: 1, PersistBackoff: time.Millisecond}}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, cleanup := testutil.TestSeededDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLoggerSilent()
	src := &itemSource{typ: catalog.UIContentType}
	enum, err := catalog.NewEnumerator(logger, src)
	require.NoError(t, err)

	p := &pipeline{
		db:         db,
		queries:    store.New(db),
		source:     src,
		enumerator: enum,
		registry:   NewLanguageRegistry(db, logger),
		fake:       translator.NewFake(),
		events:     NewEventService(db, logger),
	}
	p.orchestrator = NewOrchestrator(db, p.registry, enum, cfg.locker, cfg.orchestrator, logger)
	p.worker = NewWorker(db, p.fake, cfg.worker, logger)

	mem := cache.NewMemoryCache(time.Minute, 0)
	t.Cleanup(func() { _ = mem.Close() })
	p.svc = NewTranslationService(db, p.registry, p.orchestrator, p.worker, p.events, mem,
		TranslationServiceConfig{BatchSize: 100}, logger)
	return p
}

func (p *pipeline) reconcile(t *testing.T) *ReconcileResult {
	t.Helper()
	res, err := p.orchestrator.ReconcileAll(context.Background())
	require.NoError(t, err)
	return res
}

func (p *pipeline) drain(t *testing.T) *BatchResult {
	t.Helper()
	res, err := p.worker.RunBatch(context.Background(), 1000)
	require.NoError(t, err)
	return res
}

func (p *pipeline) countJobs(t *testing.T, status string) int {
	t.Helper()
	var n int
	require.NoError(t, p.db.QueryRow(`SELECT COUNT(*) FROM translation_jobs WHERE status = ?`, status).Scan(&n))
	return n
}

func (p *pipeline) translation(t *testing.T, lang string, item model.TranslatableItem) store.Translation {
	t.Helper()
	tr, err := p.queries.GetTranslationByIdentity(context.Background(), item.IdentityFor(lang))
	require.NoError(t, err)
	return tr
}

func (p *pipeline) onlyJob(t *testing.T) store.TranslationJob {
	t.Helper()
	jobs, err := p.queries.ListJobs(context.Background(), store.JobFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	return jobs[0]
}

// reconcileOne enqueues item for German only.
func (p *pipeline) reconcileOne(t *testing.T, item model.TranslatableItem) {
	t.Helper()
	de, err := p.registry.Get(context.Background(), "de")
	require.NoError(t, err)
	res := p.orchestrator.Reconcile(context.Background(), []store.Language{de}, []model.TranslatableItem{item})
	require.Equal(t, 1, res.JobsCreated)
}

type stubLocker struct {
	ok       bool
	unlocked int
}

func (l *stubLocker) TryLock() (bool, error) { return l.ok, nil }
func (l *stubLocker) Unlock() error {
	l.unlocked++
	return nil
}
