// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-translate/internal/catalog"
	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/scheduler"
	"github.com/olegiv/ocms-translate/internal/service"
	"github.com/olegiv/ocms-translate/internal/testutil"
	"github.com/olegiv/ocms-translate/internal/translator"
	"github.com/olegiv/ocms-translate/internal/version"
)

type testServer struct {
	db     *sql.DB
	router http.Handler
	svc    *service.TranslationService
	fake   *translator.Fake
	jobs   *scheduler.Registry
}

// uiStrings is the catalog served to the test pipeline: two strings, which
// give six jobs across the de/fr/es targets.
func uiStrings(context.Context) ([]model.TranslatableItem, error) {
	return []model.TranslatableItem{
		{ContentID: "greeting", Field: "text", Value: "Hello", Priority: catalog.PriorityUI},
		{ContentID: "farewell", Field: "text", Value: "Goodbye", Priority: catalog.PriorityUI},
	}, nil
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()

	db, cleanup := testutil.TestSeededDB(t)
	t.Cleanup(cleanup)
	logger := testutil.TestLoggerSilent()

	enum, err := catalog.NewEnumerator(logger, catalog.SourceFunc{Type: catalog.UIContentType, Fn: uiStrings})
	require.NoError(t, err)

	registry := service.NewLanguageRegistry(db, logger)
	orch := service.NewOrchestrator(db, registry, enum, nil, service.OrchestratorConfig{}, logger)
	fake := translator.NewFake()
	worker := service.NewWorker(db, fake, service.WorkerConfig{Concurrency: 1, PersistBackoff: time.Millisecond}, logger)
	events := service.NewEventService(db, logger)
	svc := service.NewTranslationService(db, registry, orch, worker, events, nil,
		service.TranslationServiceConfig{BatchSize: 100}, logger)

	sched := scheduler.New(scheduler.NewRegistry(time.Hour, logger), 0, logger)
	require.NoError(t, scheduler.RegisterPipeline(sched, svc, scheduler.Schedules{}))

	h := NewHandler(Deps{
		DB:      db,
		Service: svc,
		Events:  events,
		Jobs:    sched.Registry(),
		Version: version.Info{Version: "v0.0.0-test"},
		Logger:  logger,
	})

	return &testServer{
		db:     db,
		router: NewRouter(h, opts),
		svc:    svc,
		fake:   fake,
		jobs:   sched.Registry(),
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// reconcile enqueues the six jobs of the test catalog.
func (s *testServer) reconcile(t *testing.T) {
	t.Helper()
	res, err := s.svc.ReconcileAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, res.JobsCreated)
}

// failJobs makes every pending job fail permanently.
func (s *testServer) failJobs(t *testing.T) {
	t.Helper()
	_, err := s.db.Exec(`UPDATE translation_jobs SET status = ?, attempts = 3, last_error = 'boom' WHERE status = ?`,
		model.JobStatusFailed, model.JobStatusPending)
	require.NoError(t, err)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  *Meta           `json:"meta"`
	Error *ErrorDetail    `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

func jsonUnmarshal(w *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) (T, *Meta) {
	t.Helper()
	env := decode(t, w)
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), "data: %s", env.Data)
	return v, env.Meta
}
