// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/store"
	"github.com/olegiv/ocms-translate/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, db *sql.DB) []store.Event {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), "", 100, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func singleEvent(t *testing.T, db *sql.DB) store.Event {
	t.Helper()
	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	return events[0]
}

func TestEventLogHandler_Handle_ErrorLevel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Error("database connection failed", "host", "localhost", "port", 5432)

	event := singleEvent(t, db)
	if event.Level != model.EventLevelError {
		t.Errorf("Level = %q, want %q", event.Level, model.EventLevelError)
	}
	if event.Message != "database connection failed" {
		t.Errorf("Message = %q, want %q", event.Message, "database connection failed")
	}
}

func TestEventLogHandler_Handle_WarnLevel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Warn("slow provider response")

	if event := singleEvent(t, db); event.Level != model.EventLevelWarning {
		t.Errorf("Level = %q, want %q", event.Level, model.EventLevelWarning)
	}
}

func TestEventLogHandler_Handle_BelowThreshold_NotCaptured(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Info("batch finished")
	logger.Debug("job completed")

	if events := listEvents(t, db); len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestEventLogHandler_Handle_CustomLevel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))
	logger.Info("reconciliation finished")

	if event := singleEvent(t, db); event.Level != model.EventLevelInfo {
		t.Errorf("Level = %q, want %q", event.Level, model.EventLevelInfo)
	}
}

func TestEventLogHandler_CategoryInference(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"translation job failed", model.EventCategoryJob},
		{"worker stopped", model.EventCategoryJob},
		{"reconciliation finished with errors", model.EventCategoryTranslation},
		{"catalog source failed", model.EventCategoryTranslation},
		{"language missing", model.EventCategoryLanguage},
		{"scheduled task overran", model.EventCategoryScheduler},
		{"failed to invalidate cache", model.EventCategoryCache},
		{"disk almost full", model.EventCategorySystem},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			db, cleanup := testutil.TestDB(t)
			defer cleanup()

			slog.New(NewEventLogHandler(discardHandler{}, db)).Warn(tt.message)

			if event := singleEvent(t, db); event.Category != tt.want {
				t.Errorf("Category = %q, want %q", event.Category, tt.want)
			}
		})
	}
}

func TestEventLogHandler_ExplicitCategory(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Warn("translation job failed", "category", model.EventCategoryScheduler)

	if event := singleEvent(t, db); event.Category != model.EventCategoryScheduler {
		t.Errorf("Category = %q, want %q", event.Category, model.EventCategoryScheduler)
	}
}

func TestEventLogHandler_MetadataExtraction(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Error("translation job failed",
		"category", model.EventCategoryJob,
		"job_id", 42,
		"language", "de",
		"error", `quota "exceeded"`+"\n",
	)

	event := singleEvent(t, db)
	var meta map[string]any
	if err := json.Unmarshal([]byte(event.Metadata), &meta); err != nil {
		t.Fatalf("metadata %q is not JSON: %v", event.Metadata, err)
	}
	if meta["job_id"] != float64(42) {
		t.Errorf("job_id = %v, want 42", meta["job_id"])
	}
	if meta["language"] != "de" {
		t.Errorf("language = %v, want de", meta["language"])
	}
	if meta["error"] != `quota "exceeded"`+"\n" {
		t.Errorf("error = %v", meta["error"])
	}
	if _, ok := meta["category"]; ok {
		t.Error("category should not be repeated in metadata")
	}
}

func TestEventLogHandler_WithAttrs(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).
		With("worker", "w-1", "category", model.EventCategoryJob)
	logger.Warn("something odd", "job_id", 7)

	event := singleEvent(t, db)
	if event.Category != model.EventCategoryJob {
		t.Errorf("Category = %q, want %q", event.Category, model.EventCategoryJob)
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(event.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if meta["worker"] != "w-1" || meta["job_id"] != float64(7) {
		t.Errorf("metadata = %v, want worker and job_id", meta)
	}
}

func TestEventLogHandler_WithGroup(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).WithGroup("provider")
	logger.Warn("slow response", "name", "openai")

	event := singleEvent(t, db)
	var meta map[string]any
	if err := json.Unmarshal([]byte(event.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if meta["provider.name"] != "openai" {
		t.Errorf("metadata = %v, want provider.name", meta)
	}
}

func TestSlogLevelToEventLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, model.EventLevelInfo},
		{slog.LevelInfo, model.EventLevelInfo},
		{slog.LevelWarn, model.EventLevelWarning},
		{slog.LevelError, model.EventLevelError},
		{slog.LevelError + 4, model.EventLevelError},
	}

	for _, tt := range tests {
		if got := slogLevelToEventLevel(tt.level); got != tt.want {
			t.Errorf("slogLevelToEventLevel(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
