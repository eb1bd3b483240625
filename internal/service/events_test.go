// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/testutil"
)

func TestLogEvent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db, testutil.TestLoggerSilent())
	ctx := context.Background()

	err := svc.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryJob, "job retried", map[string]any{
		"job_id": 42,
	})
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var level, category, message, metadata string
	err = db.QueryRow("SELECT level, category, message, metadata FROM events").Scan(&level, &category, &message, &metadata)
	if err != nil {
		t.Fatalf("failed to query event: %v", err)
	}
	if level != model.EventLevelInfo {
		t.Errorf("level = %q, want %q", level, model.EventLevelInfo)
	}
	if category != model.EventCategoryJob {
		t.Errorf("category = %q, want %q", category, model.EventCategoryJob)
	}
	if message != "job retried" {
		t.Errorf("message = %q, want %q", message, "job retried")
	}

	var meta map[string]any
	if err := json.Unmarshal([]byte(metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if meta["job_id"] != float64(42) {
		t.Errorf("metadata job_id = %v, want 42", meta["job_id"])
	}
}

func TestLogEvent_NilMetadata(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db, testutil.TestLoggerSilent())
	if err := svc.LogEvent(context.Background(), model.EventLevelWarning, model.EventCategorySystem, "no metadata", nil); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var metadata string
	if err := db.QueryRow("SELECT metadata FROM events").Scan(&metadata); err != nil {
		t.Fatalf("failed to query event: %v", err)
	}
	if metadata != "{}" {
		t.Errorf("metadata = %q, want {}", metadata)
	}
}

func TestListEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db, testutil.TestLoggerSilent())
	ctx := context.Background()

	svc.LogJobEvent(ctx, "one", nil)
	svc.LogTranslationEvent(ctx, "two", nil)
	svc.LogLanguageEvent(ctx, "three", nil)
	_ = svc.LogEvent(ctx, model.EventLevelError, model.EventCategorySystem, "four", nil)

	page, err := svc.ListEvents(ctx, "", Pagination{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if page.Total != 4 {
		t.Errorf("Total = %d, want 4", page.Total)
	}
	if len(page.Items) != 2 {
		t.Errorf("len(Items) = %d, want 2", len(page.Items))
	}

	errorsOnly, err := svc.ListEvents(ctx, model.EventLevelError, Pagination{})
	if err != nil {
		t.Fatalf("ListEvents(error) failed: %v", err)
	}
	if errorsOnly.Total != 1 || errorsOnly.Items[0].Message != "four" {
		t.Errorf("error events = %+v, want only \"four\"", errorsOnly.Items)
	}
}

func TestDeleteOldEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db, testutil.TestLoggerSilent())
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	if _, err := db.Exec(`INSERT INTO events (level, category, message, metadata, created_at) VALUES ('info', 'system', 'old', '{}', ?)`, old); err != nil {
		t.Fatalf("failed to insert old event: %v", err)
	}
	svc.LogJobEvent(ctx, "recent", nil)

	deleted, err := svc.DeleteOldEvents(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	if count != 1 {
		t.Errorf("remaining events = %d, want 1", count)
	}
}
