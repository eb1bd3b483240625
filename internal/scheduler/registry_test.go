// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

func TestRegister(t *testing.T) {
	registry := NewRegistry(0, testLogger())

	cronInst := cron.New()
	defer cronInst.Stop()

	jobFunc := func() {}
	entryID, err := cronInst.AddFunc("@every 1h", jobFunc)
	if err != nil {
		t.Fatalf("failed to add cron job: %v", err)
	}
	cronInst.Start()

	if err := registry.Register("test-job", "Test job description", "@every 1h", cronInst, entryID, func() error { return nil }); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	jobs := registry.List()
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}

	job := jobs[0]
	if job.Name != "test-job" {
		t.Errorf("job.Name = %q, want %q", job.Name, "test-job")
	}
	if job.Description != "Test job description" {
		t.Errorf("job.Description = %q, want %q", job.Description, "Test job description")
	}
	if job.Schedule != "@every 1h" {
		t.Errorf("job.Schedule = %q, want %q", job.Schedule, "@every 1h")
	}
	if job.NextRun.IsZero() {
		t.Error("job.NextRun should be set for a started cron")
	}
	if !job.LastRun.IsZero() {
		t.Error("job.LastRun should be zero before the first run")
	}
}

func TestListSorted(t *testing.T) {
	registry := NewRegistry(0, testLogger())
	for _, name := range []string{"worker", "reclaim", "reconcile"} {
		if err := registry.Register(name, "", "", nil, 0, func() error { return nil }); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	jobs := registry.List()
	want := []string{"reclaim", "reconcile", "worker"}
	for i, name := range want {
		if jobs[i].Name != name {
			t.Errorf("jobs[%d].Name = %q, want %q", i, jobs[i].Name, name)
		}
	}
}

func TestTriggerNow(t *testing.T) {
	registry := NewRegistry(time.Nanosecond, testLogger())

	called := false
	_ = registry.Register("job", "", "", nil, 0, func() error {
		called = true
		return nil
	})

	if err := registry.TriggerNow("job"); err != nil {
		t.Fatalf("TriggerNow() error = %v", err)
	}
	if !called {
		t.Error("trigger function was not called")
	}
}

func TestTriggerNow_NotFound(t *testing.T) {
	registry := NewRegistry(0, testLogger())

	err := registry.TriggerNow("missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("TriggerNow() error = %v, want ErrJobNotFound", err)
	}
}

func TestTriggerNow_RateLimited(t *testing.T) {
	registry := NewRegistry(time.Hour, testLogger())
	calls := 0
	_ = registry.Register("job", "", "", nil, 0, func() error {
		calls++
		return nil
	})

	if err := registry.TriggerNow("job"); err != nil {
		t.Fatalf("first TriggerNow() error = %v", err)
	}
	err := registry.TriggerNow("job")
	if !errors.Is(err, ErrTriggerRateLimited) {
		t.Errorf("second TriggerNow() error = %v, want ErrTriggerRateLimited", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRecordRun(t *testing.T) {
	registry := NewRegistry(0, testLogger())
	_ = registry.Register("job", "", "", nil, 0, func() error { return nil })

	start := time.Now()
	registry.recordRun("job", start, errors.New("provider down"))

	job := registry.List()[0]
	if !job.LastRun.Equal(start) {
		t.Errorf("LastRun = %v, want %v", job.LastRun, start)
	}
	if job.LastError != "provider down" {
		t.Errorf("LastError = %q, want %q", job.LastError, "provider down")
	}

	registry.recordRun("job", time.Now(), nil)
	if job := registry.List()[0]; job.LastError != "" {
		t.Errorf("LastError = %q, want empty after success", job.LastError)
	}

	// Unknown jobs are ignored.
	registry.recordRun("missing", time.Now(), nil)
}
