// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type counters struct {
	Total int64 `json:"total"`
}

func TestTypedCache_GetOrSet(t *testing.T) {
	mem := NewMemoryCache(time.Hour, 0)
	defer func() { _ = mem.Close() }()
	tc := NewTypedCache[counters](mem, time.Minute)
	ctx := context.Background()

	calls := 0
	load := func() (*counters, error) {
		calls++
		return &counters{Total: 42}, nil
	}

	for range 3 {
		got, err := tc.GetOrSet(ctx, "stats", load)
		if err != nil {
			t.Fatalf("GetOrSet: %v", err)
		}
		if got.Total != 42 {
			t.Errorf("Total = %d, want 42", got.Total)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}

	_ = tc.Delete(ctx, "stats")
	if _, ok := tc.Get(ctx, "stats"); ok {
		t.Error("expected miss after Delete")
	}
}

func TestTypedCache_LoaderError(t *testing.T) {
	mem := NewMemoryCache(time.Hour, 0)
	defer func() { _ = mem.Close() }()
	tc := NewTypedCache[counters](mem, time.Minute)

	boom := errors.New("db down")
	_, err := tc.GetOrSet(context.Background(), "stats", func() (*counters, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected loader error, got %v", err)
	}
	if _, ok := tc.Get(context.Background(), "stats"); ok {
		t.Error("failed load must not be cached")
	}
}

func TestTypedCache_UndecodableEntry(t *testing.T) {
	mem := NewMemoryCache(time.Hour, 0)
	defer func() { _ = mem.Close() }()
	_ = mem.Set(context.Background(), "stats", []byte("not json"), 0)

	tc := NewTypedCache[counters](mem, time.Minute)
	if _, ok := tc.Get(context.Background(), "stats"); ok {
		t.Error("expected undecodable entry to miss")
	}
}
