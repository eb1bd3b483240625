// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olegiv/ocms-translate/internal/testutil"
)

func TestGenerateSignature(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		secret  string
	}{
		{"empty payload", []byte{}, "secret"},
		{"simple payload", []byte(`{"event":"test"}`), "mysecret"},
		{"event payload", []byte(`{"type":"translation.reconciled","data":{"jobs_created":3}}`), "webhook-secret-key"},
		{"empty secret", []byte(`test`), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateSignature(tt.payload, tt.secret)
			// SHA256 = 32 bytes = 64 hex chars
			if len(result) != 64 {
				t.Errorf("GenerateSignature() returned signature with length %d, expected 64", len(result))
			}
			if result2 := GenerateSignature(tt.payload, tt.secret); result != result2 {
				t.Errorf("GenerateSignature() not consistent: %s != %s", result, result2)
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"title":"Тест","content":"日本語"}`)
	signature := GenerateSignature(payload, "unicode-secret-ключ")

	if !VerifySignature(payload, signature, "unicode-secret-ключ") {
		t.Error("VerifySignature() should accept its own signature")
	}
	if VerifySignature(payload, signature, "wrong-secret") {
		t.Error("VerifySignature() should return false with wrong secret")
	}

	for _, bad := range []string{"", "not-a-valid-hex-string", "abc123", signature[:63] + "0"} {
		if bad == signature {
			continue
		}
		if VerifySignature(payload, bad, "unicode-secret-ключ") {
			t.Errorf("VerifySignature(%q) should return false", bad)
		}
	}
}

func TestShouldRetryStatus(t *testing.T) {
	tests := map[int]bool{
		http.StatusBadRequest:          false,
		http.StatusUnauthorized:        false,
		http.StatusNotFound:            false,
		http.StatusRequestTimeout:      true,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusServiceUnavailable:  true,
		http.StatusMovedPermanently:    false,
	}
	for code, want := range tests {
		if got := ShouldRetryStatus(code); got != want {
			t.Errorf("ShouldRetryStatus(%d) = %v, want %v", code, got, want)
		}
	}
}

type stats struct{ Count int }

type keyedStats struct{ ID string }

func (k keyedStats) EventKey() string { return k.ID }

func TestEventKey(t *testing.T) {
	if got := eventKey(NewEvent("translation.batch_completed", stats{Count: 1})); got != "translation.batch_completed" {
		t.Errorf("eventKey() = %q", got)
	}
	if got := eventKey(NewEvent("translation.jobs_failed", keyedStats{ID: "de"})); got != "translation.jobs_failed:de" {
		t.Errorf("eventKey() = %q", got)
	}
}

// receiver records webhook requests and answers with the queued status codes.
type receiver struct {
	mu       sync.Mutex
	statuses []int
	requests []*http.Request
	bodies   [][]byte
	calls    atomic.Int32
}

func (rc *receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rc.calls.Add(1)

	rc.mu.Lock()
	rc.requests = append(rc.requests, r)
	rc.bodies = append(rc.bodies, body)
	status := http.StatusNoContent
	if len(rc.statuses) > 0 {
		status = rc.statuses[0]
		rc.statuses = rc.statuses[1:]
	}
	rc.mu.Unlock()

	w.WriteHeader(status)
}

func newTestDispatcher(t *testing.T, rc *receiver, mutate func(*Config)) *Dispatcher {
	t.Helper()
	srv := httptest.NewServer(rc)
	t.Cleanup(srv.Close)

	cfg := Config{
		URL:            srv.URL,
		Secret:         "s3cret",
		Headers:        map[string]string{"X-Site": "docs"},
		AllowPrivate:   true,
		Workers:        1,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	d := NewDispatcher(cfg, testutil.TestLoggerSilent())
	d.Start(context.Background())
	return d
}

func TestDispatcher_DeliversSignedEvent(t *testing.T) {
	rc := &receiver{}
	d := newTestDispatcher(t, rc, nil)

	if err := d.DispatchEvent(context.Background(), "translation.reconciled", stats{Count: 3}); err != nil {
		t.Fatalf("DispatchEvent() error = %v", err)
	}
	d.Stop()

	if rc.calls.Load() != 1 {
		t.Fatalf("receiver got %d calls, want 1", rc.calls.Load())
	}
	req, body := rc.requests[0], rc.bodies[0]
	if got := req.Header.Get("X-Webhook-Event"); got != "translation.reconciled" {
		t.Errorf("X-Webhook-Event = %q", got)
	}
	if req.Header.Get("X-Webhook-Delivery-ID") == "" {
		t.Error("X-Webhook-Delivery-ID should be set")
	}
	if got := req.Header.Get("X-Site"); got != "docs" {
		t.Errorf("custom header = %q, want docs", got)
	}
	if !VerifySignature(body, req.Header.Get("X-Webhook-Signature"), "s3cret") {
		t.Error("signature does not match the payload")
	}

	var event struct {
		Type string `json:"type"`
		Data stats  `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if event.Type != "translation.reconciled" || event.Data.Count != 3 {
		t.Errorf("payload = %+v", event)
	}
}

func TestDispatcher_RetriesTransientFailures(t *testing.T) {
	rc := &receiver{statuses: []int{http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusOK}}
	d := newTestDispatcher(t, rc, nil)

	d.Notify(context.Background(), "translation.jobs_failed", stats{Count: 1})
	d.Stop()

	if got := rc.calls.Load(); got != 3 {
		t.Errorf("receiver got %d calls, want 3", got)
	}
}

func TestDispatcher_GivesUp(t *testing.T) {
	t.Run("client error is final", func(t *testing.T) {
		rc := &receiver{statuses: []int{http.StatusBadRequest, http.StatusOK}}
		d := newTestDispatcher(t, rc, nil)
		d.Notify(context.Background(), "translation.jobs_failed", nil)
		d.Stop()

		if got := rc.calls.Load(); got != 1 {
			t.Errorf("receiver got %d calls, want 1", got)
		}
	})

	t.Run("attempts exhausted", func(t *testing.T) {
		rc := &receiver{statuses: []int{500, 500, 500, 500, 500}}
		d := newTestDispatcher(t, rc, nil)
		d.Notify(context.Background(), "translation.jobs_failed", nil)
		d.Stop()

		if got := rc.calls.Load(); got != 3 {
			t.Errorf("receiver got %d calls, want 3", got)
		}
	})
}

func TestDispatcher_EventFilter(t *testing.T) {
	rc := &receiver{}
	d := newTestDispatcher(t, rc, func(c *Config) {
		c.Events = []string{"translation.jobs_failed"}
	})

	d.Notify(context.Background(), "translation.batch_completed", nil)
	d.Notify(context.Background(), "translation.jobs_failed", nil)
	d.Stop()

	if got := rc.calls.Load(); got != 1 {
		t.Fatalf("receiver got %d calls, want 1", got)
	}
	if got := rc.requests[0].Header.Get("X-Webhook-Event"); got != "translation.jobs_failed" {
		t.Errorf("delivered %q", got)
	}
}

func TestDispatcher_NotRunning(t *testing.T) {
	rc := &receiver{}
	d := newTestDispatcher(t, rc, nil)
	d.Stop()
	d.Stop()

	if err := d.DispatchEvent(context.Background(), "translation.reconciled", nil); err != nil {
		t.Errorf("DispatchEvent() after Stop error = %v", err)
	}
	if got := rc.calls.Load(); got != 0 {
		t.Errorf("receiver got %d calls, want 0", got)
	}
}

func TestDispatcher_BlocksPrivateEndpoints(t *testing.T) {
	rc := &receiver{}
	d := newTestDispatcher(t, rc, func(c *Config) { c.AllowPrivate = false })

	d.Notify(context.Background(), "translation.reconciled", nil)
	d.Stop()

	if got := rc.calls.Load(); got != 0 {
		t.Errorf("receiver on loopback got %d calls, want 0", got)
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"127.0.0.1", true},
		{"10.0.0.1", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"100.64.0.1", true},
		{"0.0.0.0", true},
		{"1.1.1.1", false},
		{"8.8.8.8", false},
		{"172.32.0.1", false},
		{"::1", true},
		{"fd00::1", true},
		{"2606:4700::1111", false},
	}
	for _, tt := range tests {
		if got := IsPrivateIP(net.ParseIP(tt.ip)); got != tt.private {
			t.Errorf("IsPrivateIP(%s) = %v, want %v", tt.ip, got, tt.private)
		}
	}
	if !IsPrivateIP(nil) {
		t.Error("IsPrivateIP(nil) should return true")
	}
}

func TestPublicOnlyDialContext(t *testing.T) {
	dial := publicOnlyDialContext(&net.Dialer{})
	for _, addr := range []string{"127.0.0.1:80", "10.0.0.1:80", "[::1]:80"} {
		_, err := dial(t.Context(), "tcp", addr)
		if err == nil || !strings.Contains(err.Error(), "private IP") {
			t.Errorf("dial(%s) error = %v, want private IP error", addr, err)
		}
	}
}

func TestDebouncer_Coalesces(t *testing.T) {
	rc := &receiver{}
	d := newTestDispatcher(t, rc, nil)
	deb := NewDebouncer(d, DebounceConfig{Interval: time.Hour, MaxWait: time.Hour})

	ctx := context.Background()
	deb.Notify(ctx, "translation.batch_completed", stats{Count: 1})
	deb.Notify(ctx, "translation.batch_completed", stats{Count: 2})
	deb.Notify(ctx, "translation.jobs_failed", keyedStats{ID: "de"})
	deb.Notify(ctx, "translation.jobs_failed", keyedStats{ID: "fr"})

	if got := deb.PendingCount(); got != 3 {
		t.Fatalf("PendingCount() = %d, want 3", got)
	}

	deb.Stop()
	d.Stop()

	if got := rc.calls.Load(); got != 3 {
		t.Fatalf("receiver got %d calls, want 3", got)
	}
	var coalesced bool
	for i, req := range rc.requests {
		if req.Header.Get("X-Webhook-Event") != "translation.batch_completed" {
			continue
		}
		var event struct {
			Data CoalescedData `json:"data"`
		}
		if err := json.Unmarshal(rc.bodies[i], &event); err != nil {
			t.Fatalf("payload is not JSON: %v", err)
		}
		coalesced = event.Data.Count == 2
	}
	if !coalesced {
		t.Error("batch_completed events should be merged into one delivery with count 2")
	}
}

func TestDebouncer_IntervalElapses(t *testing.T) {
	rc := &receiver{}
	d := newTestDispatcher(t, rc, nil)
	deb := NewDebouncer(d, DebounceConfig{Interval: 10 * time.Millisecond})

	deb.Notify(context.Background(), "translation.reconciled", stats{Count: 1})

	deadline := time.Now().Add(2 * time.Second)
	for rc.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := rc.calls.Load(); got != 1 {
		t.Errorf("receiver got %d calls, want 1", got)
	}
	if got := deb.PendingCount(); got != 0 {
		t.Errorf("PendingCount() = %d, want 0", got)
	}
	deb.Stop()
	d.Stop()
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Workers != 2 || cfg.MaxAttempts != MaxAttempts {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}

	filled := Config{}.withDefaults()
	if filled.QueueSize != 100 || filled.DrainTimeout != 10*time.Second {
		t.Errorf("withDefaults() = %+v", filled)
	}
}
