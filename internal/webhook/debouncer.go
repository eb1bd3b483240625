// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/olegiv/ocms-translate/internal/model"
)

// DebounceConfig holds debouncer configuration.
type DebounceConfig struct {
	// Interval is the debounce window duration.
	// Events within this window will be coalesced into a single event.
	Interval time.Duration
	// MaxWait is the maximum time to wait before dispatching.
	// Even if events keep coming, dispatch after this time.
	MaxWait time.Duration
}

// DefaultDebounceConfig returns default debounce configuration.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		Interval: 5 * time.Second,
		MaxWait:  time.Minute,
	}
}

// pendingEvent tracks a debounced event.
type pendingEvent struct {
	event     *Event
	count     int
	timer     *time.Timer
	firstSeen time.Time
}

// CoalescedData wraps the latest data of events merged by the Debouncer.
type CoalescedData struct {
	Count int `json:"count"`
	Data  any `json:"data"`
}

// Debouncer coalesces rapid-fire events into single deliveries.
// A worker running every minute reports one batch per run; subscribers
// get the latest report of each window with the number of merged events.
type Debouncer struct {
	dispatcher *Dispatcher
	config     DebounceConfig
	pending    map[string]*pendingEvent
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewDebouncer creates a new event debouncer.
func NewDebouncer(dispatcher *Dispatcher, config DebounceConfig) *Debouncer {
	if config.Interval <= 0 {
		config.Interval = DefaultDebounceConfig().Interval
	}
	if config.MaxWait < config.Interval {
		config.MaxWait = config.Interval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Debouncer{
		dispatcher: dispatcher,
		config:     config,
		pending:    make(map[string]*pendingEvent),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Dispatch queues an event for debounced delivery.
// If an event with the same key is already pending, it is replaced with
// the latest data and the timer is reset.
func (d *Debouncer) Dispatch(_ context.Context, event *Event) error {
	key := eventKey(event)
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.pending[key]; ok {
		existing.event = event
		existing.count++

		if now.Sub(existing.firstSeen) >= d.config.MaxWait {
			d.dispatchLocked(key)
			return nil
		}

		existing.timer.Reset(d.config.Interval)
		d.dispatcher.logger.Debug("debounced event updated",
			"key", key,
			"count", existing.count,
			"wait_time", now.Sub(existing.firstSeen))
		return nil
	}

	pe := &pendingEvent{
		event:     event,
		count:     1,
		firstSeen: now,
	}
	pe.timer = time.AfterFunc(d.config.Interval, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.dispatchLocked(key)
	})

	d.pending[key] = pe
	d.dispatcher.logger.Debug("debounced event queued", "key", key, "event_type", event.Type)
	return nil
}

// dispatchLocked hands a pending event to the dispatcher. Must be called with lock held.
func (d *Debouncer) dispatchLocked(key string) {
	pe, ok := d.pending[key]
	if !ok {
		return
	}
	pe.timer.Stop()
	delete(d.pending, key)

	event := pe.event
	if pe.count > 1 {
		event = &Event{
			Type:      event.Type,
			Timestamp: event.Timestamp,
			Data:      CoalescedData{Count: pe.count, Data: event.Data},
		}
	}
	if err := d.dispatcher.Dispatch(d.ctx, event); err != nil {
		d.dispatcher.logger.Warn("failed to dispatch debounced event",
			"category", model.EventCategoryWebhook, "error", err, "event_type", event.Type)
	}
}

// Flush immediately dispatches all pending events.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.pending {
		d.dispatchLocked(key)
	}
}

// Stop flushes pending events. The dispatcher must be stopped afterwards.
func (d *Debouncer) Stop() {
	d.Flush()
	d.cancel()
}

// PendingCount returns the number of pending events.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Notify queues an event with debouncing and logs failures.
func (d *Debouncer) Notify(ctx context.Context, eventType string, data any) {
	if !d.dispatcher.Subscribed(eventType) {
		return
	}
	if err := d.Dispatch(ctx, NewEvent(eventType, data)); err != nil {
		d.dispatcher.logger.Warn("failed to queue webhook event",
			"category", model.EventCategoryWebhook, "event_type", eventType, "error", err)
	}
}
