// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-translate/internal/model"
)

// ErrQueueFull is returned by Dispatch when the delivery queue is full.
var ErrQueueFull = errors.New("webhook delivery queue is full")

// Dispatcher handles webhook event dispatching and queuing.
type Dispatcher struct {
	cfg     Config
	client  *http.Client
	logger  *slog.Logger
	queue   chan *QueuedDelivery
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	mu      sync.RWMutex
	running bool
}

// QueuedDelivery represents a delivery queued for processing.
type QueuedDelivery struct {
	DeliveryID string
	Event      string
	Payload    []byte
}

// Config holds dispatcher configuration.
type Config struct {
	URL     string
	Secret  string
	Headers map[string]string
	// Events limits deliveries to these event types. Empty means all.
	Events []string
	// AllowPrivate permits endpoints on loopback and private networks.
	AllowPrivate bool

	Workers        int           // Number of concurrent delivery workers
	QueueSize      int           // Buffered deliveries before Dispatch rejects
	MaxAttempts    int           // Attempts per delivery, including the first
	InitialBackoff time.Duration // Delay before the first retry, doubled per attempt
	MaxBackoff     time.Duration // Upper bound of a single retry delay
	DrainTimeout   time.Duration // How long Stop waits for queued deliveries
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:        2,
		QueueSize:      100,
		MaxAttempts:    MaxAttempts,
		InitialBackoff: InitialBackoff,
		MaxBackoff:     MaxBackoff,
		DrainTimeout:   10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = d.DrainTimeout
	}
	return c
}

// NewDispatcher creates a new webhook dispatcher.
func NewDispatcher(cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	client := httpClient
	if !cfg.AllowPrivate {
		client = publicOnlyClient()
	}

	return &Dispatcher{
		cfg:    cfg,
		client: client,
		logger: logger,
		queue:  make(chan *QueuedDelivery, cfg.QueueSize),
	}
}

// Start starts the dispatcher workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true

	ctx, d.cancel = context.WithCancel(context.WithoutCancel(ctx))
	d.logger.Debug("starting webhook dispatcher", "workers", d.cfg.Workers, "url", d.cfg.URL)

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop rejects new events, waits up to DrainTimeout for queued deliveries
// and then cancels the ones still in flight.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d.cfg.DrainTimeout):
		d.logger.Warn("webhook deliveries still pending at shutdown, cancelling",
			"category", model.EventCategoryWebhook, "pending", len(d.queue))
		d.cancel()
		<-done
	}
	d.cancel()
	d.logger.Debug("webhook dispatcher stopped")
}

// worker processes queued deliveries until the queue is closed.
func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.logger.Debug("webhook worker started", "worker_id", id)

	for delivery := range d.queue {
		if ctx.Err() != nil {
			continue
		}
		d.processDelivery(ctx, delivery)
	}
	d.logger.Debug("webhook worker stopping", "worker_id", id)
}

// Subscribed reports whether events of eventType are delivered.
func (d *Dispatcher) Subscribed(eventType string) bool {
	return len(d.cfg.Events) == 0 || slices.Contains(d.cfg.Events, eventType)
}

// Dispatch queues an event for delivery. Unsubscribed events are ignored.
func (d *Dispatcher) Dispatch(_ context.Context, event *Event) error {
	if !d.Subscribed(event.Type) {
		d.logger.Debug("webhook not subscribed to event", "event_type", event.Type)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	qd := &QueuedDelivery{
		DeliveryID: uuid.NewString(),
		Event:      event.Type,
		Payload:    payload,
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.running {
		d.logger.Warn("dispatcher not running, cannot dispatch event",
			"category", model.EventCategoryWebhook, "event_type", event.Type)
		return nil
	}

	select {
	case d.queue <- qd:
		d.logger.Debug("delivery queued", "delivery_id", qd.DeliveryID, "event_type", event.Type)
		return nil
	default:
		return ErrQueueFull
	}
}

// DispatchEvent is a convenience method to dispatch an event with the given type and data.
func (d *Dispatcher) DispatchEvent(ctx context.Context, eventType string, data any) error {
	return d.Dispatch(ctx, NewEvent(eventType, data))
}

// Notify dispatches an event and logs failures instead of returning them.
func (d *Dispatcher) Notify(ctx context.Context, eventType string, data any) {
	if err := d.DispatchEvent(ctx, eventType, data); err != nil {
		d.logger.Warn("failed to dispatch webhook event",
			"category", model.EventCategoryWebhook, "event_type", eventType, "error", err)
	}
}

// GenerateSignature generates an HMAC-SHA256 signature for the payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies an HMAC-SHA256 signature.
func VerifySignature(payload []byte, signature, secret string) bool {
	expectedSig := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expectedSig))
}
