// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/olegiv/ocms-translate/internal/model"
)

// Delivery configuration constants
const (
	MaxAttempts    = 5                  // Maximum number of delivery attempts
	InitialBackoff = 1 * time.Second    // Initial backoff delay
	MaxBackoff     = 30 * time.Second   // Maximum backoff delay
	RequestTimeout = 10 * time.Second   // HTTP request timeout
	MaxResponseLen = 10 * 1024          // Maximum response body to keep (10KB)
	UserAgent      = "ocms-translate/1" // User-Agent header value
)

// DeliveryResult represents the result of a delivery attempt.
type DeliveryResult struct {
	Success      bool
	StatusCode   int
	ResponseBody string
	Error        error
	ShouldRetry  bool
}

// httpClient is the shared HTTP client with appropriate timeouts.
var httpClient = &http.Client{
	Timeout: RequestTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// backoff returns the retry policy for one delivery.
func (d *Dispatcher) backoff() retry.Backoff {
	b := retry.NewExponential(d.cfg.InitialBackoff)
	b = retry.WithCappedDuration(d.cfg.MaxBackoff, b)
	return retry.WithMaxRetries(uint64(d.cfg.MaxAttempts-1), b)
}

// processDelivery delivers a payload, retrying transient failures.
func (d *Dispatcher) processDelivery(ctx context.Context, delivery *QueuedDelivery) {
	var (
		attempts int
		last     DeliveryResult
	)

	err := retry.Do(ctx, d.backoff(), func(ctx context.Context) error {
		attempts++
		last = d.attemptDelivery(ctx, delivery)
		if last.Success {
			return nil
		}
		if last.ShouldRetry {
			d.logger.Debug("webhook delivery failed, retrying",
				"delivery_id", delivery.DeliveryID,
				"attempt", attempts,
				"error", last.Error)
			return retry.RetryableError(last.Error)
		}
		return last.Error
	})

	if err == nil {
		d.logger.Info("webhook delivered successfully",
			"delivery_id", delivery.DeliveryID,
			"event", delivery.Event,
			"status_code", last.StatusCode,
			"attempts", attempts)
		return
	}

	d.logger.Warn("webhook delivery abandoned",
		"category", model.EventCategoryWebhook,
		"delivery_id", delivery.DeliveryID,
		"event", delivery.Event,
		"attempts", attempts,
		"status_code", last.StatusCode,
		"error", err)
}

// attemptDelivery performs the actual HTTP POST request.
func (d *Dispatcher) attemptDelivery(ctx context.Context, delivery *QueuedDelivery) DeliveryResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.URL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return DeliveryResult{
			Success:     false,
			Error:       fmt.Errorf("failed to create request: %w", err),
			ShouldRetry: false, // Bad URL, don't retry
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	if d.cfg.Secret != "" {
		req.Header.Set("X-Webhook-Signature", GenerateSignature(delivery.Payload, d.cfg.Secret))
	}
	req.Header.Set("X-Webhook-Event", delivery.Event)
	req.Header.Set("X-Webhook-Delivery-ID", delivery.DeliveryID)

	for key, value := range d.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return DeliveryResult{
			Success:     false,
			Error:       fmt.Errorf("request failed: %w", err),
			ShouldRetry: ctx.Err() == nil, // Network error, retry
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	responseBody := string(body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return DeliveryResult{
			Success:      true,
			StatusCode:   resp.StatusCode,
			ResponseBody: responseBody,
		}
	}

	result := DeliveryResult{
		Success:      false,
		StatusCode:   resp.StatusCode,
		ResponseBody: responseBody,
		Error:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		ShouldRetry:  ShouldRetryStatus(resp.StatusCode),
	}
	return result
}

// ShouldRetryStatus reports whether a non-2xx response is worth retrying.
// Client errors are final except 408 Request Timeout and 429 Too Many Requests.
func ShouldRetryStatus(code int) bool {
	if code >= 400 && code < 500 {
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
	}
	return code >= 500 || code < 200
}
