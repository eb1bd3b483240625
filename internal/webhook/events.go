// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook delivers signed pipeline notifications to an HTTP endpoint.
package webhook

import (
	"time"
)

// Event represents a webhook event to be dispatched.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent creates a new webhook event.
func NewEvent(eventType string, data any) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Keyed is implemented by event data that identifies the entity it describes.
// Events with the same type and key are coalesced by the Debouncer.
type Keyed interface {
	EventKey() string
}

// eventKey returns the debounce key of an event.
func eventKey(event *Event) string {
	if k, ok := event.Data.(Keyed); ok {
		return event.Type + ":" + k.EventKey()
	}
	return event.Type
}

// TestEventData contains data for test webhook events.
type TestEventData struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
