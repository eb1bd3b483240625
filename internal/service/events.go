// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the translation synchronization pipeline:
// language registry, reconciliation, job processing and the admin surface.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/store"
)

// EventService records audit events for admin actions.
type EventService struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, logger *slog.Logger) *EventService {
	return &EventService{
		queries: store.New(db),
		logger:  logger,
	}
}

// LogEvent creates a new event log entry. Failures are logged and returned.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  metadataJSON,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to log event", "error", err, "message", message)
		return err
	}
	return nil
}

// LogJobEvent logs an info-level job event.
func (s *EventService) LogJobEvent(ctx context.Context, message string, metadata map[string]any) {
	_ = s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryJob, message, metadata)
}

// LogTranslationEvent logs an info-level translation event.
func (s *EventService) LogTranslationEvent(ctx context.Context, message string, metadata map[string]any) {
	_ = s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryTranslation, message, metadata)
}

// LogLanguageEvent logs an info-level language event.
func (s *EventService) LogLanguageEvent(ctx context.Context, message string, metadata map[string]any) {
	_ = s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryLanguage, message, metadata)
}

// EventPage is a page of events.
type EventPage struct {
	Items []store.Event `json:"items"`
	Total int64         `json:"total"`
}

// ListEvents returns events newest first, optionally filtered by level.
func (s *EventService) ListEvents(ctx context.Context, level string, p Pagination) (*EventPage, error) {
	p = p.normalize()
	items, err := s.queries.ListEvents(ctx, level, p.limit(), p.offset())
	if err != nil {
		return nil, persistErr("listing events", err)
	}
	total, err := s.queries.CountEvents(ctx, level)
	if err != nil {
		return nil, persistErr("counting events", err)
	}
	return &EventPage{Items: items, Total: total}, nil
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.queries.DeleteEventsBefore(ctx, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, persistErr("deleting old events", err)
	}
	return n, nil
}
