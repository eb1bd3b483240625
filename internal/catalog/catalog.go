// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package catalog enumerates the translatable text fields of all registered
// content sources.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/olegiv/ocms-translate/internal/model"
)

// Content type priorities. Higher values are translated first.
const (
	PriorityUI       int64 = 100
	PriorityMenuItem int64 = 80
	PriorityPage     int64 = 60
	PriorityCategory int64 = 40
	PriorityTag      int64 = 30
)

// Source lists the translatable fields of one content type.
type Source interface {
	ContentType() string
	ListTranslatableFields(ctx context.Context) ([]model.TranslatableItem, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc struct {
	Type string
	Fn   func(ctx context.Context) ([]model.TranslatableItem, error)
}

// ContentType implements Source.
func (s SourceFunc) ContentType() string { return s.Type }

// ListTranslatableFields implements Source.
func (s SourceFunc) ListTranslatableFields(ctx context.Context) ([]model.TranslatableItem, error) {
	return s.Fn(ctx)
}

// ErrDuplicateSource is returned when a content type is registered twice.
var ErrDuplicateSource = errors.New("content type already registered")

// ScanResult is the outcome of one catalog scan.
type ScanResult struct {
	// Items are the non-empty translatable fields found.
	Items []model.TranslatableItem
	// Scanned lists the content types whose source completed.
	Scanned []string
	// Failed maps content types whose source returned an error to that error.
	Failed map[string]error
	// Rejected holds items dropped for missing identity fields.
	Rejected []error
}

// Succeeded reports whether the source for contentType completed.
func (r *ScanResult) Succeeded(contentType string) bool {
	for _, ct := range r.Scanned {
		if ct == contentType {
			return true
		}
	}
	return false
}

// Enumerator scans all registered sources.
type Enumerator struct {
	mu      sync.RWMutex
	sources []Source
	logger  *slog.Logger
}

// NewEnumerator creates an enumerator with the given sources.
func NewEnumerator(logger *slog.Logger, sources ...Source) (*Enumerator, error) {
	e := &Enumerator{logger: logger}
	for _, src := range sources {
		if err := e.Register(src); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Register adds a source. Content types must be unique and non-empty.
func (e *Enumerator) Register(src Source) error {
	ct := src.ContentType()
	if strings.TrimSpace(ct) == "" {
		return errors.New("source content type is empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, existing := range e.sources {
		if existing.ContentType() == ct {
			return fmt.Errorf("%w: %s", ErrDuplicateSource, ct)
		}
	}
	e.sources = append(e.sources, src)
	return nil
}

// ContentTypes returns the registered content types in registration order.
func (e *Enumerator) ContentTypes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	types := make([]string, 0, len(e.sources))
	for _, src := range e.sources {
		types = append(types, src.ContentType())
	}
	return types
}

// Scan visits every registered source and returns their translatable fields.
// A failing source is recorded in the result and the scan continues. Scan only
// returns an error when ctx is cancelled.
func (e *Enumerator) Scan(ctx context.Context) (*ScanResult, error) {
	e.mu.RLock()
	sources := make([]Source, len(e.sources))
	copy(sources, e.sources)
	e.mu.RUnlock()

	result := &ScanResult{Failed: make(map[string]error)}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ct := src.ContentType()
		items, err := src.ListTranslatableFields(ctx)
		if err != nil {
			e.logger.Warn("catalog source failed", "content_type", ct, "error", err)
			result.Failed[ct] = err
			continue
		}

		kept := 0
		for _, item := range items {
			if item.ContentType == "" {
				item.ContentType = ct
			}
			if item.Format == "" {
				item.Format = model.FormatText
			}
			if strings.TrimSpace(item.Value) == "" {
				continue
			}
			if missing := item.IdentityFor("-").Missing(); missing != "" {
				result.Rejected = append(result.Rejected, fmt.Errorf("%s item %q: missing %s", ct, item.Key(), missing))
				continue
			}
			result.Items = append(result.Items, item)
			kept++
		}
		result.Scanned = append(result.Scanned, ct)
		e.logger.Debug("catalog source scanned", "content_type", ct, "items", kept)
	}

	return result, nil
}
