// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// SeedLanguages are inserted into an empty languages table. The first entry is the default.
var SeedLanguages = []CreateLanguageParams{
	{ID: "en", Name: "English", NativeName: "English", IsDefault: true, IsActive: true, SortOrder: 0},
	{ID: "de", Name: "German", NativeName: "Deutsch", IsActive: true, SortOrder: 1},
	{ID: "fr", Name: "French", NativeName: "Français", IsActive: true, SortOrder: 2},
	{ID: "es", Name: "Spanish", NativeName: "Español", IsActive: true, SortOrder: 3},
}

// Seed creates the initial languages when seeding is enabled and none exist.
func Seed(ctx context.Context, db *sql.DB, doSeed bool) error {
	if !doSeed {
		slog.Info("seeding disabled, skipping")
		return nil
	}

	queries := New(db)
	count, err := queries.CountLanguages(ctx)
	if err != nil {
		return fmt.Errorf("counting languages: %w", err)
	}
	if count > 0 {
		slog.Info("languages already exist, skipping seed", "count", count)
		return nil
	}

	now := time.Now().UTC()
	return RunInTx(ctx, db, func(q *Queries) error {
		for _, lang := range SeedLanguages {
			lang.CreatedAt = now
			lang.UpdatedAt = now
			if _, err := q.CreateLanguage(ctx, lang); err != nil {
				return fmt.Errorf("creating language %s: %w", lang.ID, err)
			}
		}
		slog.Info("seeded languages", "count", len(SeedLanguages))
		return nil
	})
}
