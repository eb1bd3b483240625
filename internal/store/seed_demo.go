// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// SeedDemo fills the host content tables with sample records so a standalone
// install has something to translate. Tables that already hold rows are left alone.
func SeedDemo(ctx context.Context, db *sql.DB, enabled bool) error {
	if !enabled {
		return nil
	}

	slog.Info("seeding demo content")

	return RunInTx(ctx, db, func(q *Queries) error {
		if err := seedDemoPages(ctx, q); err != nil {
			return fmt.Errorf("seeding demo pages: %w", err)
		}
		if err := seedDemoMenuItems(ctx, q); err != nil {
			return fmt.Errorf("seeding demo menu items: %w", err)
		}
		if err := seedDemoCategories(ctx, q); err != nil {
			return fmt.Errorf("seeding demo categories: %w", err)
		}
		if err := seedDemoTags(ctx, q); err != nil {
			return fmt.Errorf("seeding demo tags: %w", err)
		}
		return nil
	})
}

func (q *Queries) tableIsEmpty(ctx context.Context, table string) (bool, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func seedDemoPages(ctx context.Context, q *Queries) error {
	empty, err := q.tableIsEmpty(ctx, "pages")
	if err != nil || !empty {
		return err
	}

	pages := []struct {
		title, slug, body, meta string
	}{
		{
			title: "Welcome to oCMS",
			slug:  "welcome",
			body:  "<p>oCMS is a lightweight content management system.</p><p>Content you write here is translated into every active language.</p>",
			meta:  "An introduction to oCMS",
		},
		{
			title: "About Us",
			slug:  "about",
			body:  "<h2>Our story</h2><p>We build simple tools for publishing on the web.</p>",
			meta:  "Who we are and what we do",
		},
		{
			title: "Contact",
			slug:  "contact",
			body:  "<p>Write to us at <a href=\"mailto:hello@example.com\">hello@example.com</a>.</p>",
			meta:  "",
		},
	}

	for _, p := range pages {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO pages (title, slug, body, meta_description, status) VALUES (?, ?, ?, ?, 'published')`,
			p.title, p.slug, p.body, p.meta,
		); err != nil {
			return err
		}
	}
	slog.Info("created demo pages", "count", len(pages))
	return nil
}

func seedDemoMenuItems(ctx context.Context, q *Queries) error {
	empty, err := q.tableIsEmpty(ctx, "menu_items")
	if err != nil || !empty {
		return err
	}

	items := []struct {
		title, url string
	}{
		{"Home", "/"},
		{"About", "/about"},
		{"Contact", "/contact"},
	}
	for i, item := range items {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO menu_items (menu, title, url, position, is_active) VALUES ('main', ?, ?, ?, 1)`,
			item.title, item.url, i,
		); err != nil {
			return err
		}
	}
	slog.Info("created demo menu items", "count", len(items))
	return nil
}

func seedDemoCategories(ctx context.Context, q *Queries) error {
	empty, err := q.tableIsEmpty(ctx, "categories")
	if err != nil || !empty {
		return err
	}

	categories := []struct {
		name, slug, description string
	}{
		{"News", "news", "Announcements and updates"},
		{"Guides", "guides", "Step by step tutorials"},
	}
	for _, c := range categories {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO categories (name, slug, description) VALUES (?, ?, ?)`,
			c.name, c.slug, c.description,
		); err != nil {
			return err
		}
	}
	slog.Info("created demo categories", "count", len(categories))
	return nil
}

func seedDemoTags(ctx context.Context, q *Queries) error {
	empty, err := q.tableIsEmpty(ctx, "tags")
	if err != nil || !empty {
		return err
	}

	tags := []string{"Getting Started", "Release", "Tips"}
	for _, name := range tags {
		if _, err := q.db.ExecContext(ctx, `INSERT INTO tags (name, slug) VALUES (?, lower(replace(?, ' ', '-')))`, name, name); err != nil {
			return err
		}
	}
	slog.Info("created demo tags", "count", len(tags))
	return nil
}
