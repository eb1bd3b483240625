// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/testutil"
)

func TestTableSource(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	ctx := context.Background()

	_, err := db.Exec(`CREATE TABLE pages (id INTEGER PRIMARY KEY, title TEXT, body TEXT, status TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO pages (id, title, body, status) VALUES
		(1, 'Welcome', '<p>Hello</p>', 'published'),
		(2, 'Draft', NULL, 'draft'),
		(3, 'About', '', 'published')`)
	require.NoError(t, err)

	src := &TableSource{
		DB:       db,
		Type:     "page",
		Table:    "pages",
		Fields:   []Field{{Column: "title"}, {Column: "body", Format: model.FormatHTML}},
		Where:    "status = 'published'",
		Priority: PriorityPage,
	}

	items, err := src.ListTranslatableFields(ctx)
	require.NoError(t, err)

	// Row 3 still yields an empty body; the enumerator drops it.
	require.Len(t, items, 4)
	assert.Equal(t, model.TranslatableItem{
		ContentType: "page", ContentID: "1", Field: "title", Value: "Welcome", Priority: PriorityPage, Format: model.FormatText,
	}, items[0])
	assert.Equal(t, model.FormatHTML, items[1].Format)
	assert.Equal(t, "3", items[2].ContentID)

	e, err := NewEnumerator(testutil.TestLogger(), src)
	require.NoError(t, err)
	res, err := e.Scan(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
}

func TestTableSourceValidate(t *testing.T) {
	db := testutil.TestMemoryDB(t)

	tests := []struct {
		name string
		src  TableSource
	}{
		{"bad table", TableSource{DB: db, Type: "x", Table: "pages; DROP TABLE pages", Fields: []Field{{Column: "title"}}}},
		{"bad column", TableSource{DB: db, Type: "x", Table: "pages", Fields: []Field{{Column: "title--"}}}},
		{"no fields", TableSource{DB: db, Type: "x", Table: "pages"}},
		{"bad format", TableSource{DB: db, Type: "x", Table: "pages", Fields: []Field{{Column: "title", Format: "markdown"}}}},
		{"no db", TableSource{Type: "x", Table: "pages", Fields: []Field{{Column: "title"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.src.Validate())
		})
	}
}

func TestTableSourceMissingTable(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	src := &TableSource{DB: db, Type: "tag", Table: "tags", Fields: []Field{{Column: "name"}}}

	_, err := src.ListTranslatableFields(context.Background())
	assert.Error(t, err)
}

func TestDefaultTableSources(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sources := DefaultTableSources(db)
	e, err := NewEnumerator(testutil.TestLogger(), sources...)
	require.NoError(t, err)
	assert.Equal(t, []string{"menu_item", "page", "category", "tag"}, e.ContentTypes())

	_, err = db.Exec(`INSERT INTO pages (title, slug, body, meta_description) VALUES ('Home', 'home', '<p>Hi</p>', NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO menu_items (title, is_active) VALUES ('Home', 1), ('Hidden', 0)`)
	require.NoError(t, err)

	res, err := e.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Failed)

	var keys []string
	for _, item := range res.Items {
		keys = append(keys, item.Key())
	}
	assert.ElementsMatch(t, []string{"menu_item/1/title", "page/1/title", "page/1/body"}, keys)
}
