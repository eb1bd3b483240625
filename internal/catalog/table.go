// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/olegiv/ocms-translate/internal/model"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Field maps a table column to a translatable field.
type Field struct {
	Column string
	// Name is the field name in the identity. Defaults to Column.
	Name   string
	Format string
}

func (f Field) name() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Column
}

// TableSource reads translatable fields from a host content table.
type TableSource struct {
	DB       Querier
	Type     string
	Table    string
	IDColumn string
	Fields   []Field
	// Where is an optional SQL condition appended to the query.
	Where    string
	Priority int64
}

// ContentType implements Source.
func (s *TableSource) ContentType() string { return s.Type }

// Validate checks the table, column and field definitions.
func (s *TableSource) Validate() error {
	if s.DB == nil {
		return fmt.Errorf("%s: no database", s.Type)
	}
	if !identifierPattern.MatchString(s.Table) {
		return fmt.Errorf("%s: invalid table name %q", s.Type, s.Table)
	}
	if !identifierPattern.MatchString(s.idColumn()) {
		return fmt.Errorf("%s: invalid id column %q", s.Type, s.idColumn())
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("%s: no fields", s.Type)
	}
	for _, f := range s.Fields {
		if !identifierPattern.MatchString(f.Column) {
			return fmt.Errorf("%s: invalid column %q", s.Type, f.Column)
		}
		if f.Format != "" && f.Format != model.FormatText && f.Format != model.FormatHTML {
			return fmt.Errorf("%s: invalid format %q for column %s", s.Type, f.Format, f.Column)
		}
	}
	return nil
}

func (s *TableSource) idColumn() string {
	if s.IDColumn == "" {
		return "id"
	}
	return s.IDColumn
}

func (s *TableSource) query() string {
	cols := make([]string, 0, len(s.Fields)+1)
	cols = append(cols, "CAST("+s.idColumn()+" AS TEXT)")
	for _, f := range s.Fields {
		cols = append(cols, f.Column)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.Table)
	if s.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where)
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(s.idColumn())
	return b.String()
}

// ListTranslatableFields implements Source.
func (s *TableSource) ListTranslatableFields(ctx context.Context) ([]model.TranslatableItem, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, s.query())
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.Table, err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.TranslatableItem
	values := make([]sql.NullString, len(s.Fields))
	dest := make([]any, len(s.Fields)+1)
	for rows.Next() {
		var id string
		dest[0] = &id
		for i := range values {
			dest[i+1] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.Table, err)
		}

		for i, f := range s.Fields {
			if !values[i].Valid {
				continue
			}
			format := f.Format
			if format == "" {
				format = model.FormatText
			}
			items = append(items, model.TranslatableItem{
				ContentType: s.Type,
				ContentID:   id,
				Field:       f.name(),
				Value:       values[i].String,
				Priority:    s.Priority,
				Format:      format,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Table, err)
	}
	return items, nil
}

// DefaultTableSources returns the sources for the CMS content tables.
func DefaultTableSources(db Querier) []Source {
	return []Source{
		&TableSource{
			DB:       db,
			Type:     "menu_item",
			Table:    "menu_items",
			Fields:   []Field{{Column: "title"}},
			Where:    "is_active = 1",
			Priority: PriorityMenuItem,
		},
		&TableSource{
			DB:    db,
			Type:  "page",
			Table: "pages",
			Fields: []Field{
				{Column: "title"},
				{Column: "meta_description"},
				{Column: "body", Format: model.FormatHTML},
			},
			Priority: PriorityPage,
		},
		&TableSource{
			DB:       db,
			Type:     "category",
			Table:    "categories",
			Fields:   []Field{{Column: "name"}, {Column: "description"}},
			Priority: PriorityCategory,
		},
		&TableSource{
			DB:       db,
			Type:     "tag",
			Table:    "tags",
			Fields:   []Field{{Column: "name"}},
			Priority: PriorityTag,
		},
	}
}
