// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const languageColumns = `id, name, native_name, is_default, is_active, sort_order, created_at, updated_at`

func scanLanguage(row rowScanner) (Language, error) {
	var l Language
	err := row.Scan(&l.ID, &l.Name, &l.NativeName, &l.IsDefault, &l.IsActive, &l.SortOrder, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (q *Queries) queryLanguages(ctx context.Context, query string, args ...any) ([]Language, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Language
	for rows.Next() {
		l, err := scanLanguage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListLanguages returns all languages ordered by sort order.
func (q *Queries) ListLanguages(ctx context.Context) ([]Language, error) {
	return q.queryLanguages(ctx, `SELECT `+languageColumns+` FROM languages ORDER BY sort_order, id`)
}

// ListTargetLanguages returns active languages that are not the default language.
func (q *Queries) ListTargetLanguages(ctx context.Context) ([]Language, error) {
	return q.queryLanguages(ctx, `SELECT `+languageColumns+` FROM languages
		WHERE is_active = 1 AND is_default = 0
		ORDER BY sort_order, id`)
}

// GetLanguage returns a language by its code.
func (q *Queries) GetLanguage(ctx context.Context, id string) (Language, error) {
	return scanLanguage(q.db.QueryRowContext(ctx, `SELECT `+languageColumns+` FROM languages WHERE id = ?`, id))
}

// GetDefaultLanguage returns the default language.
func (q *Queries) GetDefaultLanguage(ctx context.Context) (Language, error) {
	return scanLanguage(q.db.QueryRowContext(ctx, `SELECT `+languageColumns+` FROM languages WHERE is_default = 1 LIMIT 1`))
}

// CountLanguages returns the number of languages.
func (q *Queries) CountLanguages(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM languages`).Scan(&n)
	return n, err
}

// CreateLanguageParams holds the values of a new language.
type CreateLanguageParams struct {
	ID         string
	Name       string
	NativeName string
	IsDefault  bool
	IsActive   bool
	SortOrder  int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateLanguage inserts a language.
func (q *Queries) CreateLanguage(ctx context.Context, arg CreateLanguageParams) (Language, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO languages (id, name, native_name, is_default, is_active, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.Name, arg.NativeName, arg.IsDefault, arg.IsActive, arg.SortOrder, arg.CreatedAt, arg.UpdatedAt,
	)
	if err != nil {
		return Language{}, err
	}
	return q.GetLanguage(ctx, arg.ID)
}

// UpdateLanguageParams holds the mutable attributes of a language.
type UpdateLanguageParams struct {
	ID         string
	Name       string
	NativeName string
	IsActive   bool
	SortOrder  int64
	UpdatedAt  time.Time
}

// UpdateLanguage updates a language's attributes.
// It returns sql.ErrNoRows when the language does not exist.
func (q *Queries) UpdateLanguage(ctx context.Context, arg UpdateLanguageParams) (Language, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE languages
		SET name = ?, native_name = ?, is_active = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		arg.Name, arg.NativeName, arg.IsActive, arg.SortOrder, arg.UpdatedAt, arg.ID,
	)
	if err != nil {
		return Language{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return Language{}, err
	} else if n == 0 {
		return Language{}, sql.ErrNoRows
	}
	return q.GetLanguage(ctx, arg.ID)
}

// ClearDefaultLanguage removes the default flag from all languages.
func (q *Queries) ClearDefaultLanguage(ctx context.Context, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE languages SET is_default = 0, updated_at = ? WHERE is_default = 1`, now)
	return err
}

// SetDefaultLanguage marks a language as the default. The default language is always active.
func (q *Queries) SetDefaultLanguage(ctx context.Context, id string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE languages SET is_default = 1, is_active = 1, updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
