// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/ocms-translate/internal/model"
)

const translationColumns = `id, language_id, content_type, content_id, field, translated_value,
	source_hash, status, is_outdated, created_at, updated_at`

func scanTranslation(row rowScanner) (Translation, error) {
	var t Translation
	err := row.Scan(
		&t.ID, &t.LanguageID, &t.ContentType, &t.ContentID, &t.Field, &t.TranslatedValue,
		&t.SourceHash, &t.Status, &t.IsOutdated, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// GetTranslationByID returns a translation by ID.
func (q *Queries) GetTranslationByID(ctx context.Context, id int64) (Translation, error) {
	return scanTranslation(q.db.QueryRowContext(ctx, `SELECT `+translationColumns+` FROM translations WHERE id = ?`, id))
}

// GetTranslationByIdentity returns the translation stored for an identity.
func (q *Queries) GetTranslationByIdentity(ctx context.Context, id model.Identity) (Translation, error) {
	return scanTranslation(q.db.QueryRowContext(ctx, `SELECT `+translationColumns+` FROM translations
		WHERE language_id = ? AND content_type = ? AND content_id = ? AND field = ?`,
		id.LanguageID, id.ContentType, id.ContentID, id.Field,
	))
}

// UpsertTranslationParams holds the result of a completed translation job.
type UpsertTranslationParams struct {
	Identity        model.Identity
	TranslatedValue string
	SourceHash      string
	Now             time.Time
}

// UpsertTranslation inserts or updates the translation for an identity.
// The row is marked TRANSLATED and no longer outdated.
func (q *Queries) UpsertTranslation(ctx context.Context, arg UpsertTranslationParams) (Translation, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO translations (language_id, content_type, content_id, field, translated_value,
			source_hash, status, is_outdated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 'TRANSLATED', 0, ?, ?)
		ON CONFLICT (language_id, content_type, content_id, field) DO UPDATE SET
			translated_value = excluded.translated_value,
			source_hash = excluded.source_hash,
			status = 'TRANSLATED',
			is_outdated = 0,
			updated_at = excluded.updated_at`,
		arg.Identity.LanguageID, arg.Identity.ContentType, arg.Identity.ContentID, arg.Identity.Field,
		arg.TranslatedValue, arg.SourceHash, arg.Now, arg.Now,
	)
	if err != nil {
		return Translation{}, err
	}
	return q.GetTranslationByIdentity(ctx, arg.Identity)
}

// MarkTranslationOutdated flags a translation whose source text changed.
// It returns 0 when the row was already flagged.
func (q *Queries) MarkTranslationOutdated(ctx context.Context, id int64, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE translations SET is_outdated = 1, updated_at = ?
		WHERE id = ? AND is_outdated = 0`, now, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteTranslation deletes a single translation.
func (q *Queries) DeleteTranslation(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM translations WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListTranslations returns translations matching filter, most recently updated first.
func (q *Queries) ListTranslations(ctx context.Context, filter TranslationFilter, limit, offset int64) ([]Translation, error) {
	where, args := filter.where()
	args = append(args, limit, offset)
	rows, err := q.db.QueryContext(ctx, `SELECT `+translationColumns+` FROM translations`+where+`
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Translation
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountTranslations counts translations matching filter.
func (q *Queries) CountTranslations(ctx context.Context, filter TranslationFilter) (int64, error) {
	where, args := filter.where()
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translations`+where, args...).Scan(&n)
	return n, err
}

// TranslationCounts aggregates translation rows by state.
type TranslationCounts struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Translated int64 `json:"translated"`
	Outdated   int64 `json:"outdated"`
}

// CountTranslationsByState returns the dashboard counters for translations.
func (q *Queries) CountTranslationsByState(ctx context.Context) (TranslationCounts, error) {
	var c TranslationCounts
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'PENDING' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'TRANSLATED' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_outdated = 1 THEN 1 ELSE 0 END), 0)
		FROM translations`).Scan(&c.Total, &c.Pending, &c.Translated, &c.Outdated)
	return c, err
}

// ContentTypeSummary aggregates translations of one content type.
type ContentTypeSummary struct {
	ContentType string `json:"content_type"`
	Total       int64  `json:"total"`
	Translated  int64  `json:"translated"`
	Outdated    int64  `json:"outdated"`
}

// TranslationSummaryByContentType returns per content type counters.
func (q *Queries) TranslationSummaryByContentType(ctx context.Context) ([]ContentTypeSummary, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT content_type, COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'TRANSLATED' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_outdated = 1 THEN 1 ELSE 0 END), 0)
		FROM translations
		GROUP BY content_type
		ORDER BY content_type`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ContentTypeSummary
	for rows.Next() {
		var s ContentTypeSummary
		if err := rows.Scan(&s.ContentType, &s.Total, &s.Translated, &s.Outdated); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// IdentityRow pairs a row ID with its identity.
type IdentityRow struct {
	ID       int64
	Identity model.Identity
}

// ListTranslationIdentities returns the identities of all translations of a content type.
func (q *Queries) ListTranslationIdentities(ctx context.Context, contentType string) ([]IdentityRow, error) {
	return q.queryIdentities(ctx, `SELECT id, language_id, content_type, content_id, field
		FROM translations WHERE content_type = ? ORDER BY id`, contentType)
}

func (q *Queries) queryIdentities(ctx context.Context, query string, args ...any) ([]IdentityRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []IdentityRow
	for rows.Next() {
		var r IdentityRow
		if err := rows.Scan(&r.ID, &r.Identity.LanguageID, &r.Identity.ContentType, &r.Identity.ContentID, &r.Identity.Field); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
