// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"

	"github.com/olegiv/ocms-translate/internal/model"
)

// Language is a row of the languages table.
type Language struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	NativeName string    `json:"native_name"`
	IsDefault  bool      `json:"is_default"`
	IsActive   bool      `json:"is_active"`
	SortOrder  int64     `json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsTarget reports whether content should be translated into this language.
func (l Language) IsTarget() bool {
	return l.IsActive && !l.IsDefault
}

// Translation is a row of the translations table.
type Translation struct {
	ID              int64     `json:"id"`
	LanguageID      string    `json:"language_id"`
	ContentType     string    `json:"content_type"`
	ContentID       string    `json:"content_id"`
	Field           string    `json:"field"`
	TranslatedValue string    `json:"translated_value"`
	SourceHash      string    `json:"source_hash"`
	Status          string    `json:"status"`
	IsOutdated      bool      `json:"is_outdated"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Identity returns the translation's composite key.
func (t Translation) Identity() model.Identity {
	return model.Identity{
		LanguageID:  t.LanguageID,
		ContentType: t.ContentType,
		ContentID:   t.ContentID,
		Field:       t.Field,
	}
}

// TranslationJob is a row of the translation_jobs table.
type TranslationJob struct {
	ID           int64          `json:"id"`
	LanguageID   string         `json:"language_id"`
	ContentType  string         `json:"content_type"`
	ContentID    string         `json:"content_id"`
	Field        string         `json:"field"`
	OriginalText string         `json:"original_text"`
	SourceHash   string         `json:"source_hash"`
	Format       string         `json:"format"`
	Priority     int64          `json:"priority"`
	Status       string         `json:"status"`
	Attempts     int64          `json:"attempts"`
	LastError    sql.NullString `json:"last_error"`
	ClaimedBy    sql.NullString `json:"claimed_by"`
	ClaimedAt    sql.NullTime   `json:"claimed_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Identity returns the job's composite key.
func (j TranslationJob) Identity() model.Identity {
	return model.Identity{
		LanguageID:  j.LanguageID,
		ContentType: j.ContentType,
		ContentID:   j.ContentID,
		Field:       j.Field,
	}
}

// Event is a row of the events table.
type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
