// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/olegiv/ocms-translate/internal/store"
)

// LanguageRegistry manages the set of languages. It never caches: every
// call reflects the current store contents.
type LanguageRegistry struct {
	db      *sql.DB
	queries *store.Queries
	logger  *slog.Logger
	now     Clock
}

// NewLanguageRegistry creates a LanguageRegistry.
func NewLanguageRegistry(db *sql.DB, logger *slog.Logger) *LanguageRegistry {
	return &LanguageRegistry{
		db:      db,
		queries: store.New(db),
		logger:  logger,
		now:     utcNow,
	}
}

// ActiveTargets returns active non-default languages ordered by sort order.
func (r *LanguageRegistry) ActiveTargets(ctx context.Context) ([]store.Language, error) {
	langs, err := r.queries.ListTargetLanguages(ctx)
	if err != nil {
		return nil, persistErr("listing target languages", err)
	}
	return langs, nil
}

// List returns all languages.
func (r *LanguageRegistry) List(ctx context.Context) ([]store.Language, error) {
	langs, err := r.queries.ListLanguages(ctx)
	if err != nil {
		return nil, persistErr("listing languages", err)
	}
	return langs, nil
}

// Get returns a language by code.
func (r *LanguageRegistry) Get(ctx context.Context, id string) (store.Language, error) {
	lang, err := r.queries.GetLanguage(ctx, id)
	if err != nil {
		return store.Language{}, lookupErr("language", id, "getting language", err)
	}
	return lang, nil
}

// Default returns the default language.
func (r *LanguageRegistry) Default(ctx context.Context) (store.Language, error) {
	lang, err := r.queries.GetDefaultLanguage(ctx)
	if err != nil {
		return store.Language{}, lookupErr("language", "default", "getting default language", err)
	}
	return lang, nil
}

// CreateLanguageInput holds the attributes of a new language.
type CreateLanguageInput struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
	IsActive   bool   `json:"is_active"`
	SortOrder  int64  `json:"sort_order"`
}

// Create adds a non-default language. Blank names are filled in from the
// CLDR display names of the code.
func (r *LanguageRegistry) Create(ctx context.Context, in CreateLanguageInput) (store.Language, error) {
	tag, err := parseLanguageCode(in.Code)
	if err != nil {
		return store.Language{}, err
	}
	code := tag.String()

	if _, err := r.queries.GetLanguage(ctx, code); err == nil {
		return store.Language{}, &ValidationError{Field: "code", Message: "language already exists"}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.Language{}, persistErr("checking language", err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = display.English.Tags().Name(tag)
	}
	nativeName := strings.TrimSpace(in.NativeName)
	if nativeName == "" {
		nativeName = display.Self.Name(tag)
	}
	if name == "" {
		return store.Language{}, &ValidationError{Field: "name", Message: "is required"}
	}

	now := r.now()
	lang, err := r.queries.CreateLanguage(ctx, store.CreateLanguageParams{
		ID:         code,
		Name:       name,
		NativeName: nativeName,
		IsActive:   in.IsActive,
		SortOrder:  in.SortOrder,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return store.Language{}, persistErr("creating language", err)
	}

	r.logger.Info("language created", "language", lang.ID, "active", lang.IsActive)
	return lang, nil
}

// UpdateLanguageInput holds optional changes to a language.
type UpdateLanguageInput struct {
	Name       *string `json:"name"`
	NativeName *string `json:"native_name"`
	IsActive   *bool   `json:"is_active"`
	SortOrder  *int64  `json:"sort_order"`
}

// Update changes a language's attributes. The default language cannot be deactivated.
func (r *LanguageRegistry) Update(ctx context.Context, id string, in UpdateLanguageInput) (store.Language, error) {
	lang, err := r.Get(ctx, id)
	if err != nil {
		return store.Language{}, err
	}

	params := store.UpdateLanguageParams{
		ID:         lang.ID,
		Name:       lang.Name,
		NativeName: lang.NativeName,
		IsActive:   lang.IsActive,
		SortOrder:  lang.SortOrder,
		UpdatedAt:  r.now(),
	}
	if in.Name != nil {
		params.Name = strings.TrimSpace(*in.Name)
		if params.Name == "" {
			return store.Language{}, &ValidationError{Field: "name", Message: "cannot be empty"}
		}
	}
	if in.NativeName != nil {
		params.NativeName = strings.TrimSpace(*in.NativeName)
	}
	if in.IsActive != nil {
		if lang.IsDefault && !*in.IsActive {
			return store.Language{}, &ValidationError{Field: "is_active", Message: "the default language cannot be deactivated"}
		}
		params.IsActive = *in.IsActive
	}
	if in.SortOrder != nil {
		params.SortOrder = *in.SortOrder
	}

	updated, err := r.queries.UpdateLanguage(ctx, params)
	if err != nil {
		return store.Language{}, lookupErr("language", id, "updating language", err)
	}

	r.logger.Info("language updated", "language", updated.ID, "active", updated.IsActive)
	return updated, nil
}

// SetDefault makes id the only default language and activates it.
func (r *LanguageRegistry) SetDefault(ctx context.Context, id string) (store.Language, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return store.Language{}, err
	}

	now := r.now()
	err := store.RunInTx(ctx, r.db, func(q *store.Queries) error {
		if err := q.ClearDefaultLanguage(ctx, now); err != nil {
			return err
		}
		_, err := q.SetDefaultLanguage(ctx, id, now)
		return err
	})
	if err != nil {
		return store.Language{}, persistErr("setting default language", err)
	}

	r.logger.Info("default language changed", "language", id)
	return r.Get(ctx, id)
}

func parseLanguageCode(code string) (language.Tag, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return language.Und, &ValidationError{Field: "code", Message: "is required"}
	}
	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return language.Und, &ValidationError{Field: "code", Message: "is not a valid BCP 47 language code"}
	}
	return tag, nil
}
