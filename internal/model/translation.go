// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "fmt"

// Translation statuses
const (
	TranslationStatusPending    = "PENDING"
	TranslationStatusTranslated = "TRANSLATED"
)

// Text formats of a translatable field.
const (
	FormatText = "text"
	FormatHTML = "html"
)

// Identity is the composite key shared by translations and translation jobs.
type Identity struct {
	LanguageID  string `json:"language_id"`
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
	Field       string `json:"field"`
}

// Missing returns the name of the first empty identity field, or "" if all are set.
func (id Identity) Missing() string {
	switch {
	case id.LanguageID == "":
		return "language_id"
	case id.ContentType == "":
		return "content_type"
	case id.ContentID == "":
		return "content_id"
	case id.Field == "":
		return "field"
	}
	return ""
}

func (id Identity) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", id.LanguageID, id.ContentType, id.ContentID, id.Field)
}

// TranslatableItem is one translatable text field produced by a catalog scan.
// Items are never persisted.
type TranslatableItem struct {
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
	Field       string `json:"field"`
	Value       string `json:"value"`
	Priority    int64  `json:"priority"`
	Format      string `json:"format"`
}

// Key returns the content part of the identity (without language).
func (i TranslatableItem) Key() string {
	return i.ContentType + "/" + i.ContentID + "/" + i.Field
}

// IdentityFor returns the item's identity in the given language.
func (i TranslatableItem) IdentityFor(languageID string) Identity {
	return Identity{
		LanguageID:  languageID,
		ContentType: i.ContentType,
		ContentID:   i.ContentID,
		Field:       i.Field,
	}
}

// IsHTML reports whether the item holds markup.
func (i TranslatableItem) IsHTML() bool {
	return i.Format == FormatHTML
}
