// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import "strings"

// TranslationFilter narrows translation queries. Zero values match everything.
type TranslationFilter struct {
	LanguageID  string
	Status      string
	ContentType string
	IsOutdated  *bool
}

func (f TranslationFilter) where() (string, []any) {
	var w whereBuilder
	w.add("language_id = ?", f.LanguageID)
	w.add("status = ?", f.Status)
	w.add("content_type = ?", f.ContentType)
	if f.IsOutdated != nil {
		w.clauses = append(w.clauses, "is_outdated = ?")
		w.args = append(w.args, *f.IsOutdated)
	}
	return w.build()
}

// JobFilter narrows translation job queries. Zero values match everything.
type JobFilter struct {
	LanguageID  string
	Status      string
	ContentType string
}

func (f JobFilter) where() (string, []any) {
	var w whereBuilder
	w.add("language_id = ?", f.LanguageID)
	w.add("status = ?", f.Status)
	w.add("content_type = ?", f.ContentType)
	return w.build()
}

type whereBuilder struct {
	clauses []string
	args    []any
}

// add appends clause unless value is empty.
func (w *whereBuilder) add(clause, value string) {
	if value == "" {
		return
	}
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, value)
}

func (w *whereBuilder) build() (string, []any) {
	if len(w.clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(w.clauses, " AND "), w.args
}
