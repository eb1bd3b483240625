// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-translate/internal/service"
)

// ListLanguages handles GET /api/v1/languages.
func (h *Handler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := h.svc.Languages().List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "list languages", err)
		return
	}
	WriteSuccess(w, langs, &Meta{Total: int64(len(langs)), Pages: 1})
}

// CreateLanguage handles POST /api/v1/languages.
func (h *Handler) CreateLanguage(w http.ResponseWriter, r *http.Request) {
	var in service.CreateLanguageInput
	if !decodeJSON(w, r, &in) {
		return
	}

	lang, err := h.svc.Languages().Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, "create language", err)
		return
	}

	h.svc.InvalidateStats(r.Context())
	h.events.LogLanguageEvent(r.Context(), "language created", map[string]any{"language": lang.ID, "active": lang.IsActive})
	WriteCreated(w, lang)
}

// UpdateLanguage handles PUT /api/v1/languages/{code}.
func (h *Handler) UpdateLanguage(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateLanguageInput
	if !decodeJSON(w, r, &in) {
		return
	}

	lang, err := h.svc.Languages().Update(r.Context(), chi.URLParam(r, "code"), in)
	if err != nil {
		h.writeServiceError(w, r, "update language", err)
		return
	}

	h.svc.InvalidateStats(r.Context())
	h.events.LogLanguageEvent(r.Context(), "language updated", map[string]any{"language": lang.ID, "active": lang.IsActive})
	WriteSuccess(w, lang, nil)
}

// SetDefaultLanguage handles POST /api/v1/languages/{code}/default.
func (h *Handler) SetDefaultLanguage(w http.ResponseWriter, r *http.Request) {
	lang, err := h.svc.Languages().SetDefault(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, r, "set default language", err)
		return
	}

	h.svc.InvalidateStats(r.Context())
	h.events.LogLanguageEvent(r.Context(), "default language changed", map[string]any{"language": lang.ID})
	WriteSuccess(w, lang, nil)
}
