// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/ocms-translate/internal/service"
)

// ListTranslations handles GET /api/v1/translations.
// Filters: language, status, content_type, is_outdated.
func (h *Handler) ListTranslations(w http.ResponseWriter, r *http.Request) {
	outdated, ok := parseOptionalBool(w, r, "is_outdated")
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := h.svc.ListTranslations(r.Context(), service.TranslationQuery{
		LanguageID:  q.Get("language"),
		Status:      q.Get("status"),
		ContentType: q.Get("content_type"),
		IsOutdated:  outdated,
		Pagination:  parsePagination(r),
	})
	if err != nil {
		h.writeServiceError(w, r, "list translations", err)
		return
	}

	WriteSuccess(w, page.Items, &Meta{
		Total:   page.Total,
		Page:    page.Page,
		PerPage: page.PerPage,
		Pages:   page.TotalPages,
	})
}

// TranslationStats handles GET /api/v1/translations/stats.
func (h *Handler) TranslationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "load statistics", err)
		return
	}
	WriteSuccess(w, stats, nil)
}

// DeleteTranslation handles DELETE /api/v1/translations/{id}.
// The next reconciliation enqueues the item again.
func (h *Handler) DeleteTranslation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "translation")
	if !ok {
		return
	}
	if err := h.svc.DeleteTranslation(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "delete translation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reconcile handles POST /api/v1/translations/reconcile.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ReconcileAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "reconcile translations", err)
		return
	}
	WriteSuccess(w, result, nil)
}
