// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/ocms-translate/internal/service"
	"github.com/olegiv/ocms-translate/internal/store"
)

// JobResponse is the API representation of a translation job.
type JobResponse struct {
	ID           int64      `json:"id"`
	LanguageID   string     `json:"language_id"`
	ContentType  string     `json:"content_type"`
	ContentID    string     `json:"content_id"`
	Field        string     `json:"field"`
	OriginalText string     `json:"original_text"`
	SourceHash   string     `json:"source_hash"`
	Format       string     `json:"format"`
	Priority     int64      `json:"priority"`
	Status       string     `json:"status"`
	Attempts     int64      `json:"attempts"`
	LastError    string     `json:"last_error,omitempty"`
	ClaimedBy    string     `json:"claimed_by,omitempty"`
	ClaimedAt    *time.Time `json:"claimed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func storeJobToResponse(j store.TranslationJob) JobResponse {
	resp := JobResponse{
		ID:           j.ID,
		LanguageID:   j.LanguageID,
		ContentType:  j.ContentType,
		ContentID:    j.ContentID,
		Field:        j.Field,
		OriginalText: j.OriginalText,
		SourceHash:   j.SourceHash,
		Format:       j.Format,
		Priority:     j.Priority,
		Status:       j.Status,
		Attempts:     j.Attempts,
		LastError:    j.LastError.String,
		ClaimedBy:    j.ClaimedBy.String,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
	if j.ClaimedAt.Valid {
		t := j.ClaimedAt.Time
		resp.ClaimedAt = &t
	}
	return resp
}

// ListJobs handles GET /api/v1/translation-jobs.
// Filters: language, status, content_type.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.svc.ListJobs(r.Context(), service.JobQuery{
		LanguageID:  q.Get("language"),
		Status:      q.Get("status"),
		ContentType: q.Get("content_type"),
		Pagination:  parsePagination(r),
	})
	if err != nil {
		h.writeServiceError(w, r, "list jobs", err)
		return
	}

	items := make([]JobResponse, len(page.Items))
	for i, j := range page.Items {
		items[i] = storeJobToResponse(j)
	}
	WriteSuccess(w, items, &Meta{
		Total:   page.Total,
		Page:    page.Page,
		PerPage: page.PerPage,
		Pages:   page.TotalPages,
	})
}

// ProcessQueue handles POST /api/v1/translation-jobs/process?limit=N.
func (h *Handler) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteBadRequest(w, "Invalid limit", map[string]string{"limit": "must be a positive integer"})
			return
		}
		limit = n
	}

	result, err := h.svc.ProcessQueue(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, "process queue", err)
		return
	}
	WriteSuccess(w, result, nil)
}

// RetryResponse is the outcome of retrying a job.
type RetryResponse struct {
	JobID      int64        `json:"job_id"`
	Superseded bool         `json:"superseded"`
	Job        *JobResponse `json:"job,omitempty"`
}

// RetryJob handles POST /api/v1/translation-jobs/{id}/retry.
func (h *Handler) RetryJob(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "job")
	if !ok {
		return
	}

	result, err := h.svc.RetryJob(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "retry job", err)
		return
	}

	resp := RetryResponse{JobID: result.JobID, Superseded: result.Superseded}
	if result.Job != nil {
		j := storeJobToResponse(*result.Job)
		resp.Job = &j
	}
	WriteSuccess(w, resp, nil)
}

// RetryAllFailed handles POST /api/v1/translation-jobs/retry-failed.
func (h *Handler) RetryAllFailed(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RetryAllFailed(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "retry failed jobs", err)
		return
	}
	WriteSuccess(w, result, nil)
}

// DeleteJob handles DELETE /api/v1/translation-jobs/{id}.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "job")
	if !ok {
		return
	}
	if err := h.svc.DeleteJob(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "delete job", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearFailed handles DELETE /api/v1/translation-jobs/failed.
func (h *Handler) ClearFailed(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ClearAllFailed(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "clear failed jobs", err)
		return
	}
	WriteSuccess(w, map[string]int64{"removed": n}, nil)
}
