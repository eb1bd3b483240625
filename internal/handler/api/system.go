// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/scheduler"
)

// HealthStatus is the response of GET /health.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health handles GET /health. It is not authenticated.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.Version,
		Checks:    map[string]Check{"database": dbCheck},
	}
	code := http.StatusOK
	if dbCheck.Status != "healthy" {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, status)
}

func (h *Handler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		return Check{Status: "unhealthy", Message: err.Error()}
	}
	return Check{Status: "healthy", Latency: time.Since(start).String()}
}

// ListScheduledJobs handles GET /api/v1/scheduler.
func (h *Handler) ListScheduledJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := []scheduler.JobInfo{}
	if h.jobs != nil {
		jobs = h.jobs.List()
	}
	WriteSuccess(w, jobs, &Meta{Total: int64(len(jobs)), Pages: 1})
}

// TriggerScheduledJob handles POST /api/v1/scheduler/{name}/trigger.
// The job runs synchronously and its error, if any, is returned in the body.
func (h *Handler) TriggerScheduledJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		WriteNotFound(w, "Scheduler is not running")
		return
	}

	name := chi.URLParam(r, "name")
	start := time.Now()
	err := h.jobs.TriggerNow(name)

	type triggerResponse struct {
		Name     string `json:"name"`
		Duration string `json:"duration"`
		Error    string `json:"error,omitempty"`
	}
	resp := triggerResponse{Name: name, Duration: time.Since(start).Round(time.Millisecond).String()}

	switch {
	case err == nil:
	case errors.Is(err, scheduler.ErrJobNotFound), errors.Is(err, scheduler.ErrTriggerRateLimited):
		h.writeServiceError(w, r, "trigger job", err)
		return
	default:
		resp.Error = err.Error()
	}
	WriteSuccess(w, resp, nil)
}

// ListEvents handles GET /api/v1/events?level=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	switch level {
	case "", model.EventLevelInfo, model.EventLevelWarning, model.EventLevelError:
	default:
		WriteValidationError(w, map[string]string{"level": "must be info, warning or error"})
		return
	}

	p := parsePagination(r)
	page, err := h.events.ListEvents(r.Context(), level, p)
	if err != nil {
		h.writeServiceError(w, r, "list events", err)
		return
	}
	WriteSuccess(w, page.Items, &Meta{
		Total:   page.Total,
		Page:    p.Page,
		PerPage: p.PerPage,
		Pages:   p.TotalPages(page.Total),
	})
}
