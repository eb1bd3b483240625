// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/ocms-translate/internal/middleware"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// APIToken enables bearer token authentication on /api/v1 when set.
	APIToken string
	// RateLimit and RateBurst bound requests per client IP. Zero disables limiting.
	RateLimit float64
	RateBurst int
	// RequestTimeout bounds each request. Zero disables the timeout.
	RequestTimeout time.Duration
}

// NewRouter returns the HTTP router for the admin API.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(chimw.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(chimw.Timeout(opts.RequestTimeout))
	}

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(middleware.NewRateLimiter(opts.RateLimit, max(opts.RateBurst, 1)).Middleware())
		}
		r.Use(middleware.TokenAuth(opts.APIToken))

		r.Route("/translations", func(r chi.Router) {
			r.Get("/", h.ListTranslations)
			r.Get("/stats", h.TranslationStats)
			r.Post("/reconcile", h.Reconcile)
			r.Delete("/{id}", h.DeleteTranslation)
		})

		r.Route("/translation-jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Post("/process", h.ProcessQueue)
			r.Post("/retry-failed", h.RetryAllFailed)
			r.Delete("/failed", h.ClearFailed)
			r.Post("/{id}/retry", h.RetryJob)
			r.Delete("/{id}", h.DeleteJob)
		})

		r.Route("/languages", func(r chi.Router) {
			r.Get("/", h.ListLanguages)
			r.Post("/", h.CreateLanguage)
			r.Put("/{code}", h.UpdateLanguage)
			r.Post("/{code}/default", h.SetDefaultLanguage)
		})

		r.Get("/scheduler", h.ListScheduledJobs)
		r.Post("/scheduler/{name}/trigger", h.TriggerScheduledJob)

		r.Get("/events", h.ListEvents)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	return r
}
