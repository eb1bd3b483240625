// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST admin API of the translation pipeline.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-translate/internal/scheduler"
	"github.com/olegiv/ocms-translate/internal/service"
	"github.com/olegiv/ocms-translate/internal/version"
)

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 1 << 20

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db        *sql.DB
	svc       *service.TranslationService
	events    *service.EventService
	jobs      *scheduler.Registry
	version   version.Info
	logger    *slog.Logger
	startTime time.Time
}

// Deps are the dependencies of a Handler. Jobs may be nil when the
// scheduler is not running.
type Deps struct {
	DB      *sql.DB
	Service *service.TranslationService
	Events  *service.EventService
	Jobs    *scheduler.Registry
	Version version.Info
	Logger  *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		db:        d.DB,
		svc:       d.Service,
		events:    d.Events,
		jobs:      d.Jobs,
		version:   d.Version,
		logger:    d.Logger,
		startTime: time.Now(),
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page,omitempty"`
	PerPage int   `json:"per_page,omitempty"`
	Pages   int   `json:"pages"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Details: details},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, "conflict", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// writeServiceError maps service and scheduler errors to HTTP responses.
// action completes the message "Failed to ..." for unexpected errors.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var (
		ve *service.ValidationError
		nf *service.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		field := ve.Field
		if field == "" {
			field = "request"
		}
		WriteValidationError(w, map[string]string{field: ve.Message})
	case errors.As(err, &nf):
		WriteNotFound(w, capitalizeFirst(nf.Error()))
	case errors.Is(err, service.ErrReconcileInProgress):
		WriteConflict(w, "A reconciliation is already in progress")
	case errors.Is(err, scheduler.ErrJobNotFound):
		WriteNotFound(w, "Scheduled job not found")
	case errors.Is(err, scheduler.ErrTriggerRateLimited):
		WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Job was triggered too recently", nil)
	default:
		h.logger.Error("api request failed",
			"method", r.Method, "path", r.URL.Path, "action", action, "error", err)
		WriteInternalError(w, "Failed to "+action)
	}
}

// decodeJSON reads a JSON body into dst. It writes a 400 response and
// returns false on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid JSON body", map[string]string{"body": err.Error()})
		return false
	}
	return true
}

// parseIDParam parses the {id} URL parameter.
func parseIDParam(w http.ResponseWriter, r *http.Request, entity string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		WriteBadRequest(w, "Invalid "+entity+" ID", nil)
		return 0, false
	}
	return id, true
}

// parsePagination reads page and per_page query parameters.
// Invalid values fall back to the defaults.
func parsePagination(r *http.Request) service.Pagination {
	q := r.URL.Query()
	p := service.Pagination{Page: 1, PerPage: service.DefaultPerPage}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 {
		p.PerPage = min(v, service.MaxPerPage)
	}
	return p
}

// parseOptionalBool reads a boolean query parameter. An absent parameter is nil.
func parseOptionalBool(w http.ResponseWriter, r *http.Request, name string) (*bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		WriteBadRequest(w, "Invalid "+name+" value", map[string]string{name: "must be true or false"})
		return nil, false
	}
	return &v, true
}

// capitalizeFirst returns s with the first letter capitalized.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
