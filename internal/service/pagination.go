// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import "time"

// Pagination defaults.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Pagination selects a page of results. Page is 1-based.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

func (p Pagination) normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func (p Pagination) limit() int64  { return int64(p.PerPage) }
func (p Pagination) offset() int64 { return int64((p.Page - 1) * p.PerPage) }

// TotalPages returns the number of pages needed for total items.
func (p Pagination) TotalPages(total int64) int {
	if total == 0 || p.PerPage < 1 {
		return 0
	}
	return int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// Clock returns the current time.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }
