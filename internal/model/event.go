// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryTranslation = "translation"
	EventCategoryJob         = "job"
	EventCategoryLanguage    = "language"
	EventCategoryScheduler   = "scheduler"
	EventCategoryCache       = "cache"
	EventCategoryWebhook     = "webhook"
	EventCategorySystem      = "system"
)

// EventCategories lists every category in display order.
var EventCategories = []string{
	EventCategoryTranslation,
	EventCategoryJob,
	EventCategoryLanguage,
	EventCategoryScheduler,
	EventCategoryCache,
	EventCategoryWebhook,
	EventCategorySystem,
}
