// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Translation job statuses
const (
	JobStatusPending    = "PENDING"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

// MaxLastErrorLength caps the stored provider error message, in runes.
const MaxLastErrorLength = 500

// JobStatuses lists all job statuses in lifecycle order.
var JobStatuses = []string{
	JobStatusPending,
	JobStatusProcessing,
	JobStatusCompleted,
	JobStatusFailed,
}

// IsValidJobStatus returns true if s is a known job status.
func IsValidJobStatus(s string) bool {
	for _, status := range JobStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsActiveJobStatus returns true for statuses covered by the dedup invariant.
func IsActiveJobStatus(s string) bool {
	return s == JobStatusPending || s == JobStatusProcessing
}

// TruncateError shortens an error message to MaxLastErrorLength runes.
func TruncateError(msg string) string {
	runes := []rune(msg)
	if len(runes) <= MaxLastErrorLength {
		return msg
	}
	return string(runes[:MaxLastErrorLength-3]) + "..."
}
