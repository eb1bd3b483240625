// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestIdentity_Missing(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want string
	}{
		{"complete", Identity{"de", "faq", "123", "question"}, ""},
		{"no language", Identity{"", "faq", "123", "question"}, "language_id"},
		{"no content type", Identity{"de", "", "123", "question"}, "content_type"},
		{"no content id", Identity{"de", "faq", "", "question"}, "content_id"},
		{"no field", Identity{"de", "faq", "123", ""}, "field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Missing(); got != tt.want {
				t.Errorf("Missing() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranslatableItem_IdentityFor(t *testing.T) {
	item := TranslatableItem{ContentType: "faq", ContentID: "123", Field: "question", Value: "Wie?"}
	id := item.IdentityFor("en")

	if id.String() != "en/faq/123/question" {
		t.Errorf("String() = %q", id.String())
	}
	if item.Key() != "faq/123/question" {
		t.Errorf("Key() = %q", item.Key())
	}
}

func TestTruncateError(t *testing.T) {
	short := "provider quota exceeded"
	if got := TruncateError(short); got != short {
		t.Errorf("TruncateError(short) = %q", got)
	}

	long := strings.Repeat("ü", MaxLastErrorLength+50)
	got := TruncateError(long)
	if n := utf8.RuneCountInString(got); n != MaxLastErrorLength {
		t.Errorf("rune count = %d, want %d", n, MaxLastErrorLength)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated message should end with ellipsis: %q", got[len(got)-6:])
	}
}

func TestJobStatusHelpers(t *testing.T) {
	for _, s := range JobStatuses {
		if !IsValidJobStatus(s) {
			t.Errorf("IsValidJobStatus(%q) = false", s)
		}
	}
	if IsValidJobStatus("DONE") {
		t.Error("IsValidJobStatus(DONE) = true")
	}
	if !IsActiveJobStatus(JobStatusPending) || !IsActiveJobStatus(JobStatusProcessing) {
		t.Error("PENDING and PROCESSING must be active")
	}
	if IsActiveJobStatus(JobStatusFailed) || IsActiveJobStatus(JobStatusCompleted) {
		t.Error("FAILED and COMPLETED must not be active")
	}
}
