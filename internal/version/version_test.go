// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import (
	"runtime/debug"
	"testing"
)

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "v1.0.0",
		GitCommit: "abc1234",
		BuildTime: "2025-01-30T12:00:00Z",
	}

	want := "v1.0.0 (commit: abc1234, built: 2025-01-30T12:00:00Z)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestWithSettings(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2026-02-01T08:00:00Z"},
		{Key: "GOOS", Value: "linux"},
	}

	got := Info{Version: "dev", GitCommit: "unknown", BuildTime: "unknown"}.withSettings(settings)
	if got.GitCommit != "0123456" {
		t.Errorf("GitCommit = %q, want %q", got.GitCommit, "0123456")
	}
	if got.BuildTime != "2026-02-01T08:00:00Z" {
		t.Errorf("BuildTime = %q", got.BuildTime)
	}

	// ldflags values win.
	stamped := Info{Version: "v1.2.3", GitCommit: "fedcba9", BuildTime: "2025-12-24T00:00:00Z"}
	if got := stamped.withSettings(settings); got != stamped {
		t.Errorf("withSettings() = %+v, want %+v", got, stamped)
	}
}
