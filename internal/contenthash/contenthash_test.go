// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package contenthash

import "testing"

func TestHash_Deterministic(t *testing.T) {
	values := []string{"", "Wie?", "Hello, world", "Привет", "line1\nline2"}
	for _, v := range values {
		if Hash(v) != Hash(v) {
			t.Errorf("Hash(%q) not deterministic", v)
		}
		if len(Hash(v)) != Size {
			t.Errorf("len(Hash(%q)) = %d, want %d", v, len(Hash(v)), Size)
		}
	}
}

func TestHash_KnownVector(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Hash("abc"); got != want {
		t.Errorf("Hash(abc) = %s, want %s", got, want)
	}
}

func TestHash_ByteExact(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"Wie?", "wie?"},
		{"Wie?", "Wie? "},
		{"Wie?", " Wie?"},
		{"a\nb", "a\r\nb"},
		{"", " "},
	}

	for _, tt := range tests {
		if Hash(tt.a) == Hash(tt.b) {
			t.Errorf("Hash(%q) == Hash(%q), want different digests", tt.a, tt.b)
		}
	}
}

func TestEqual(t *testing.T) {
	h := Hash("Wie?")
	if !Equal("Wie?", h) {
		t.Error("Equal should accept the matching digest")
	}
	if Equal("Wie!", h) {
		t.Error("Equal should reject a digest of different text")
	}
	if Equal("Wie?", h[:10]) {
		t.Error("Equal should reject a truncated digest")
	}
}
