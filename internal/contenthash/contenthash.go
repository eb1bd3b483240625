// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package contenthash fingerprints source text for staleness detection.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of a hex-encoded digest.
const Size = sha256.Size * 2

// Hash returns the hex-encoded SHA-256 digest of value.
// The input is hashed byte for byte: case and whitespace are significant.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// Equal reports whether digest is the fingerprint of value.
func Equal(value, digest string) bool {
	return len(digest) == Size && Hash(value) == digest
}
