// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package runlock provides a non-blocking lock shared by goroutines and
// processes, backed by a lock file.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// Lock is held by at most one caller across all processes using the same path.
type Lock struct {
	path string
	file *flock.Flock

	mu   sync.Mutex
	held bool
}

// New returns a lock on path, creating its directory if needed.
func New(path string) (*Lock, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating lock directory: %w", err)
		}
	}
	return &Lock{path: path, file: flock.New(path)}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// TryLock acquires the lock without waiting. It returns false when the
// lock is held by this or another process.
func (l *Lock) TryLock() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return false, nil
	}
	ok, err := l.file.TryLock()
	if err != nil {
		return false, fmt.Errorf("locking %s: %w", l.path, err)
	}
	l.held = ok
	return ok, nil
}

// Unlock releases the lock. Unlocking a lock that is not held is a no-op.
func (l *Lock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return nil
	}
	l.held = false
	return l.file.Unlock()
}
