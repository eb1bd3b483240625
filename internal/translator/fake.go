// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translator

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Translator for tests and dry runs. By default it
// returns "[code] text". Set Func to change the behaviour.
type Fake struct {
	mu    sync.Mutex
	calls []FakeCall
	Func  func(text, targetLanguageCode string) (string, error)
}

// FakeCall records one Translate call.
type FakeCall struct {
	Text     string
	Language string
	Format   string
}

// NewFake returns a Fake translator.
func NewFake() *Fake {
	return &Fake{}
}

// ID implements Translator.
func (f *Fake) ID() string { return ProviderFake }

// Translate implements Translator.
func (f *Fake) Translate(ctx context.Context, text, targetLanguageCode, format string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Text: text, Language: targetLanguageCode, Format: format})
	fn := f.Func
	f.mu.Unlock()

	if fn != nil {
		return fn(text, targetLanguageCode)
	}
	return fmt.Sprintf("[%s] %s", targetLanguageCode, text), nil
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// Reset clears the recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
