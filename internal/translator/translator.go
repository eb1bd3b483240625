// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translator provides machine translation backends.
package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/olegiv/ocms-translate/internal/model"
)

// Provider IDs.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"
	ProviderFake   = "fake"
)

// Providers lists the provider IDs accepted by New.
var Providers = []string{ProviderOpenAI, ProviderClaude, ProviderGroq, ProviderOllama, ProviderFake}

// DefaultModels maps providers to the model used when none is configured.
var DefaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderClaude: "claude-haiku-4-5-20251001",
	ProviderGroq:   "llama-3.3-70b-versatile",
	ProviderOllama: "llama3.3",
}

const httpTimeout = 120 * time.Second

// ErrEmptyTranslation is returned when a provider answers with no text.
var ErrEmptyTranslation = errors.New("empty translation returned")

// Translator translates text into a target language.
type Translator interface {
	// ID returns the provider ID.
	ID() string
	// Translate returns text translated into the language identified by
	// targetLanguageCode. format is model.FormatText or model.FormatHTML.
	Translate(ctx context.Context, text, targetLanguageCode, format string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	OllamaURL string
}

// New returns the translator for cfg.Provider.
func New(cfg Config) (Translator, error) {
	modelID := cfg.Model
	if modelID == "" {
		modelID = DefaultModels[cfg.Provider]
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: api key is required", cfg.Provider)
		}
		return newOpenAITranslator(ProviderOpenAI, cfg.APIKey, cfg.BaseURL, modelID), nil
	case ProviderGroq:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: api key is required", cfg.Provider)
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.groq.com/openai/v1"
		}
		return newOpenAITranslator(ProviderGroq, cfg.APIKey, baseURL, modelID), nil
	case ProviderClaude:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: api key is required", cfg.Provider)
		}
		return newClaudeTranslator(cfg.APIKey, cfg.BaseURL, modelID), nil
	case ProviderOllama:
		baseURL := cfg.OllamaURL
		if baseURL == "" {
			baseURL = cfg.BaseURL
		}
		return newOllamaTranslator(baseURL, modelID), nil
	case ProviderFake:
		return NewFake(), nil
	default:
		return nil, fmt.Errorf("unknown translation provider %q", cfg.Provider)
	}
}

// IsValidProvider reports whether id names a supported provider.
func IsValidProvider(id string) bool {
	for _, p := range Providers {
		if p == id {
			return true
		}
	}
	return false
}

// LanguageName returns the English name of a language code, or the code
// itself when it cannot be parsed.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

func systemPrompt(targetLanguageCode, format string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional translator. Translate the user's text into %s (%s).",
		LanguageName(targetLanguageCode), targetLanguageCode)
	b.WriteString(" Reply with the translation only, without quotes, notes or explanations.")
	b.WriteString(" Preserve placeholders such as {name}, %s and :count unchanged.")
	if format == model.FormatHTML {
		b.WriteString(" The text is an HTML fragment: keep every tag and attribute unchanged and translate only the human-readable text.")
	}
	return b.String()
}

func cleanResult(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyTranslation
	}
	return content, nil
}
