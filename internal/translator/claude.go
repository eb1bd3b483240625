// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const anthropicVersion = "2023-06-01"

// claudeTranslator calls the Anthropic messages API.
type claudeTranslator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func newClaudeTranslator(apiKey, baseURL, model string) *claudeTranslator {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	return &claudeTranslator{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

func (t *claudeTranslator) ID() string { return ProviderClaude }

func (t *claudeTranslator) Translate(ctx context.Context, text, targetLanguageCode, format string) (string, error) {
	body := map[string]any{
		"model":      t.model,
		"system":     systemPrompt(targetLanguageCode, format),
		"max_tokens": 8192,
		"messages": []map[string]string{
			{"role": "user", "content": text},
		},
	}

	respBody, err := postJSON(ctx, t.client, t.baseURL+"/messages", map[string]string{
		"x-api-key":         t.apiKey,
		"anthropic-version": anthropicVersion,
	}, body)
	if err != nil {
		return "", fmt.Errorf("claude chat: %w", err)
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("claude decode: %w", err)
	}

	for _, c := range result.Content {
		if c.Type == "text" {
			return cleanResult(c.Text)
		}
	}
	return "", fmt.Errorf("claude: %w", ErrEmptyTranslation)
}
