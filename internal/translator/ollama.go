// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const defaultOllamaURL = "http://localhost:11434"

// ollamaTranslator calls a local Ollama server.
type ollamaTranslator struct {
	baseURL string
	model   string
	client  *http.Client
}

func newOllamaTranslator(baseURL, model string) *ollamaTranslator {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return &ollamaTranslator{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

func (t *ollamaTranslator) ID() string { return ProviderOllama }

func (t *ollamaTranslator) Translate(ctx context.Context, text, targetLanguageCode, format string) (string, error) {
	body := map[string]any{
		"model": t.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt(targetLanguageCode, format)},
			{"role": "user", "content": text},
		},
		"stream": false,
	}

	respBody, err := postJSON(ctx, t.client, t.baseURL+"/api/chat", nil, body)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("ollama decode: %w", err)
	}
	return cleanResult(result.Message.Content)
}
