// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openAITranslator uses the chat completions API. Groq exposes the same API.
type openAITranslator struct {
	id     string
	client openai.Client
	model  string
}

func newOpenAITranslator(id, apiKey, baseURL, model string) *openAITranslator {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: httpTimeout}),
		// Retries are driven by the job queue.
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openAITranslator{
		id:     id,
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (t *openAITranslator) ID() string { return t.id }

func (t *openAITranslator) Translate(ctx context.Context, text, targetLanguageCode, format string) (string, error) {
	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(t.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(targetLanguageCode, format)),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%s chat (status %d): %w", t.id, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("%s chat: %w", t.id, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices returned", t.id)
	}
	return cleanResult(resp.Choices[0].Message.Content)
}
