// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/olegiv/ocms-translate/internal/model"
)

// UIContentType is the content type of interface strings.
const UIContentType = "ui"

// YAMLSource reads interface strings from a YAML file. Nested keys are
// joined with "." to form the content ID.
//
//	nav:
//	  home: Home
//	  about: About us
//
// yields the items nav.about and nav.home.
type YAMLSource struct {
	Path     string
	Priority int64
}

// NewYAMLSource returns a UI string source for path.
func NewYAMLSource(path string) *YAMLSource {
	return &YAMLSource{Path: path, Priority: PriorityUI}
}

// ContentType implements Source.
func (s *YAMLSource) ContentType() string { return UIContentType }

// ListTranslatableFields implements Source.
func (s *YAMLSource) ListTranslatableFields(_ context.Context) ([]model.TranslatableItem, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading ui strings: %w", err)
	}
	return parseUIStrings(data, s.Priority)
}

func parseUIStrings(data []byte, priority int64) ([]model.TranslatableItem, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing ui strings: %w", err)
	}

	flat := make(map[string]string)
	flatten("", root, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]model.TranslatableItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, model.TranslatableItem{
			ContentType: UIContentType,
			ContentID:   k,
			Field:       "text",
			Value:       flat[k],
			Priority:    priority,
			Format:      model.FormatText,
		})
	}
	return items, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
