// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/testutil"
)

func staticSource(ct string, items ...model.TranslatableItem) SourceFunc {
	return SourceFunc{
		Type: ct,
		Fn: func(context.Context) ([]model.TranslatableItem, error) {
			return items, nil
		},
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	e, err := NewEnumerator(testutil.TestLogger(), staticSource("faq"))
	require.NoError(t, err)

	err = e.Register(staticSource("faq"))
	assert.ErrorIs(t, err, ErrDuplicateSource)

	err = e.Register(staticSource("  "))
	assert.Error(t, err)

	assert.Equal(t, []string{"faq"}, e.ContentTypes())
}

func TestScanSkipsEmptyValues(t *testing.T) {
	src := staticSource("faq",
		model.TranslatableItem{ContentID: "1", Field: "question", Value: "What is it?", Priority: 10},
		model.TranslatableItem{ContentID: "1", Field: "answer", Value: ""},
		model.TranslatableItem{ContentID: "2", Field: "question", Value: " \n\t "},
	)
	e, err := NewEnumerator(testutil.TestLogger(), src)
	require.NoError(t, err)

	res, err := e.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, "faq", item.ContentType, "content type filled from source")
	assert.Equal(t, model.FormatText, item.Format)
	assert.Equal(t, "faq/1/question", item.Key())
	assert.True(t, res.Succeeded("faq"))
}

func TestScanRejectsIncompleteIdentity(t *testing.T) {
	src := staticSource("faq",
		model.TranslatableItem{Field: "question", Value: "orphan"},
		model.TranslatableItem{ContentID: "1", Field: "question", Value: "ok"},
	)
	e, err := NewEnumerator(testutil.TestLogger(), src)
	require.NoError(t, err)

	res, err := e.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	require.Len(t, res.Rejected, 1)
	assert.Contains(t, res.Rejected[0].Error(), "content_id")
}

func TestScanContinuesAfterSourceFailure(t *testing.T) {
	boom := errors.New("table missing")
	failing := SourceFunc{Type: "broken", Fn: func(context.Context) ([]model.TranslatableItem, error) {
		return nil, boom
	}}
	e, err := NewEnumerator(testutil.TestLogger(),
		failing,
		staticSource("faq", model.TranslatableItem{ContentID: "1", Field: "q", Value: "Hi"}),
	)
	require.NoError(t, err)

	res, err := e.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.ErrorIs(t, res.Failed["broken"], boom)
	assert.Equal(t, []string{"faq"}, res.Scanned)
	assert.False(t, res.Succeeded("broken"))
}

func TestScanIsRestartable(t *testing.T) {
	src := staticSource("faq",
		model.TranslatableItem{ContentID: "1", Field: "q", Value: "A"},
		model.TranslatableItem{ContentID: "2", Field: "q", Value: "B"},
	)
	e, err := NewEnumerator(testutil.TestLogger(), src)
	require.NoError(t, err)

	first, err := e.Scan(context.Background())
	require.NoError(t, err)
	second, err := e.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Items, second.Items)
}

func TestScanHonoursCancellation(t *testing.T) {
	e, err := NewEnumerator(testutil.TestLogger(), staticSource("faq"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
