// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olegiv/ocms-translate/internal/service"
)

func newReconcileCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Scan content and enqueue missing or outdated translations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cc.withApp(cmd.Context(), appOptions{}, func(a *app) error {
				res, err := a.svc.ReconcileAll(cmd.Context())
				if err != nil {
					return err
				}
				printReconcileResult(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func printReconcileResult(w io.Writer, res *service.ReconcileResult) {
	rows := [][]string{
		{"Languages", strconv.Itoa(res.Languages)},
		{"Items", strconv.Itoa(res.Items)},
		{"Jobs created", strconv.Itoa(res.JobsCreated)},
		{"Up to date", strconv.Itoa(res.SkippedCurrent)},
		{"Already queued", strconv.Itoa(res.SkippedActive + res.DuplicateSkipped)},
		{"Marked outdated", strconv.Itoa(res.MarkedOutdated)},
		{"Orphans pruned", strconv.FormatInt(res.OrphansPruned, 10)},
		{"Errors", strconv.Itoa(res.ErrorCount)},
		{"Duration", shortDuration(res.Duration)},
	}
	_, _ = fmt.Fprint(w, renderTable([]string{"Reconcile", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(w, "  error: %s\n", e)
	}
	if res.ErrorCount > len(res.Errors) {
		_, _ = fmt.Fprintf(w, "  ... and %d more\n", res.ErrorCount-len(res.Errors))
	}
}

func newWorkCommand(cc *commandContext) *cobra.Command {
	var (
		limit int
		drain bool
	)

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Translate a batch of pending jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return cc.withApp(ctx, appOptions{requireTranslator: true}, func(a *app) error {
				total := &service.BatchResult{}
				for {
					res, err := a.svc.ProcessQueue(ctx, limit)
					if res != nil {
						total.Claimed += res.Claimed
						total.Completed += res.Completed
						total.Retried += res.Retried
						total.Failed += res.Failed
						total.Released += res.Released
						total.Errors += res.Errors
						total.Duration += res.Duration
					}
					if err != nil {
						return err
					}
					if !drain || res.Claimed == 0 || ctx.Err() != nil {
						break
					}
				}
				printBatchResult(cmd.OutOrStdout(), total)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum jobs per batch (default: OCMS_TRANSLATE_BATCH_SIZE)")
	cmd.Flags().BoolVar(&drain, "drain", false, "Repeat batches until the queue is empty")
	return cmd
}

func printBatchResult(w io.Writer, res *service.BatchResult) {
	rows := [][]string{
		{"Claimed", strconv.Itoa(res.Claimed)},
		{"Completed", strconv.Itoa(res.Completed)},
		{"Retried", strconv.Itoa(res.Retried)},
		{"Failed", strconv.Itoa(res.Failed)},
		{"Released", strconv.Itoa(res.Released)},
		{"Errors", strconv.Itoa(res.Errors)},
		{"Duration", shortDuration(res.Duration)},
	}
	_, _ = fmt.Fprint(w, renderTable([]string{"Batch", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func newReclaimCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reclaim",
		Short: "Requeue timed-out jobs and prune old completed jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return cc.withApp(ctx, appOptions{}, func(a *app) error {
				reclaimed, err := a.svc.ReclaimStale(ctx)
				if err != nil {
					return err
				}
				pruned, err := a.svc.PruneCompleted(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Reclaimed %d stale job(s), pruned %d completed job(s)\n", reclaimed, pruned)
				return err
			})
		},
	}
}

func newStatusCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show translation and queue statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cc.withApp(cmd.Context(), appOptions{}, func(a *app) error {
				stats, err := a.svc.Stats(cmd.Context())
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

func printStats(w io.Writer, stats *service.Stats) {
	num := func(n int64) string { return strconv.FormatInt(n, 10) }

	summary := [][]string{
		{"Target languages", strconv.Itoa(stats.TargetLanguages)},
		{"Translations", num(stats.Translations.Total)},
		{"  translated", num(stats.Translations.Translated)},
		{"  outdated", num(stats.Translations.Outdated)},
		{"Jobs pending", num(stats.Jobs.Pending)},
		{"Jobs processing", num(stats.Jobs.Processing)},
		{"Jobs completed", num(stats.Jobs.Completed)},
		{"Jobs failed", num(stats.Jobs.Failed)},
	}
	_, _ = fmt.Fprint(w, renderTable([]string{"Status", "Count"}, summary, []columnAlignment{alignLeft, alignRight}))

	if len(stats.ByContentType) == 0 {
		return
	}
	rows := make([][]string, 0, len(stats.ByContentType))
	for _, ct := range stats.ByContentType {
		rows = append(rows, []string{
			ct.ContentType,
			num(ct.Total),
			num(ct.Translated),
			num(ct.Outdated),
			num(ct.PendingJobs),
			num(ct.FailedJobs),
		})
	}
	_, _ = fmt.Fprint(w, renderTable(
		[]string{"Content type", "Translations", "Translated", "Outdated", "Pending", "Failed"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
}

// truncate shortens s to n runes for table cells.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
