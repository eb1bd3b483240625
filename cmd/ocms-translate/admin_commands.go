// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/ocms-translate/internal/service"
	"github.com/olegiv/ocms-translate/internal/store"
	"github.com/olegiv/ocms-translate/internal/webhook"
)

func newJobsCommand(cc *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage translation jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(cc))
	jobsCmd.AddCommand(newJobsRetryCommand(cc))
	jobsCmd.AddCommand(newJobsRetryFailedCommand(cc))
	jobsCmd.AddCommand(newJobsDeleteCommand(cc))
	jobsCmd.AddCommand(newJobsClearFailedCommand(cc))

	return jobsCmd
}

func newJobsListCommand(cc *commandContext) *cobra.Command {
	var (
		q       service.JobQuery
		page    int
		perPage int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q.Status = strings.ToUpper(q.Status)
			q.Pagination = service.Pagination{Page: page, PerPage: perPage}
			return cc.withApp(cmd.Context(), appOptions{}, func(a *app) error {
				res, err := a.svc.ListJobs(cmd.Context(), q)
				if err != nil {
					return err
				}
				if len(res.Items) == 0 {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderJobs(res.Items, shouldColorize(cmd.OutOrStdout())))
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d jobs)\n", res.Page, res.TotalPages, res.Total)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&q.Status, "status", "", "Filter by status (PENDING, PROCESSING, COMPLETED, FAILED)")
	cmd.Flags().StringVar(&q.LanguageID, "language", "", "Filter by language code")
	cmd.Flags().StringVar(&q.ContentType, "content-type", "", "Filter by content type")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", service.DefaultPerPage, "Jobs per page")
	return cmd
}

func renderJobs(jobs []store.TranslationJob, colorize bool) string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			strconv.FormatInt(j.ID, 10),
			statusCell(j.Status, colorize),
			j.LanguageID,
			j.ContentType + "/" + j.ContentID + "/" + j.Field,
			strconv.FormatInt(j.Attempts, 10),
			truncate(j.LastError.String, 48),
		})
	}
	return renderTable(
		[]string{"ID", "Status", "Lang", "Item", "Attempts", "Last error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func parseJobID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid job ID %q", arg)
	}
	return id, nil
}

func newJobsRetryCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Reset a failed job to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return cc.withApp(cmd.Context(), appOptions{}, func(a *app) error {
				res, err := a.svc.RetryJob(cmd.Context(), id)
				if err != nil {
					return err
				}
				if res.Superseded {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "Job %d removed, an active job already covers it\n", id)
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Job %d queued for retry\n", id)
				return err
			})
		},
	}
}

func newJobsRetryFailedCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry-failed",
		Short: "Reset all failed jobs to pending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cc.withApp(cmd.Context(), appOptions{}, func(a *app) error {
				res, err := a.svc.RetryAllFailed(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Retried %d job(s), removed %d superseded job(s)\n", res.Retried, res.Removed)
				return err
			})
		},
	}
}

func newJobsDeleteCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return cc.withApp(cmd.Context(), appOptions{}, func(a *app) error {
				if err := a.svc.DeleteJob(cmd.Context(), id); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Job %d deleted\n", id)
				return err
			})
		},
	}
}

func newJobsClearFailedCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Delete all failed jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cc.withApp(cmd.Context(), appOptions{}, func(a *app) error {
				n, err := a.svc.ClearAllFailed(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d failed job(s)\n", n)
				return err
			})
		},
	}
}

func newLanguagesCommand(cc *commandContext) *cobra.Command {
	langCmd := &cobra.Command{
		Use:     "languages",
		Aliases: []string{"langs"},
		Short:   "Manage target languages",
	}

	langCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List languages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cc.withApp(cmd.Context(), appOptions{}, func(a *app) error {
				langs, err := a.registry.List(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), renderLanguages(langs))
				return err
			})
		},
	})

	var (
		in       service.CreateLanguageInput
		inactive bool
	)
	addCmd := &cobra.Command{
		Use:   "add <code>",
		Short: "Add a target language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Code = args[0]
			in.IsActive = !inactive
			return cc.withApp(cmd.Context(), appOptions{}, func(a *app) error {
				lang, err := a.registry.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				a.events.LogLanguageEvent(cmd.Context(), "language created", map[string]any{"language": lang.ID, "active": lang.IsActive})
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", lang.ID, lang.Name)
				return err
			})
		},
	}
	addCmd.Flags().StringVar(&in.Name, "name", "", "English name (default: derived from the code)")
	addCmd.Flags().StringVar(&in.NativeName, "native-name", "", "Native name (default: derived from the code)")
	addCmd.Flags().Int64Var(&in.SortOrder, "sort-order", 0, "Display order")
	addCmd.Flags().BoolVar(&inactive, "inactive", false, "Create the language without activating it")
	langCmd.AddCommand(addCmd)

	langCmd.AddCommand(newLanguageToggleCommand(cc, "activate", true))
	langCmd.AddCommand(newLanguageToggleCommand(cc, "deactivate", false))

	langCmd.AddCommand(&cobra.Command{
		Use:   "set-default <code>",
		Short: "Make a language the source language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cc.withApp(cmd.Context(), appOptions{}, func(a *app) error {
				lang, err := a.registry.SetDefault(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.events.LogLanguageEvent(cmd.Context(), "default language changed", map[string]any{"language": lang.ID})
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is now the default language\n", lang.ID)
				return err
			})
		},
	})

	return langCmd
}

func newLanguageToggleCommand(cc *commandContext, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <code>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cc.withApp(cmd.Context(), appOptions{}, func(a *app) error {
				lang, err := a.registry.Update(cmd.Context(), args[0], service.UpdateLanguageInput{IsActive: &active})
				if err != nil {
					return err
				}
				a.events.LogLanguageEvent(cmd.Context(), "language updated", map[string]any{"language": lang.ID, "active": lang.IsActive})
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %sd\n", lang.ID, use)
				return err
			})
		},
	}
}

func renderLanguages(langs []store.Language) string {
	rows := make([][]string, 0, len(langs))
	for _, l := range langs {
		role := "target"
		switch {
		case l.IsDefault:
			role = "source"
		case !l.IsActive:
			role = "inactive"
		}
		rows = append(rows, []string{l.ID, l.Name, l.NativeName, role})
	}
	return renderTable([]string{"Code", "Name", "Native", "Role"}, rows, nil)
}

func newWebhookCommand(cc *commandContext) *cobra.Command {
	webhookCmd := &cobra.Command{
		Use:   "webhook",
		Short: "Webhook notifications",
	}

	webhookCmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test event to OCMS_WEBHOOK_URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cc.cfg.WebhooksEnabled() {
				return errors.New("OCMS_WEBHOOK_URL is not set")
			}
			return cc.withApp(cmd.Context(), appOptions{}, func(a *app) error {
				err := a.webhooks.DispatchEvent(cmd.Context(), "webhook.test", webhook.TestEventData{
					Message:   "Test event from ocms-translate",
					Timestamp: time.Now().UTC(),
				})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Test event queued for %s\n", a.cfg.WebhookURL)
				return err
			})
		},
	})

	return webhookCmd
}
