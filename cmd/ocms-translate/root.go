// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/olegiv/ocms-translate/internal/config"
)

type commandContext struct {
	envFiles []string
	cfg      *config.Config
}

func newRootCommand() *cobra.Command {
	cc := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "ocms-translate",
		Short:         "Translation synchronization for oCMS content",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return cc.loadConfig()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&cc.envFiles, "env-file", []string{".env"}, "Environment files to load before reading the configuration")

	rootCmd.AddCommand(newServeCommand(cc))
	rootCmd.AddCommand(newReconcileCommand(cc))
	rootCmd.AddCommand(newWorkCommand(cc))
	rootCmd.AddCommand(newReclaimCommand(cc))
	rootCmd.AddCommand(newStatusCommand(cc))
	rootCmd.AddCommand(newJobsCommand(cc))
	rootCmd.AddCommand(newLanguagesCommand(cc))
	rootCmd.AddCommand(newWebhookCommand(cc))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func (cc *commandContext) loadConfig() error {
	// Missing files are fine; the environment may be set directly.
	for _, f := range cc.envFiles {
		_ = godotenv.Load(f)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cc.cfg = cfg
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "ocms-translate %s\n", versionInfo())
			return err
		},
	}
}
