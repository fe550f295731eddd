// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree around a.
//
// # Description
//
// The root command loads configuration and logging in its persistent
// pre-run, so every subcommand finds a.cfg and a.log ready. Errors are
// returned to main instead of printed by cobra, so they go through the
// ux error style exactly once.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "synrewrite",
		Short: "Rewrite text against a synonym dictionary",
		Long: `synrewrite replaces every synonym in a text file with its canonical word.

The dictionary is a plain text file with one entry per line:

    happy{glad,joyful,cheerful}

Unknown words can be learned interactively, and every dictionary edit can
be undone.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "config file (default ~/.synrewrite/synrewrite.yaml)")
	flags.StringVar(&a.flags.dictPath, "dict", "", "dictionary file, overrides dictionary.path")
	flags.StringVar(&a.flags.personality, "personality", "", "output style: full, standard, minimal or machine")
	flags.StringVar(&a.flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newRewriteCmd(a),
		newWatchCmd(a),
		newResolveCmd(a),
		newAddCmd(a),
		newEntryCmd(a),
		newRemoveCmd(a),
		newListCmd(a),
		newUndoCmd(a),
		newHistoryCmd(a),
		newShellCmd(a),
	)
	rootCmd.SetIn(a.in)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)
	return rootCmd
}
