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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/dictionary"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/session"
	"github.com/AleutianAI/synrewrite/pkg/ux"
)

// =============================================================================
// Read-only commands
// =============================================================================

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve WORD...",
		Short: "Print the canonical word for each word",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dict, err := a.loadDictionary()
			if err != nil {
				return err
			}
			for _, w := range args {
				fmt.Fprintln(a.out, dict.Resolve(w))
			}
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the dictionary in file format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dict, err := a.loadDictionary()
			if err != nil {
				return err
			}
			if err := dict.Save(a.out); err != nil {
				return err
			}
			a.log.Debug("listed dictionary", "entries", dict.Len(), "synonyms", dict.SynonymCount())
			return nil
		},
	}
}

// =============================================================================
// Edits
// =============================================================================

// editCmd opens a session, runs edit and closes the session. Every edit
// made through it can be undone by a later `synrewrite undo`.
func (a *app) editCmd(cmd *cobra.Command, edit func(*session.Session) error) error {
	sess, err := a.openSession(cmd.Context())
	if err != nil {
		return err
	}
	editErr := edit(sess)
	if !a.cfg.Dictionary.Autosave && editErr == nil {
		editErr = sess.Save()
	}
	if err := sess.Close(); err != nil {
		a.log.Warn("could not close undo history", "error", err.Error())
	}
	return editErr
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add CANONICAL SYNONYM",
		Short: "Add a synonym to a canonical word",
		Long: `Add files SYNONYM under CANONICAL, creating the canonical word if needed.
A synonym that belonged to another canonical word moves.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editCmd(cmd, func(sess *session.Session) error {
				changed, err := sess.AddSynonym(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if !changed {
					ux.Info(a.out, fmt.Sprintf("%s is already a synonym of %s", args[1], args[0]))
					return nil
				}
				ux.Success(a.out, fmt.Sprintf("Added %s -> %s", args[1], args[0]))
				return nil
			})
		},
	}
}

func newEntryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "entry CANONICAL [SYNONYM...]",
		Short: "Add or replace a canonical word and its synonyms",
		Long: `Entry sets the full synonym list of CANONICAL. An existing entry for
CANONICAL is replaced; synonyms listed here move from any other entry.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editCmd(cmd, func(sess *session.Session) error {
				changed, err := sess.AddEntry(cmd.Context(), args[0], args[1:])
				if err != nil {
					return err
				}
				if !changed {
					ux.Info(a.out, fmt.Sprintf("%s is unchanged", args[0]))
					return nil
				}
				ux.Success(a.out, "Set "+entryLine(sess, args[0]))
				return nil
			})
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove CANONICAL SYNONYM",
		Short: "Remove a synonym from a canonical word",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editCmd(cmd, func(sess *session.Session) error {
				changed, err := sess.RemoveSynonym(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if !changed {
					ux.Warning(a.out, fmt.Sprintf("%s is not a synonym of %s", args[1], args[0]))
					return nil
				}
				ux.Success(a.out, fmt.Sprintf("Removed %s from %s", args[1], args[0]))
				return nil
			})
		},
	}
}

// entryLine renders canonical's current entry the way `list` prints it.
func entryLine(sess *session.Session, canonical string) string {
	c := dictionary.Normalize(canonical)
	return dictionary.FormatEntry(dictionary.Entry{
		Canonical: c,
		Synonyms:  sess.Dictionary().Synonyms(c),
	})
}
