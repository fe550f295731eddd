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
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/session"
	"github.com/AleutianAI/synrewrite/pkg/ux"
)

func newUndoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "undo [N]",
		Short: "Undo the last N dictionary edits",
		Long: `Undo reverts the most recent dictionary edits, newest first. N defaults
to 1 and is capped at the configured undo depth.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 1
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 1 {
					return fmt.Errorf("undo count must be a positive number, got %q", args[0])
				}
				n = v
			}
			return a.editCmd(cmd, func(sess *session.Session) error {
				return a.undo(cmd.Context(), sess, n)
			})
		},
	}
}

// undo reverts n edits and reports the outcome. Shared with the shell.
func (a *app) undo(ctx context.Context, sess *session.Session, n int) error {
	if limit := sess.MaxUndo(); n > limit {
		ux.Warning(a.out, fmt.Sprintf("Cannot undo more than %d actions.", limit))
		n = limit
	}

	undone, err := sess.Undo(ctx, n)
	if undone == 0 && err == nil {
		ux.Info(a.out, "Nothing to undo")
		return nil
	}
	if undone > 0 {
		ux.Success(a.out, fmt.Sprintf("Undid %d action(s)", undone))
	}
	return err
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the edits that undo would revert, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			history := sess.History()
			if len(history) == 0 {
				ux.Info(a.out, "Nothing to undo")
				return nil
			}
			ux.Title(a.out, fmt.Sprintf("Undo history (%d of %d)", len(history), sess.MaxUndo()))
			for i, action := range history {
				ux.KeyValue(a.out, strconv.Itoa(i+1), action.String())
			}
			return nil
		},
	}
}
