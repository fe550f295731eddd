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
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/rewrite"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/watch"
	"github.com/AleutianAI/synrewrite/pkg/ux"
)

var errWatchSameFile = errors.New("watch needs an output file different from the input")

func newWatchCmd(a *app) *cobra.Command {
	var foldCase bool
	cmd := &cobra.Command{
		Use:   "watch [input] [output]",
		Short: "Rewrite again whenever the input or the dictionary changes",
		Long: `Watch rewrites input into output once, then again every time the input
file or the dictionary file changes, until interrupted. Unknown words are
left unchanged; nothing is learned.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := a.cfg.Rewrite.Input, a.cfg.Rewrite.Output
			if len(args) > 0 {
				in = args[0]
			}
			if len(args) > 1 {
				out = args[1]
			}
			return a.runWatch(cmd.Context(), in, out, a.cfg.Rewrite.FoldCase || foldCase)
		},
	}
	cmd.Flags().BoolVar(&foldCase, "fold-case", false, "match words regardless of case")
	return cmd
}

// runWatch rewrites in to out, then repeats on every change until ctx
// is canceled.
//
// # Description
//
// Each run reloads the dictionary from disk, so edits made with `add`,
// `entry` or an editor take effect on the next run. A failing run is
// reported and watching continues.
func (a *app) runWatch(ctx context.Context, in, out string, foldCase bool) error {
	absIn, err := filepath.Abs(in)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return err
	}
	if absIn == absOut {
		return errWatchSameFile
	}

	run := func(ctx context.Context) {
		if err := a.rewriteOnce(ctx, in, out, foldCase); err != nil {
			if ctx.Err() != nil {
				return
			}
			a.log.Warn("watch run failed", "input", in, "error", err.Error())
			ux.Error(a.out, err.Error())
		}
	}
	run(ctx)

	w, err := watch.New([]string{in, a.cfg.Dictionary.Path}, func(ctx context.Context, changes []watch.Change) {
		for _, c := range changes {
			a.log.Debug("change detected", "path", c.Path, "op", c.Op.String())
		}
		if !watch.Exists(in) {
			return
		}
		run(ctx)
	}, &watch.Options{
		Debounce: a.cfg.WatchDebounce(),
		Logger:   a.log.Slog(),
	})
	if err != nil {
		return err
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	ux.Info(a.out, fmt.Sprintf("Watching %s and %s (Ctrl+C to stop)", in, a.cfg.Dictionary.Path))
	<-ctx.Done()
	return nil
}

func (a *app) rewriteOnce(ctx context.Context, in, out string, foldCase bool) error {
	dict, err := a.loadDictionary()
	if err != nil {
		return err
	}
	rep, err := rewrite.New(rewrite.ReadOnly(dict), rewrite.Options{
		FoldCase: foldCase,
		Metrics:  a.metrics,
		Logger:   a.log.Slog(),
	}).RewriteFile(ctx, in, out)
	if err != nil {
		return err
	}
	ux.Success(a.out, fmt.Sprintf("Rewrote %s -> %s (%d lines, %d replaced, %d unknown)",
		in, out, rep.Lines, rep.Replaced, rep.UnknownCount()))
	return nil
}
