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
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/rewrite"
	"github.com/AleutianAI/synrewrite/pkg/ux"
)

var (
	errBatchNeedsOutDir = errors.New("several inputs need --out-dir")
	errBatchLearn       = errors.New("--learn works on a single input")
	errBatchDiff        = errors.New("--diff works on a single input")
)

type rewriteFlags struct {
	learn    bool
	diff     bool
	report   bool
	foldCase bool
	jobs     int
	outDir   string
}

func newRewriteCmd(a *app) *cobra.Command {
	var f rewriteFlags
	cmd := &cobra.Command{
		Use:   "rewrite [input] [output]",
		Short: "Replace synonyms in a file with their canonical words",
		Long: `Rewrite reads input line by line, replaces every word the dictionary
knows with its canonical word and writes the result to output. Whitespace
between words collapses to a single space.

Without arguments the input and output files come from the config
(input.txt and output.txt by default). Input and output may be the same file.

With --out-dir, every argument is an input and each result is written to
the directory under the input's base name, several files at a time.`,
		Example: `  synrewrite rewrite notes.txt notes.out.txt
  synrewrite rewrite --learn --report notes.txt notes.txt
  synrewrite rewrite --out-dir out/ chapters/*.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.outDir != "" || len(args) > 2 {
				return a.runRewriteBatch(cmd.Context(), args, f)
			}
			return a.runRewrite(cmd.Context(), args, f)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&f.learn, "learn", "l", false, "ask about unknown words and add them to the dictionary")
	flags.BoolVar(&f.diff, "diff", false, "print a unified diff of the changes")
	flags.BoolVar(&f.report, "report", false, "print a summary with the unknown words")
	flags.BoolVar(&f.foldCase, "fold-case", false, "match words regardless of case")
	flags.IntVarP(&f.jobs, "jobs", "j", 0, "files rewritten at once with --out-dir (default from config)")
	flags.StringVar(&f.outDir, "out-dir", "", "write each input to this directory")
	return cmd
}

// runRewrite rewrites one file, optionally learning unknown words.
func (a *app) runRewrite(ctx context.Context, args []string, f rewriteFlags) error {
	in, out := a.cfg.Rewrite.Input, a.cfg.Rewrite.Output
	if len(args) > 0 {
		in = args[0]
	}
	if len(args) > 1 {
		out = args[1]
	}

	// Captured first because output may overwrite input.
	var before []string
	if f.diff {
		lines, err := readLines(in)
		if err != nil {
			return err
		}
		before = lines
	}

	opts := rewrite.Options{
		FoldCase: a.cfg.Rewrite.FoldCase || f.foldCase,
		Metrics:  a.metrics,
		Logger:   a.log.Slog(),
	}

	var (
		rw  *rewrite.Rewriter
		rep *rewrite.Report
	)
	if f.learn {
		sess, err := a.openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		opts.Interactive = true
		opts.Prompter = a.newPrompter()
		opts.Suggester = a.newSuggester(sess.Dictionary())
		rw = rewrite.New(sess, opts)
		rep, err = rw.RewriteFile(ctx, in, out)
		if rep != nil && len(rep.Learned) > 0 && !a.cfg.Dictionary.Autosave {
			if saveErr := sess.Save(); saveErr != nil && err == nil {
				err = saveErr
			}
		}
		if err != nil {
			return err
		}
	} else {
		dict, err := a.loadDictionary()
		if err != nil {
			return err
		}
		rw = rewrite.New(rewrite.ReadOnly(dict), opts)
		rep, err = rw.RewriteFile(ctx, in, out)
		if err != nil {
			return err
		}
	}

	ux.Success(a.out, fmt.Sprintf("Rewrote %s -> %s (%d lines, %d replaced)", in, out, rep.Lines, rep.Replaced))
	for _, l := range rep.Learned {
		ux.Info(a.out, fmt.Sprintf("Learned %s -> %s", l.Word, l.Canonical))
	}

	if f.diff {
		after, err := readLines(out)
		if err != nil {
			return err
		}
		text, err := rewrite.UnifiedDiff(filepath.Base(in), before, after)
		if err != nil {
			return err
		}
		if text == "" {
			ux.Info(a.out, "No changes")
		} else {
			fmt.Fprint(a.out, ux.Diff(text))
		}
	}

	if f.report {
		printReport(a.out, rep)
	}
	return nil
}

// runRewriteBatch rewrites several inputs into an output directory.
func (a *app) runRewriteBatch(ctx context.Context, args []string, f rewriteFlags) error {
	switch {
	case f.outDir == "":
		return errBatchNeedsOutDir
	case f.learn:
		return errBatchLearn
	case f.diff:
		return errBatchDiff
	}

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{a.cfg.Rewrite.Input}
	}
	if err := os.MkdirAll(f.outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	pairs := make([]rewrite.FilePair, len(inputs))
	for i, in := range inputs {
		pairs[i] = rewrite.FilePair{In: in, Out: filepath.Join(f.outDir, filepath.Base(in))}
	}

	dict, err := a.loadDictionary()
	if err != nil {
		return err
	}
	rw := rewrite.New(rewrite.ReadOnly(dict), rewrite.Options{
		FoldCase: a.cfg.Rewrite.FoldCase || f.foldCase,
		Metrics:  a.metrics,
		Logger:   a.log.Slog(),
	})

	jobs := f.jobs
	if jobs <= 0 {
		jobs = a.cfg.Rewrite.Jobs
	}
	reports, err := rw.RewriteFiles(ctx, pairs, jobs)
	if err != nil {
		return err
	}

	for i, pair := range pairs {
		rep := reports[i]
		ux.Success(a.out, fmt.Sprintf("Rewrote %s -> %s (%d lines, %d replaced)", pair.In, pair.Out, rep.Lines, rep.Replaced))
		if f.report {
			printReport(a.out, &rep)
		}
	}
	return nil
}

// printReport writes the pass summary followed by one row per unknown word.
func printReport(w io.Writer, rep *rewrite.Report) {
	ux.KeyValue(w, "lines", rep.Lines)
	ux.KeyValue(w, "tokens", rep.Tokens)
	ux.KeyValue(w, "replaced", rep.Replaced)
	ux.KeyValue(w, "unknown", rep.UnknownCount())
	ux.KeyValue(w, "learned", len(rep.Learned))
	for _, u := range rep.Unknown {
		ux.KeyValue(w, "unknown_word", fmt.Sprintf("%s count=%d first_line=%d", u.Word, u.Count, u.FirstLine))
	}
}

// readLines returns the lines of the file at path.
func readLines(path string) ([]string, error) {
	var lines []string
	for line, err := range rewrite.FileLines(path) {
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}
