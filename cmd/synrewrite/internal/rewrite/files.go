// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rewrite

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/dictionary"
)

// ErrInteractiveBatch is returned by RewriteFiles on an interactive
// rewriter. Prompts from parallel workers would interleave.
var ErrInteractiveBatch = errors.New("batch rewrite requires a non-interactive rewriter")

const maxLineSize = 1024 * 1024

// ReaderLines yields the lines of r without terminators. The sequence
// reads r once; ranging again yields nothing new.
func ReaderLines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			if !yield(scanner.Text(), nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", err)
		}
	}
}

// FileLines yields the lines of the file at path. Every range opens the
// file again, so the sequence can be replayed. Open and read failures are
// yielded as *dictionary.IOError.
func FileLines(path string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield("", &dictionary.IOError{Op: "open", Path: path, Err: err})
			return
		}
		defer f.Close()

		for line, err := range ReaderLines(f) {
			if err != nil {
				yield("", &dictionary.IOError{Op: "read", Path: path, Err: err})
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// RewriteFile rewrites the file at in into the file at out.
//
// # Description
//
// Output goes to a temporary file next to out that is renamed into place
// only after the whole input was rewritten, so a failed or aborted pass
// leaves out untouched. in and out may be the same path.
//
// # Outputs
//
//   - *Report: The pass summary. Non-nil even on failure.
//   - error: *dictionary.IOError for file failures, or any error the pass
//     yielded (prompter, learning, context).
func (r *Rewriter) RewriteFile(ctx context.Context, in, out string) (report *Report, err error) {
	p := r.newPass()
	defer func() { r.setLast(p.report) }()

	dir, base := filepath.Split(out)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return p.report, &dictionary.IOError{Op: "create", Path: out, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	var passErr error
	p.run(ctx, FileLines(in), func(line string, err error) bool {
		if err != nil {
			passErr = err
			return false
		}
		if _, werr := w.WriteString(line + "\n"); werr != nil {
			passErr = &dictionary.IOError{Op: "write", Path: out, Err: werr}
			return false
		}
		return true
	})
	if passErr != nil {
		return p.report, passErr
	}

	if err := w.Flush(); err != nil {
		return p.report, &dictionary.IOError{Op: "write", Path: out, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return p.report, &dictionary.IOError{Op: "close", Path: out, Err: err}
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return p.report, &dictionary.IOError{Op: "rename", Path: out, Err: err}
	}

	r.logger.Debug("rewrote file", "input", in, "output", out, "lines", p.report.Lines)
	return p.report, nil
}

// FilePair names one input and its output.
type FilePair struct {
	In  string
	Out string
}

// RewriteFiles rewrites several files with at most jobs running at once.
//
// # Description
//
// Only non-interactive rewriters can run batches. The first failure
// cancels the remaining files; files already written stay written.
//
// # Outputs
//
//   - []Report: One report per pair, in pair order. Entries for files that
//     were not processed are zero.
//   - error: ErrInteractiveBatch, or the first file failure.
func (r *Rewriter) RewriteFiles(ctx context.Context, pairs []FilePair, jobs int) ([]Report, error) {
	if r.opts.Interactive {
		return nil, ErrInteractiveBatch
	}
	if jobs <= 0 {
		jobs = 1
	}

	reports := make([]Report, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, pair := range pairs {
		g.Go(func() error {
			rep, err := r.RewriteFile(ctx, pair.In, pair.Out)
			reports[i] = rep.clone()
			if err != nil {
				return fmt.Errorf("rewrite %s: %w", pair.In, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return reports, err
}
