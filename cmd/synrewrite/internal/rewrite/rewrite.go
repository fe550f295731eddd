// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rewrite replaces every word of a text with its canonical form.
//
// # Description
//
// Input is consumed line by line. Each line is split on whitespace, each
// token is replaced by the canonical word the dictionary maps it to, and
// the tokens are joined again with single spaces. Line breaks are kept
// one-to-one, so output line N always corresponds to input line N.
//
// In interactive mode, unknown words are put to a prompt.Prompter. A word
// the user files under a canonical word is learned immediately, so the
// rest of the pass already sees it.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/prompt"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/suggest"
)

// ErrReadOnly is returned when a read-only lexicon is asked to learn.
var ErrReadOnly = errors.New("lexicon is read-only")

// Lexicon is the dictionary as the rewriter sees it.
// *session.Session satisfies it; ReadOnly adapts a plain dictionary.
type Lexicon interface {
	// Resolve returns the canonical form of word, or word itself.
	Resolve(word string) string

	// HasCanonical reports whether word is itself a canonical word.
	HasCanonical(word string) bool

	// AddSynonym files synonym under canonical.
	AddSynonym(ctx context.Context, canonical, synonym string) (bool, error)
}

// Resolver is the read half of Lexicon. *dictionary.Dictionary satisfies it.
type Resolver interface {
	Resolve(word string) string
	HasCanonical(word string) bool
}

type readOnly struct {
	Resolver
}

func (readOnly) AddSynonym(context.Context, string, string) (bool, error) {
	return false, ErrReadOnly
}

// ReadOnly wraps r as a Lexicon that refuses to learn.
func ReadOnly(r Resolver) Lexicon {
	return readOnly{Resolver: r}
}

// Options configures a Rewriter.
type Options struct {
	// Interactive prompts for unknown words.
	Interactive bool

	// Prompter answers questions about unknown words. Defaults to
	// prompt.Decline.
	Prompter prompt.Prompter

	// Suggester pre-fills the prompt. Defaults to suggest.None.
	Suggester suggest.Suggester

	// FoldCase retries unknown tokens in Unicode case-folded form, so
	// "Glad" is replaced like "glad".
	FoldCase bool

	// Metrics may be nil.
	Metrics *Metrics

	// Logger may be nil.
	Logger *slog.Logger
}

// Rewriter rewrites text against a Lexicon.
//
// # Thread Safety
//
// Non-interactive passes may run concurrently. Interactive passes share
// one Prompter and should not overlap.
type Rewriter struct {
	lex    Lexicon
	opts   Options
	logger *slog.Logger

	mu   sync.Mutex
	last Report
}

// New creates a Rewriter over lex.
func New(lex Lexicon, opts Options) *Rewriter {
	if opts.Prompter == nil {
		opts.Prompter = prompt.Decline{}
	}
	if opts.Suggester == nil {
		opts.Suggester = suggest.None{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Rewriter{lex: lex, opts: opts, logger: logger}
}

// Interactive reports whether the rewriter prompts for unknown words.
func (r *Rewriter) Interactive() bool {
	return r.opts.Interactive
}

// Rewrite returns the rewritten lines of lines.
//
// # Description
//
// The returned sequence is lazy: nothing is read until it is ranged over,
// and breaking out of the loop stops reading. Ranging again starts a new
// pass over lines, with a fresh Report and a fresh set of declined words.
//
// # Inputs
//
//   - ctx: Checked before every line and passed to the prompter.
//   - lines: Input lines without terminators. An error ends the pass.
//
// # Outputs
//
//   - iter.Seq2[string, error]: One output line per input line. On failure
//     a single ("", err) pair is yielded and the pass ends. Failures are
//     source errors, context cancellation, prompter errors (including
//     prompt.ErrAborted) and learning failures.
//
// # Examples
//
//	for line, err := range rw.Rewrite(ctx, rewrite.ReaderLines(in)) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Fprintln(out, line)
//	}
//	report := rw.Report()
func (r *Rewriter) Rewrite(ctx context.Context, lines iter.Seq2[string, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		p := r.newPass()
		defer func() { r.setLast(p.report) }()
		p.run(ctx, lines, yield)
	}
}

// Report returns a copy of the report of the most recently finished or
// stopped pass started through Rewrite.
func (r *Rewriter) Report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last.clone()
}

func (r *Rewriter) setLast(rep *Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = rep.clone()
}

// =============================================================================
// Pass
// =============================================================================

// pass holds the state of one run over the input.
type pass struct {
	r        *Rewriter
	report   *Report
	declined map[string]struct{}
	fold     cases.Caser
	start    time.Time
}

func (r *Rewriter) newPass() *pass {
	return &pass{
		r:        r,
		report:   newReport(),
		declined: make(map[string]struct{}),
		fold:     cases.Fold(),
		start:    time.Now(),
	}
}

func (p *pass) run(ctx context.Context, lines iter.Seq2[string, error], yield func(string, error) bool) {
	status := "ok"
	defer func() {
		p.r.opts.Metrics.pass(status, time.Since(p.start).Seconds())
		p.r.logger.Debug("rewrite pass finished",
			"status", status,
			"lines", p.report.Lines,
			"tokens", p.report.Tokens,
			"replaced", p.report.Replaced,
			"unknown", len(p.report.Unknown),
			"learned", len(p.report.Learned),
		)
	}()

	fail := func(err error) {
		status = "error"
		yield("", err)
	}

	lineNo := 0
	for raw, err := range lines {
		if err != nil {
			fail(fmt.Errorf("read line %d: %w", lineNo+1, err))
			return
		}
		if err := ctx.Err(); err != nil {
			fail(err)
			return
		}
		lineNo++

		out, err := p.rewriteLine(ctx, lineNo, raw)
		if err != nil {
			fail(err)
			return
		}
		p.report.Lines++
		p.r.opts.Metrics.line()

		if !yield(out, nil) {
			status = "stopped"
			return
		}
	}
}

func (p *pass) rewriteLine(ctx context.Context, lineNo int, line string) (string, error) {
	tokens := strings.Fields(line)
	for i, tok := range tokens {
		out, err := p.rewriteToken(ctx, lineNo, tok)
		if err != nil {
			return "", err
		}
		tokens[i] = out
	}
	return strings.Join(tokens, " "), nil
}

func (p *pass) rewriteToken(ctx context.Context, lineNo int, raw string) (string, error) {
	tok := norm.NFC.String(raw)
	p.report.Tokens++

	out, known := p.lookup(tok)
	if !known && p.r.opts.Interactive {
		learned, err := p.ask(ctx, lineNo, tok)
		if err != nil {
			return "", err
		}
		if learned {
			out, known = p.lookup(tok)
		}
	}

	// Normalization only builds the lookup key. Tokens that resolve to
	// themselves keep their input bytes.
	if out == tok {
		out = raw
	}
	replaced := out != raw
	if replaced {
		p.report.Replaced++
	}
	if !known {
		p.report.addUnknown(tok, lineNo)
	}
	p.r.opts.Metrics.token(replaced, !known)
	return out, nil
}

// lookup resolves tok. A token is known when it is a synonym or a
// canonical word, directly or after case folding.
func (p *pass) lookup(tok string) (string, bool) {
	if c := p.r.lex.Resolve(tok); c != tok || p.r.lex.HasCanonical(tok) {
		return c, true
	}
	if !p.r.opts.FoldCase {
		return tok, false
	}
	folded := p.fold.String(tok)
	if folded == tok {
		return tok, false
	}
	if c := p.r.lex.Resolve(folded); c != folded || p.r.lex.HasCanonical(folded) {
		return c, true
	}
	return tok, false
}

// ask puts tok to the prompter once per pass and learns the answer.
func (p *pass) ask(ctx context.Context, lineNo int, tok string) (bool, error) {
	if _, ok := p.declined[tok]; ok {
		return false, nil
	}

	suggestion, err := p.r.opts.Suggester.Suggest(ctx, tok)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		p.r.logger.Debug("no suggestion", "word", tok, "error", err.Error())
		suggestion = ""
	}

	decision, err := p.r.opts.Prompter.Decide(ctx, prompt.Question{
		Word:       tok,
		Line:       lineNo,
		Suggestion: suggestion,
	})
	if err != nil {
		return false, fmt.Errorf("prompt for %q on line %d: %w", tok, lineNo, err)
	}

	if !decision.Accepted || decision.Canonical == tok {
		p.declined[tok] = struct{}{}
		p.r.opts.Metrics.decision(false)
		return false, nil
	}

	if _, err := p.r.lex.AddSynonym(ctx, decision.Canonical, tok); err != nil {
		return false, fmt.Errorf("learn %q as %q: %w", tok, decision.Canonical, err)
	}
	p.report.Learned = append(p.report.Learned, Learned{
		Word:      tok,
		Canonical: decision.Canonical,
		Line:      lineNo,
	})
	p.r.opts.Metrics.decision(true)
	p.r.logger.Info("learned word", "word", tok, "canonical", decision.Canonical, "line", lineNo)
	return true, nil
}
