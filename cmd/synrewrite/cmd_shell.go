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
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/prompt"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/rewrite"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/session"
	"github.com/AleutianAI/synrewrite/pkg/ux"
)

const shellMenu = `1. Process text (automatic mode)
2. Process text (learning mode)
3. Add a new synonym
4. Add a new canonical word with synonyms
5. Undo last actions
6. Save and exit`

const (
	msgInvalidNumber = "Invalid input. Please enter a number."
	msgUnknownOption = "Unknown option! Please try again."
	entryTerminator  = "end"
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive menu for rewriting and editing the dictionary",
		Long: `Shell runs a menu loop over one dictionary session. Text is read from
the configured input file and written to the configured output file.
Failed actions are reported and the menu comes back; option 6 or end of
input saves the dictionary and exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			reader, prompter := a.newShellIO()
			sh := &shell{app: a, sess: sess, reader: reader, prompter: prompter}
			return sh.run(cmd.Context())
		},
	}
}

// shell drives the menu loop.
//
// # Description
//
// Every menu action works on the same session, so edits made in one
// action are undoable from a later one. Errors from an action are shown
// and the loop continues; only cancellation ends the loop with an error.
type shell struct {
	app      *app
	sess     *session.Session
	reader   InputReader
	prompter prompt.Prompter
}

func (s *shell) run(ctx context.Context) error {
	ux.Title(s.app.out, "synrewrite")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintln(s.app.out, shellMenu)
		choice, err := s.ask("Enter option: ")
		if errors.Is(err, io.EOF) {
			return s.saveAndExit()
		}
		if err != nil {
			return err
		}

		option, err := strconv.Atoi(choice)
		if err != nil {
			fmt.Fprintln(s.app.out, msgInvalidNumber)
			continue
		}

		var actionErr error
		switch option {
		case 1:
			actionErr = s.process(ctx, false)
		case 2:
			actionErr = s.process(ctx, true)
		case 3:
			actionErr = s.addSynonym(ctx)
		case 4:
			actionErr = s.addEntry(ctx)
		case 5:
			actionErr = s.undo(ctx)
		case 6:
			return s.saveAndExit()
		default:
			fmt.Fprintln(s.app.out, msgUnknownOption)
			continue
		}

		switch {
		case actionErr == nil:
		case errors.Is(actionErr, io.EOF):
			return s.saveAndExit()
		case errors.Is(actionErr, context.Canceled), errors.Is(actionErr, context.DeadlineExceeded):
			return actionErr
		case errors.Is(actionErr, prompt.ErrAborted):
			ux.Warning(s.app.out, "Cancelled")
		default:
			s.app.log.Warn("shell action failed", "option", option, "error", actionErr.Error())
			ux.Error(s.app.out, actionErr.Error())
		}
	}
}

// ask shows label and reads one line.
func (s *shell) ask(label string) (string, error) {
	if p, ok := s.reader.(PromptingInputReader); ok {
		p.SetPrompt(label)
	} else {
		fmt.Fprint(s.app.out, label)
	}
	return s.reader.ReadLine()
}

// process rewrites the configured input file. In learning mode unknown
// words are put to the prompter and learned into the session.
func (s *shell) process(ctx context.Context, learn bool) error {
	cfg := s.app.cfg
	opts := rewrite.Options{
		FoldCase: cfg.Rewrite.FoldCase,
		Metrics:  s.app.metrics,
		Logger:   s.app.log.Slog(),
	}

	var lex rewrite.Lexicon = rewrite.ReadOnly(s.sess)
	if learn {
		lex = s.sess
		opts.Interactive = true
		opts.Prompter = s.prompter
		opts.Suggester = s.app.newSuggester(s.sess.Dictionary())
	}

	rep, err := rewrite.New(lex, opts).RewriteFile(ctx, cfg.Rewrite.Input, cfg.Rewrite.Output)
	if err != nil {
		return err
	}

	ux.Success(s.app.out, fmt.Sprintf("Processed %s -> %s (%d lines, %d replaced)",
		cfg.Rewrite.Input, cfg.Rewrite.Output, rep.Lines, rep.Replaced))
	for _, l := range rep.Learned {
		ux.Info(s.app.out, fmt.Sprintf("Learned %s -> %s", l.Word, l.Canonical))
	}
	if !learn && len(rep.Unknown) > 0 {
		ux.Info(s.app.out, fmt.Sprintf("%d unknown word(s) left unchanged", len(rep.Unknown)))
	}
	return nil
}

func (s *shell) addSynonym(ctx context.Context) error {
	canonical, err := s.ask("Enter canonical word: ")
	if err != nil {
		return err
	}
	synonym, err := s.ask("Enter synonym: ")
	if err != nil {
		return err
	}

	changed, err := s.sess.AddSynonym(ctx, canonical, synonym)
	if err != nil {
		return err
	}
	if !changed {
		ux.Info(s.app.out, fmt.Sprintf("%s is already a synonym of %s", synonym, canonical))
		return nil
	}
	ux.Success(s.app.out, fmt.Sprintf("Added %s -> %s", synonym, canonical))
	return nil
}

// addEntry reads synonyms until "end", a blank line or end of input.
// Several synonyms may share one line.
func (s *shell) addEntry(ctx context.Context) error {
	canonical, err := s.ask("Enter canonical word: ")
	if err != nil {
		return err
	}

	var synonyms []string
	label := "Enter synonyms (type 'end' to finish): "
collect:
	for {
		line, err := s.ask(label)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if line == "" {
			break
		}
		for _, word := range strings.Fields(line) {
			if word == entryTerminator {
				break collect
			}
			synonyms = append(synonyms, word)
		}
		label = ""
	}

	changed, err := s.sess.AddEntry(ctx, canonical, synonyms)
	if err != nil {
		return err
	}
	if !changed {
		ux.Info(s.app.out, fmt.Sprintf("%s is unchanged", canonical))
		return nil
	}
	ux.Success(s.app.out, "Set "+entryLine(s.sess, canonical))
	return nil
}

func (s *shell) undo(ctx context.Context) error {
	answer, err := s.ask("Enter number of actions to undo: ")
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 {
		fmt.Fprintln(s.app.out, msgInvalidNumber)
		return nil
	}
	return s.app.undo(ctx, s.sess, n)
}

func (s *shell) saveAndExit() error {
	if err := s.sess.Save(); err != nil {
		return err
	}
	ux.Success(s.app.out, fmt.Sprintf("Dictionary saved to %s", s.app.cfg.Dictionary.Path))
	return nil
}
