// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/AleutianAI/synrewrite/pkg/ux"
)

// Form prompts with a two-step huh form: a confirm, then an input for the
// canonical word that is only shown when the word is being added.
type Form struct {
	in  io.Reader
	out io.Writer
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithIO runs the form on the given reader and writer instead of the
// terminal.
func WithIO(in io.Reader, out io.Writer) FormOption {
	return func(f *Form) {
		f.in = in
		f.out = out
	}
}

// NewForm creates a form prompter.
func NewForm(opts ...FormOption) *Form {
	f := &Form{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Decide runs the form for q.
//
// # Outputs
//
//   - Decision: The user's answer.
//   - error: ErrAborted on Ctrl+C, context errors, or terminal failures.
func (f *Form) Decide(ctx context.Context, q Question) (Decision, error) {
	add := true
	canonical := q.Suggestion

	form := f.build(q, &add, &canonical)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return Declined, ErrAborted
		}
		return Declined, fmt.Errorf("run prompt form: %w", err)
	}
	return decide(q, add, canonical), nil
}

func (f *Form) build(q Question, add *bool, canonical *string) *huh.Form {
	description := fmt.Sprintf("Found on line %d.", q.Line)
	if q.Suggestion != "" {
		description += fmt.Sprintf(" Closest known word: %s", q.Suggestion)
	}

	confirm := huh.NewConfirm().
		Title(fmt.Sprintf("Word not in dictionary: %s", q.Word)).
		Description(description).
		Affirmative("Add").
		Negative("Skip").
		Value(add)

	input := huh.NewInput().
		Title(fmt.Sprintf("Canonical word for %s", q.Word)).
		Placeholder(q.Suggestion).
		Value(canonical).
		Validate(validateCanonical(q.Suggestion))

	form := huh.NewForm(
		huh.NewGroup(confirm),
		huh.NewGroup(input).WithHideFunc(func() bool { return !*add }),
	).WithTheme(ux.FormTheme())

	if f.in != nil {
		form = form.WithInput(f.in)
	}
	if f.out != nil {
		form = form.WithOutput(f.out)
	}
	return form
}

// validateCanonical rejects answers that are blank with no suggestion to
// fall back on, and answers with more than one word.
func validateCanonical(suggestion string) func(string) error {
	return func(s string) error {
		fields := strings.Fields(s)
		switch {
		case len(fields) == 0 && strings.TrimSpace(suggestion) == "":
			return errors.New("enter a canonical word")
		case len(fields) > 1:
			return errors.New("enter a single word")
		}
		return nil
	}
}
