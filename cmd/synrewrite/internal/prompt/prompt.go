// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prompt asks the user what to do with words the dictionary does
// not know.
//
// # Description
//
// The rewriter calls a Prompter once per unknown word per pass. Three
// implementations exist:
//
//   - Line: plain line-oriented prompts on any reader and writer.
//   - Form: a themed huh form for interactive terminals.
//   - Decline: never learns anything.
//
// ForTerminal picks Form or Line depending on whether stdin and stdout
// are terminals.
package prompt

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/AleutianAI/synrewrite/pkg/ux"
)

// ErrAborted is returned when the user cancels the prompt (Ctrl+C in a
// form). The rewrite pass stops.
var ErrAborted = errors.New("prompt aborted by user")

// Question describes an unknown word.
type Question struct {
	// Word is the token as it appeared in the input.
	Word string

	// Line is the 1-based input line the word was found on.
	Line int

	// Suggestion is a proposed canonical word. May be empty.
	Suggestion string
}

// Decision is the user's answer to a Question.
type Decision struct {
	// Accepted is true when the word should be learned.
	Accepted bool

	// Canonical is the word to file Question.Word under. Set only when
	// Accepted is true.
	Canonical string
}

// Declined is the zero Decision.
var Declined = Decision{}

// Prompter asks about one unknown word.
//
// # Outputs
//
//   - Decision: What to do with the word.
//   - error: Stops the rewrite pass. ErrAborted on user cancel.
type Prompter interface {
	Decide(ctx context.Context, q Question) (Decision, error)
}

// Decline never learns anything.
type Decline struct{}

// Decide always declines.
func (Decline) Decide(context.Context, Question) (Decision, error) {
	return Declined, nil
}

// ForTerminal returns a Form when both stdin and stdout are terminals and
// the personality allows styled output, otherwise a Line prompter on them.
func ForTerminal() Prompter {
	if ux.IsTerminal(os.Stdin) && ux.IsTerminal(os.Stdout) &&
		ux.GetPersonalityLevel() != ux.PersonalityMachine {
		return NewForm()
	}
	return NewLine(os.Stdin, os.Stdout)
}

// decide turns raw answers into a Decision. An accepted word with no
// canonical answer falls back to the suggestion; with neither it is
// declined.
func decide(q Question, accepted bool, answer string) Decision {
	if !accepted {
		return Declined
	}
	canonical := firstField(answer)
	if canonical == "" {
		canonical = strings.TrimSpace(q.Suggestion)
	}
	if canonical == "" {
		return Declined
	}
	return Decision{Accepted: true, Canonical: canonical}
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
