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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Line prompts with plain text lines.
//
// # Description
//
// The conversation for one word looks like:
//
//	Word not in dictionary: gladly
//	Add to dictionary? (y/n): y
//	Enter canonical word for gladly [happy]:
//
// "y" or "yes" (any case) accepts. An empty canonical answer takes the
// suggestion shown in brackets. End of input declines, so piping a short
// answer file never blocks.
//
// # Thread Safety
//
// Decide calls are serialized.
type Line struct {
	in  *bufio.Reader
	out io.Writer
	mu  sync.Mutex
}

// NewLine creates a line prompter reading answers from in and writing
// prompts to out.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: out}
}

// Decide asks whether to learn q.Word and under which canonical word.
//
// # Outputs
//
//   - Decision: Declined on "n", end of input or an empty answer with no
//     suggestion.
//   - error: Context cancellation or read failures other than EOF.
func (l *Line) Decide(ctx context.Context, q Question) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Declined, err
	}

	fmt.Fprintf(l.out, "Word not in dictionary: %s\n", q.Word)
	fmt.Fprint(l.out, "Add to dictionary? (y/n): ")
	answer, _, err := l.readLine()
	if err != nil {
		return Declined, err
	}
	if !isYes(answer) {
		return Declined, nil
	}

	if q.Suggestion != "" {
		fmt.Fprintf(l.out, "Enter canonical word for %s [%s]: ", q.Word, q.Suggestion)
	} else {
		fmt.Fprintf(l.out, "Enter canonical word for %s: ", q.Word)
	}
	canonical, _, err := l.readLine()
	if err != nil {
		return Declined, err
	}
	return decide(q, true, canonical), nil
}

// Ask prints label and reads one answer line. The shell uses it for menu
// input that is not about unknown words.
func (l *Line) Ask(ctx context.Context, label string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(l.out, label)
	answer, atEOF, err := l.readLine()
	if err != nil {
		return "", err
	}
	if atEOF {
		return "", io.EOF
	}
	return answer, nil
}

// readLine returns the next line without surrounding whitespace. End of
// input is not an error: atEOF reports that nothing was left to read.
func (l *Line) readLine() (answer string, atEOF bool, err error) {
	s, err := l.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", false, fmt.Errorf("read answer: %w", err)
		}
		return strings.TrimSpace(s), s == "", nil
	}
	return strings.TrimSpace(s), false, nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
