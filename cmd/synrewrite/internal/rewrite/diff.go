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
	"bytes"
	"fmt"

	"github.com/sourcegraph/go-diff/diff"
)

// DiffContext is the number of unchanged lines shown around each change.
const DiffContext = 3

// UnifiedDiff renders the changes between before and after as a unified
// diff.
//
// # Description
//
// Rewriting never adds or removes lines, so lines are compared by index
// rather than with a general sequence diff. Changed lines closer than
// twice DiffContext are merged into one hunk.
//
// # Inputs
//
//   - name: File name for the --- and +++ headers.
//   - before, after: Input and output lines. Extra lines on either side
//     are shown as removed or added.
//
// # Outputs
//
//   - string: The diff, or "" when nothing changed.
//   - error: Rendering failures.
func UnifiedDiff(name string, before, after []string) (string, error) {
	n := max(len(before), len(after))

	var changed []int
	for i := 0; i < n; i++ {
		if i >= len(before) || i >= len(after) || before[i] != after[i] {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return "", nil
	}

	fd := &diff.FileDiff{
		OrigName: "a/" + name,
		NewName:  "b/" + name,
	}
	for _, span := range groupChanges(changed, n) {
		fd.Hunks = append(fd.Hunks, buildHunk(before, after, span))
	}

	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("render diff: %w", err)
	}
	return string(out), nil
}

// span is a half-open range of line indexes covered by one hunk.
type span struct {
	start, end int
}

func groupChanges(changed []int, n int) []span {
	var spans []span
	for _, i := range changed {
		start := max(i-DiffContext, 0)
		end := min(i+DiffContext+1, n)
		if len(spans) > 0 && start <= spans[len(spans)-1].end {
			spans[len(spans)-1].end = end
			continue
		}
		spans = append(spans, span{start: start, end: end})
	}
	return spans
}

func buildHunk(before, after []string, s span) *diff.Hunk {
	var body bytes.Buffer
	var origLines, newLines int32

	for i := s.start; i < s.end; i++ {
		hasOld := i < len(before)
		hasNew := i < len(after)
		if hasOld && hasNew && before[i] == after[i] {
			body.WriteString(" " + before[i] + "\n")
			origLines++
			newLines++
			continue
		}
		if hasOld {
			body.WriteString("-" + before[i] + "\n")
			origLines++
		}
		if hasNew {
			body.WriteString("+" + after[i] + "\n")
			newLines++
		}
	}

	return &diff.Hunk{
		OrigStartLine: startLine(s.start, origLines),
		OrigLines:     origLines,
		NewStartLine:  startLine(s.start, newLines),
		NewLines:      newLines,
		Body:          body.Bytes(),
	}
}

// startLine converts a 0-based index to the 1-based start line of a hunk
// side. An empty side starts at the line before it, as diff(1) does.
func startLine(index int, count int32) int32 {
	if count == 0 {
		return int32(index)
	}
	return int32(index + 1)
}
