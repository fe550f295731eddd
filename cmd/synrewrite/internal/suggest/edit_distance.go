// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package suggest

import (
	"context"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

const (
	// DefaultMaxDistance is the edit distance used when none is configured.
	DefaultMaxDistance = 2

	// MinWordLength is the shortest word (in runes) worth suggesting for.
	// Shorter words match almost everything within two edits.
	MinWordLength = 3
)

// EditDistance suggests the canonical form of the closest known word.
//
// # Description
//
// Compares the unknown word against every canonical word and synonym using
// Levenshtein distance over runes, ignoring case. A synonym match suggests
// its canonical word, so "gald" suggests "happy" when "glad" is a synonym
// of "happy".
//
// Candidates are ranked by distance, then by the suggested canonical word
// in lexical order, so results are deterministic.
//
// # Thread Safety
//
// Safe for concurrent use. The vocabulary is read on every call, so words
// learned during a rewrite are considered immediately.
type EditDistance struct {
	vocab       Vocabulary
	maxDistance int
}

// NewEditDistance creates an edit-distance suggester over vocab.
//
// # Inputs
//
//   - vocab: Dictionary view. Usually *dictionary.Dictionary.
//   - maxDistance: Largest edit distance to consider. Non-positive values
//     select DefaultMaxDistance.
func NewEditDistance(vocab Vocabulary, maxDistance int) *EditDistance {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	return &EditDistance{vocab: vocab, maxDistance: maxDistance}
}

// MaxDistance returns the configured maximum edit distance.
func (e *EditDistance) MaxDistance() int {
	return e.maxDistance
}

// Suggest returns the best canonical match for word, or "" if nothing is
// within the maximum distance.
func (e *EditDistance) Suggest(ctx context.Context, word string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if utf8.RuneCountInString(word) < MinWordLength {
		return "", nil
	}

	fold := cases.Fold()
	target := []rune(fold.String(word))

	best := ""
	bestDist := e.maxDistance + 1
	for _, term := range e.vocab.Vocabulary() {
		candidate := []rune(fold.String(term))

		// Can't be within distance if lengths differ too much
		lenDiff := len(candidate) - len(target)
		if lenDiff < 0 {
			lenDiff = -lenDiff
		}
		if lenDiff > e.maxDistance {
			continue
		}

		dist := levenshtein(target, candidate)
		if dist > e.maxDistance {
			continue
		}

		canonical := e.vocab.Resolve(term)
		if dist < bestDist || (dist == bestDist && canonical < best) {
			best = canonical
			bestDist = dist
		}
	}
	return best, nil
}

// levenshtein computes the edit distance between two rune slices using
// two rows of the dynamic programming table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
