// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package suggest proposes a canonical form for words the dictionary does
// not know.
//
// Suggestions only pre-fill the prompt shown to the user. They are never
// applied without the user's answer.
package suggest

import (
	"context"
	"fmt"
	"strings"
)

// Vocabulary is the read-only view of the dictionary a suggester needs.
// *dictionary.Dictionary satisfies it.
type Vocabulary interface {
	// Vocabulary returns every canonical word and synonym.
	Vocabulary() []string

	// Resolve returns the canonical form of word, or word itself.
	Resolve(word string) string
}

// Suggester proposes a canonical form for an unknown word.
//
// # Outputs
//
//   - string: The suggested canonical word. Empty when there is none.
//   - error: Backend failures. Callers treat them as "no suggestion".
type Suggester interface {
	Suggest(ctx context.Context, word string) (string, error)
}

// None never suggests anything.
type None struct{}

// Suggest always returns an empty suggestion.
func (None) Suggest(context.Context, string) (string, error) {
	return "", nil
}

// Backend names accepted by the suggest.backend config key.
const (
	BackendNone         = "none"
	BackendEditDistance = "edit_distance"
	BackendLLM          = "llm"
)

// ParseBackend validates a backend name. The empty string selects
// edit distance.
func ParseBackend(name string) (string, error) {
	switch b := strings.ToLower(strings.TrimSpace(name)); b {
	case "":
		return BackendEditDistance, nil
	case BackendNone, BackendEditDistance, BackendLLM:
		return b, nil
	default:
		return "", fmt.Errorf("unknown suggest backend %q (want %s, %s or %s)",
			name, BackendNone, BackendEditDistance, BackendLLM)
	}
}
