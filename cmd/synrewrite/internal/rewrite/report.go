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
	"slices"
)

// Report summarizes one rewrite pass.
type Report struct {
	// Lines is the number of lines written.
	Lines int

	// Tokens is the number of tokens seen.
	Tokens int

	// Replaced counts tokens whose output differs from the input.
	Replaced int

	// Unknown lists words left unresolved, in first-seen order.
	Unknown []UnknownWord

	// Learned lists words added to the dictionary during the pass.
	Learned []Learned

	index map[string]int
}

// UnknownWord is a word the dictionary could not resolve.
type UnknownWord struct {
	Word      string
	Count     int
	FirstLine int
}

// Learned is a word filed under a canonical word during a pass.
type Learned struct {
	Word      string
	Canonical string
	Line      int
}

func newReport() *Report {
	return &Report{index: make(map[string]int)}
}

func (r *Report) addUnknown(word string, line int) {
	if i, ok := r.index[word]; ok {
		r.Unknown[i].Count++
		return
	}
	r.index[word] = len(r.Unknown)
	r.Unknown = append(r.Unknown, UnknownWord{Word: word, Count: 1, FirstLine: line})
}

// UnknownCount returns the number of unknown token occurrences.
func (r Report) UnknownCount() int {
	n := 0
	for _, u := range r.Unknown {
		n += u.Count
	}
	return n
}

func (r *Report) clone() Report {
	if r == nil {
		return Report{}
	}
	return Report{
		Lines:    r.Lines,
		Tokens:   r.Tokens,
		Replaced: r.Replaced,
		Unknown:  slices.Clone(r.Unknown),
		Learned:  slices.Clone(r.Learned),
	}
}
