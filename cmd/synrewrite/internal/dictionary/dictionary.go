// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dictionary holds the synonym dictionary: a mapping from surface
// words to their canonical form, and its flat text file format.
//
// # Data Model
//
// A Dictionary keeps two views that every mutation updates together:
//
//	synonym   -> canonical     (used by Resolve)
//	canonical -> [synonyms...] (used by Save and enumeration)
//
// plus the order canonical words were first inserted, so saving is
// deterministic. Every synonym maps to exactly one canonical word. A
// canonical word may exist with no synonyms.
//
// # File Format
//
// One entry per line:
//
//	happy{glad, joyful}
//	sad{}
//
// See Load and Save.
//
// # Thread Safety
//
// Dictionary is safe for concurrent use. Reads take a shared lock, so
// several read-only rewrites can run against one dictionary.
package dictionary

import (
	"iter"
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Entry is a canonical word with its ordered synonyms.
type Entry struct {
	Canonical string
	Synonyms  []string
}

// Dictionary maps synonyms to canonical words.
//
// The zero value is not usable; create one with New.
type Dictionary struct {
	mu sync.RWMutex

	// canonicalOf maps each synonym to the one canonical word it belongs to.
	canonicalOf map[string]string

	// synonyms maps each canonical word to its ordered synonym list.
	synonyms map[string][]string

	// order lists canonical words in first-insertion order.
	order []string
}

// New creates an empty dictionary.
func New() *Dictionary {
	return &Dictionary{
		canonicalOf: make(map[string]string),
		synonyms:    make(map[string][]string),
	}
}

// Normalize trims a word and converts it to Unicode NFC so that composed
// and decomposed spellings of the same word compare equal.
func Normalize(word string) string {
	return norm.NFC.String(strings.TrimSpace(word))
}

// validateWord normalizes word and rejects empty or multi-token words.
func validateWord(word string, empty error) (string, error) {
	w := Normalize(word)
	if w == "" {
		return "", empty
	}
	if err := checkChars(w); err != nil {
		return "", err
	}
	return w, nil
}

// checkChars rejects words that could not round-trip through the file
// format.
func checkChars(w string) error {
	if strings.IndexFunc(w, unicode.IsSpace) >= 0 {
		return ErrWhitespaceInWord
	}
	if strings.ContainsAny(w, "{}") {
		return ErrBraceInWord
	}
	return nil
}

// =============================================================================
// Lookups
// =============================================================================

// Resolve returns the canonical form of word, or word itself when it is
// not a known synonym.
func (d *Dictionary) Resolve(word string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if c, ok := d.canonicalOf[Normalize(word)]; ok {
		return c
	}
	return word
}

// CanonicalOf returns the canonical word a synonym maps to.
func (d *Dictionary) CanonicalOf(synonym string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.canonicalOf[Normalize(synonym)]
	return c, ok
}

// HasCanonical reports whether canonical has an entry, possibly empty.
func (d *Dictionary) HasCanonical(canonical string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.synonyms[Normalize(canonical)]
	return ok
}

// Synonyms returns a copy of the synonyms listed under canonical, or nil
// when there is no such entry.
func (d *Dictionary) Synonyms(canonical string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	syns, ok := d.synonyms[Normalize(canonical)]
	if !ok {
		return nil
	}
	return slices.Clone(syns)
}

// IndexOf returns the position of synonym in canonical's list, or -1.
func (d *Dictionary) IndexOf(canonical, synonym string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return slices.Index(d.synonyms[Normalize(canonical)], Normalize(synonym))
}

// Len returns the number of canonical entries.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}

// SynonymCount returns the number of mapped synonyms.
func (d *Dictionary) SynonymCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.canonicalOf)
}

// Entries iterates over a snapshot of the dictionary in canonical
// insertion order.
//
// # Description
//
// The snapshot is taken when iteration starts and no lock is held while
// yielding, so the loop body may mutate the dictionary.
func (d *Dictionary) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range d.snapshot() {
			if !yield(e) {
				return
			}
		}
	}
}

// Vocabulary returns every known word: canonical words first, in
// insertion order, then their synonyms. Each word appears once.
func (d *Dictionary) Vocabulary() []string {
	entries := d.snapshot()

	seen := make(map[string]struct{})
	words := make([]string, 0, len(entries))
	add := func(w string) {
		if _, ok := seen[w]; ok {
			return
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	for _, e := range entries {
		add(e.Canonical)
	}
	for _, e := range entries {
		for _, s := range e.Synonyms {
			add(s)
		}
	}
	return words
}

func (d *Dictionary) snapshot() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entries := make([]Entry, 0, len(d.order))
	for _, c := range d.order {
		entries = append(entries, Entry{Canonical: c, Synonyms: slices.Clone(d.synonyms[c])})
	}
	return entries
}

// =============================================================================
// Mutations
// =============================================================================

// AddEntry inserts or overwrites the entry for canonical.
//
// # Description
//
// Every listed synonym is pointed at canonical and removed from the list
// of any canonical word it previously belonged to. Synonyms formerly
// listed under canonical but absent from the new list lose their mapping.
// Duplicates and blank strings in synonyms are dropped. An existing
// canonical keeps its position in the save order.
//
// # Inputs
//
//   - canonical: The canonical word. Must be non-empty and a single token.
//   - synonyms: The new synonym list; may be empty.
//
// # Outputs
//
//   - error: ErrEmptyCanonical, ErrWhitespaceInWord or ErrBraceInWord.
//     The dictionary is unchanged on error.
func (d *Dictionary) AddEntry(canonical string, synonyms []string) error {
	c, err := validateWord(canonical, ErrEmptyCanonical)
	if err != nil {
		return err
	}
	clean, err := cleanList(synonyms)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, old := range d.synonyms[c] {
		if !slices.Contains(clean, old) && d.canonicalOf[old] == c {
			delete(d.canonicalOf, old)
		}
	}
	for _, s := range clean {
		if prev, ok := d.canonicalOf[s]; ok && prev != c {
			d.detachLocked(prev, s)
		}
		d.canonicalOf[s] = c
	}
	d.ensureLocked(c)
	d.synonyms[c] = clean
	return nil
}

// AddSynonym appends synonym to canonical's entry, creating the entry if
// needed.
//
// # Description
//
// A synonym that belonged to another canonical word is detached from it
// first. Adding a synonym already listed under canonical changes nothing.
//
// # Outputs
//
//   - bool: True if the dictionary changed.
//   - error: ErrEmptyCanonical, ErrEmptyWord, ErrWhitespaceInWord or
//     ErrBraceInWord.
func (d *Dictionary) AddSynonym(canonical, synonym string) (bool, error) {
	c, err := validateWord(canonical, ErrEmptyCanonical)
	if err != nil {
		return false, err
	}
	s, err := validateWord(synonym, ErrEmptyWord)
	if err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.canonicalOf[s]; ok {
		if prev == c {
			return false, nil
		}
		d.detachLocked(prev, s)
	}
	d.ensureLocked(c)
	d.canonicalOf[s] = c
	d.synonyms[c] = append(d.synonyms[c], s)
	return true, nil
}

// InsertSynonym places synonym at index in canonical's list, creating the
// entry if needed and detaching the synonym from wherever it was. The
// index is clamped to the list bounds.
func (d *Dictionary) InsertSynonym(canonical, synonym string, index int) error {
	c, err := validateWord(canonical, ErrEmptyCanonical)
	if err != nil {
		return err
	}
	s, err := validateWord(synonym, ErrEmptyWord)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.canonicalOf[s]; ok {
		d.detachLocked(prev, s)
	}
	d.ensureLocked(c)

	list := d.synonyms[c]
	index = max(0, min(index, len(list)))
	d.synonyms[c] = slices.Insert(list, index, s)
	d.canonicalOf[s] = c
	return nil
}

// RemoveSynonym removes synonym from canonical's entry.
//
// Removal only happens when synonym currently maps to canonical; any
// other call is a no-op. The entry itself stays, even when emptied.
// Returns whether a removal happened.
func (d *Dictionary) RemoveSynonym(canonical, synonym string) bool {
	c := Normalize(canonical)
	s := Normalize(synonym)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.canonicalOf[s] != c || c == "" {
		return false
	}
	delete(d.canonicalOf, s)
	d.detachLocked(c, s)
	return true
}

// RemoveEntry deletes canonical and unmaps all of its synonyms. Returns
// whether the entry existed.
func (d *Dictionary) RemoveEntry(canonical string) bool {
	c := Normalize(canonical)

	d.mu.Lock()
	defer d.mu.Unlock()

	syns, ok := d.synonyms[c]
	if !ok {
		return false
	}
	for _, s := range syns {
		if d.canonicalOf[s] == c {
			delete(d.canonicalOf, s)
		}
	}
	delete(d.synonyms, c)
	if i := slices.Index(d.order, c); i >= 0 {
		d.order = slices.Delete(d.order, i, i+1)
	}
	return true
}

// ensureLocked registers canonical in the save order if it is new.
func (d *Dictionary) ensureLocked(c string) {
	if _, ok := d.synonyms[c]; ok {
		return
	}
	d.synonyms[c] = nil
	d.order = append(d.order, c)
}

// detachLocked drops s from c's list without touching canonicalOf.
func (d *Dictionary) detachLocked(c, s string) {
	list := d.synonyms[c]
	if i := slices.Index(list, s); i >= 0 {
		d.synonyms[c] = slices.Delete(list, i, i+1)
	}
}

// cleanList normalizes synonyms, dropping blanks and duplicates.
func cleanList(synonyms []string) ([]string, error) {
	clean := make([]string, 0, len(synonyms))
	for _, raw := range synonyms {
		s := Normalize(raw)
		if s == "" || slices.Contains(clean, s) {
			continue
		}
		if err := checkChars(s); err != nil {
			return nil, err
		}
		clean = append(clean, s)
	}
	return clean, nil
}
