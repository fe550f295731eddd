// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package undo records dictionary edits as explicit inverse operations and
// replays them newest first.
//
// # Description
//
// Each edit is captured, before it is applied, as an Action that carries
// exactly the data needed to put the dictionary back. Actions are plain
// data: they serialize to JSON so the Journal can persist them between
// CLI invocations.
//
// # Example
//
//	action := undo.ForAddSynonym(dict, "happy", "glad")
//	dict.AddSynonym("happy", "glad")
//	log.Record(action)
//	...
//	n, err := log.Undo(ctx, dict, 1)
package undo

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/dictionary"
)

// Sentinel errors.
var (
	ErrUnknownActionKind = errors.New("unknown undo action kind")
	ErrJournalClosed     = errors.New("undo journal is closed")
)

// Kind tags which edit an Action inverts.
type Kind string

const (
	KindAddSynonym    Kind = "add_synonym"
	KindRemoveSynonym Kind = "remove_synonym"
	KindAddEntry      Kind = "add_entry"
)

// Placement is where a synonym sat: its canonical word and list index.
type Placement struct {
	Canonical string `json:"canonical"`
	Index     int    `json:"index"`
}

// Displaced is a synonym that an add_entry edit pulled away from another
// canonical word.
type Displaced struct {
	Synonym string    `json:"synonym"`
	From    Placement `json:"from"`
}

// Action is the inverse of one dictionary edit.
//
// Only the fields relevant to Kind are set:
//
//	add_synonym:    Canonical, Synonym, CanonicalExisted, Previous
//	remove_synonym: Canonical, Synonym, Index
//	add_entry:      Canonical, CanonicalExisted, PreviousSynonyms, Displaced
type Action struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`

	Canonical string `json:"canonical"`
	Synonym   string `json:"synonym,omitempty"`

	CanonicalExisted bool        `json:"canonical_existed,omitempty"`
	Previous         *Placement  `json:"previous,omitempty"`
	Index            int         `json:"index,omitempty"`
	PreviousSynonyms []string    `json:"previous_synonyms,omitempty"`
	Displaced        []Displaced `json:"displaced,omitempty"`
}

// Inspector is the read side of the dictionary needed to build inverses.
type Inspector interface {
	HasCanonical(canonical string) bool
	CanonicalOf(synonym string) (string, bool)
	IndexOf(canonical, synonym string) int
	Synonyms(canonical string) []string
}

// Target is the write side of the dictionary that inverses are applied to.
type Target interface {
	AddEntry(canonical string, synonyms []string) error
	InsertSynonym(canonical, synonym string, index int) error
	RemoveSynonym(canonical, synonym string) bool
	RemoveEntry(canonical string) bool
}

var (
	_ Inspector = (*dictionary.Dictionary)(nil)
	_ Target    = (*dictionary.Dictionary)(nil)
)

func newAction(kind Kind, canonical string) Action {
	return Action{
		ID:        uuid.New(),
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
		Canonical: dictionary.Normalize(canonical),
	}
}

// =============================================================================
// Inverse construction
// =============================================================================

// ForAddSynonym captures the inverse of AddSynonym(canonical, synonym).
//
// # Description
//
// Must be called before the edit. Records whether canonical already had
// an entry and, if synonym belonged to another canonical word, where it
// sat so undo can put it back at the same index.
func ForAddSynonym(d Inspector, canonical, synonym string) Action {
	a := newAction(KindAddSynonym, canonical)
	a.Synonym = dictionary.Normalize(synonym)
	a.CanonicalExisted = d.HasCanonical(a.Canonical)

	if prev, ok := d.CanonicalOf(a.Synonym); ok && prev != a.Canonical {
		a.Previous = &Placement{Canonical: prev, Index: d.IndexOf(prev, a.Synonym)}
	}
	return a
}

// ForRemoveSynonym captures the inverse of RemoveSynonym(canonical,
// synonym): the index the synonym occupied. Must be called before the
// edit.
func ForRemoveSynonym(d Inspector, canonical, synonym string) Action {
	a := newAction(KindRemoveSynonym, canonical)
	a.Synonym = dictionary.Normalize(synonym)
	a.Index = d.IndexOf(a.Canonical, a.Synonym)
	return a
}

// ForAddEntry captures the inverse of AddEntry(canonical, synonyms).
//
// # Description
//
// Must be called before the edit. Records whether the entry existed, its
// previous synonym list, and the previous placement of every listed
// synonym that currently belongs to a different canonical word.
func ForAddEntry(d Inspector, canonical string, synonyms []string) Action {
	a := newAction(KindAddEntry, canonical)
	a.CanonicalExisted = d.HasCanonical(a.Canonical)
	if a.CanonicalExisted {
		a.PreviousSynonyms = d.Synonyms(a.Canonical)
	}

	seen := make(map[string]struct{}, len(synonyms))
	for _, raw := range synonyms {
		s := dictionary.Normalize(raw)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}

		if prev, ok := d.CanonicalOf(s); ok && prev != a.Canonical {
			a.Displaced = append(a.Displaced, Displaced{
				Synonym: s,
				From:    Placement{Canonical: prev, Index: d.IndexOf(prev, s)},
			})
		}
	}
	return a
}

// =============================================================================
// Apply
// =============================================================================

// Apply performs the inverse edit on t.
//
// # Outputs
//
//   - error: ErrUnknownActionKind for an unrecognized Kind (e.g. a journal
//     written by a newer version), or a dictionary error.
func (a Action) Apply(t Target) error {
	switch a.Kind {
	case KindAddSynonym:
		t.RemoveSynonym(a.Canonical, a.Synonym)
		if !a.CanonicalExisted {
			t.RemoveEntry(a.Canonical)
		}
		if a.Previous != nil {
			return t.InsertSynonym(a.Previous.Canonical, a.Synonym, a.Previous.Index)
		}
		return nil

	case KindRemoveSynonym:
		return t.InsertSynonym(a.Canonical, a.Synonym, a.Index)

	case KindAddEntry:
		if a.CanonicalExisted {
			if err := t.AddEntry(a.Canonical, a.PreviousSynonyms); err != nil {
				return err
			}
		} else {
			t.RemoveEntry(a.Canonical)
		}

		// Lower indices first so each insert lands at its recorded slot.
		displaced := slices.Clone(a.Displaced)
		slices.SortStableFunc(displaced, func(x, y Displaced) int {
			if c := cmp.Compare(x.From.Canonical, y.From.Canonical); c != 0 {
				return c
			}
			return cmp.Compare(x.From.Index, y.From.Index)
		})
		for _, d := range displaced {
			if err := t.InsertSynonym(d.From.Canonical, d.Synonym, d.From.Index); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownActionKind, a.Kind)
	}
}

// String describes the edit this action undoes, for history listings.
func (a Action) String() string {
	switch a.Kind {
	case KindAddSynonym:
		return fmt.Sprintf("add synonym %s -> %s", a.Synonym, a.Canonical)
	case KindRemoveSynonym:
		return fmt.Sprintf("remove synonym %s from %s", a.Synonym, a.Canonical)
	case KindAddEntry:
		verb := "add entry"
		if a.CanonicalExisted {
			verb = "replace entry"
		}
		return fmt.Sprintf("%s %s", verb, a.Canonical)
	default:
		return fmt.Sprintf("unknown action %q", a.Kind)
	}
}
