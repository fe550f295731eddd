// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package undo

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/dictionary"
)

func newDict(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	d := dictionary.New()
	require.NoError(t, d.AddEntry("happy", []string{"glad", "joyful"}))
	require.NoError(t, d.AddEntry("sad", []string{"unhappy", "blue"}))
	return d
}

// dump renders the dictionary in file format for exact before/after
// comparisons, including entry and synonym order.
func dump(t *testing.T, d *dictionary.Dictionary) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, d.Save(&buf))
	return buf.String()
}

// =============================================================================
// add_synonym
// =============================================================================

func TestAddSynonym_UndoRestoresExactly(t *testing.T) {
	tests := []struct {
		name      string
		canonical string
		synonym   string
	}{
		{"new synonym on existing entry", "happy", "cheerful"},
		{"new entry", "fast", "quick"},
		{"synonym moved from another entry", "sad", "glad"},
		{"synonym moved into new entry", "content", "joyful"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDict(t)
			before := dump(t, d)

			a := ForAddSynonym(d, tt.canonical, tt.synonym)
			changed, err := d.AddSynonym(tt.canonical, tt.synonym)
			require.NoError(t, err)
			require.True(t, changed)
			assert.Equal(t, tt.canonical, d.Resolve(tt.synonym))

			require.NoError(t, a.Apply(d))
			assert.Equal(t, before, dump(t, d))
		})
	}
}

func TestForAddSynonym_CapturesPreviousPlacement(t *testing.T) {
	d := newDict(t)

	a := ForAddSynonym(d, "sad", "joyful")
	assert.Equal(t, KindAddSynonym, a.Kind)
	assert.True(t, a.CanonicalExisted)
	require.NotNil(t, a.Previous)
	assert.Equal(t, Placement{Canonical: "happy", Index: 1}, *a.Previous)
	assert.NotEqual(t, [16]byte{}, [16]byte(a.ID))
	assert.False(t, a.CreatedAt.IsZero())
}

// =============================================================================
// remove_synonym
// =============================================================================

func TestRemoveSynonym_UndoRestoresPosition(t *testing.T) {
	d := newDict(t)
	before := dump(t, d)

	a := ForRemoveSynonym(d, "happy", "glad")
	assert.Equal(t, 0, a.Index)
	require.True(t, d.RemoveSynonym("happy", "glad"))
	assert.Equal(t, "glad", d.Resolve("glad"))

	require.NoError(t, a.Apply(d))
	assert.Equal(t, "happy", d.Resolve("glad"))
	assert.Equal(t, before, dump(t, d))
}

// =============================================================================
// add_entry
// =============================================================================

func TestAddEntry_UndoRestoresExactly(t *testing.T) {
	tests := []struct {
		name      string
		canonical string
		synonyms  []string
	}{
		{"brand new entry", "fast", []string{"quick", "rapid"}},
		{"overwrite existing", "happy", []string{"merry"}},
		{"overwrite to empty", "happy", nil},
		{"steals from two entries", "mood", []string{"joyful", "blue", "glad"}},
		{"overwrite and steal", "happy", []string{"unhappy", "glad", "new"}},
		{"duplicates in input", "mood", []string{"blue", "blue", " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDict(t)
			before := dump(t, d)

			a := ForAddEntry(d, tt.canonical, tt.synonyms)
			require.NoError(t, d.AddEntry(tt.canonical, tt.synonyms))

			require.NoError(t, a.Apply(d))
			assert.Equal(t, before, dump(t, d))
		})
	}
}

func TestForAddEntry_CapturesDisplaced(t *testing.T) {
	d := newDict(t)

	a := ForAddEntry(d, "mood", []string{"blue", "glad", "fresh", "blue"})
	assert.False(t, a.CanonicalExisted)
	assert.Equal(t, []Displaced{
		{Synonym: "blue", From: Placement{Canonical: "sad", Index: 1}},
		{Synonym: "glad", From: Placement{Canonical: "happy", Index: 0}},
	}, a.Displaced)
}

// =============================================================================
// Misc
// =============================================================================

func TestApply_UnknownKind(t *testing.T) {
	err := Action{Kind: "rename_entry"}.Apply(dictionary.New())
	assert.ErrorIs(t, err, ErrUnknownActionKind)
}

func TestAction_JSONRoundTripStillApplies(t *testing.T) {
	d := newDict(t)
	before := dump(t, d)

	a := ForAddEntry(d, "happy", []string{"blue"})
	require.NoError(t, d.AddEntry("happy", []string{"blue"}))

	data, err := json.Marshal(a)
	require.NoError(t, err)
	var decoded Action
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, a.ID, decoded.ID)
	require.NoError(t, decoded.Apply(d))
	assert.Equal(t, before, dump(t, d))
}

func TestAction_String(t *testing.T) {
	d := newDict(t)
	assert.Equal(t, "add synonym cheerful -> happy", ForAddSynonym(d, "happy", "cheerful").String())
	assert.Equal(t, "remove synonym glad from happy", ForRemoveSynonym(d, "happy", "glad").String())
	assert.Equal(t, "replace entry happy", ForAddEntry(d, "happy", nil).String())
	assert.Equal(t, "add entry fast", ForAddEntry(d, "fast", nil).String())
}
