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
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bstore "github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/storage/badger"
)

func newMemJournal(t *testing.T) *Journal {
	t.Helper()
	db, err := bstore.OpenInMemory()
	require.NoError(t, err)
	j := NewJournal(db, "test", nil)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournal_SaveLoadPreservesOrder(t *testing.T) {
	j := newMemJournal(t)
	ctx := context.Background()

	d := newDict(t)
	var actions []Action
	for i := 0; i < 12; i++ {
		actions = append(actions, ForAddSynonym(d, "happy", fmt.Sprintf("w%d", i)))
	}

	require.NoError(t, j.Save(ctx, actions))

	loaded, err := j.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 12)
	for i := range actions {
		assert.Equal(t, actions[i].ID, loaded[i].ID)
		assert.Equal(t, actions[i].Synonym, loaded[i].Synonym)
	}
}

func TestJournal_SaveReplaces(t *testing.T) {
	j := newMemJournal(t)
	ctx := context.Background()
	d := newDict(t)

	require.NoError(t, j.Save(ctx, []Action{
		ForAddSynonym(d, "happy", "a"),
		ForAddSynonym(d, "happy", "b"),
	}))
	require.NoError(t, j.Save(ctx, []Action{ForRemoveSynonym(d, "happy", "glad")}))

	loaded, err := j.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, KindRemoveSynonym, loaded[0].Kind)

	require.NoError(t, j.Save(ctx, nil))
	loaded, err = j.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestJournal_SkipsCorruptRecords(t *testing.T) {
	db, err := bstore.OpenInMemory()
	require.NoError(t, err)
	j := NewJournal(db, "test", nil)
	defer j.Close()
	ctx := context.Background()

	require.NoError(t, j.Save(ctx, []Action{ForAddSynonym(newDict(t), "happy", "a")}))
	require.NoError(t, db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(j.sequenceKey(1), []byte("{not json"))
	}))

	loaded, err := j.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestJournal_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	d := newDict(t)
	log := NewLog(10, nil)
	a := ForAddSynonym(d, "happy", "cheerful")
	_, err := d.AddSynonym("happy", "cheerful")
	require.NoError(t, err)
	log.Record(a)

	j, err := OpenJournal(dir, "test", nil)
	require.NoError(t, err)
	require.NoError(t, j.Save(ctx, log.Oldest()))
	require.NoError(t, j.Close())

	j2, err := OpenJournal(dir, "test", nil)
	require.NoError(t, err)
	defer j2.Close()

	loaded, err := j2.Load(ctx)
	require.NoError(t, err)

	restored := NewLog(10, nil)
	restored.Restore(loaded)
	n, err := restored.Undo(ctx, d, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "cheerful", d.Resolve("cheerful"))
}

func TestJournal_Closed(t *testing.T) {
	j := newMemJournal(t)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	_, err := j.Load(context.Background())
	assert.ErrorIs(t, err, ErrJournalClosed)
	assert.ErrorIs(t, j.Save(context.Background(), nil), ErrJournalClosed)
}

func TestJournal_ScopesAreIndependent(t *testing.T) {
	db, err := bstore.OpenInMemory()
	require.NoError(t, err)
	ctx := context.Background()
	d := newDict(t)

	a := NewJournal(db, "a", nil)
	b := NewJournal(db, "b", nil)
	defer a.Close()

	require.NoError(t, a.Save(ctx, []Action{ForAddSynonym(d, "happy", "cheerful")}))
	require.NoError(t, b.Save(ctx, nil))

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	loaded, err = a.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "cheerful", loaded[0].Synonym)
}

func TestScopeFor(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	rel, err := ScopeFor("synonyms.txt")
	require.NoError(t, err)
	abs, err := ScopeFor(filepath.Join(dir, "synonyms.txt"))
	require.NoError(t, err)
	other, err := ScopeFor(filepath.Join(dir, "other.txt"))
	require.NoError(t, err)

	assert.Equal(t, abs, rel)
	assert.NotEqual(t, abs, other)
	assert.Len(t, abs, 16)
}
