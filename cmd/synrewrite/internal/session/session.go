// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session composes the dictionary, the undo log and persistence.
//
// # Description
//
// Session is the only place dictionary edits are made on behalf of a
// user. Every edit follows the same steps:
//
//  1. build the inverse action from the current dictionary state
//  2. apply the edit
//  3. record the inverse (edits that change nothing record nothing)
//  4. persist the undo journal and, with autosave, the dictionary file
//
// The rewriter's interactive learning goes through Session too, so words
// learned mid-rewrite can be undone like any other edit.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"slices"
	"sync"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/dictionary"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/undo"
)

// Options configures a Session.
type Options struct {
	// DictPath is where Save writes the dictionary. Empty disables saving.
	DictPath string

	// Autosave writes the dictionary after every edit and undo.
	Autosave bool

	// Journal persists the undo log. Nil keeps undo in memory only.
	Journal *undo.Journal

	// Logger may be nil.
	Logger *slog.Logger
}

// Session owns a dictionary and its undo log.
//
// # Thread Safety
//
// Edits and undos are serialized by a mutex. Resolve only takes the
// dictionary's read lock, so lookups never wait on the session.
type Session struct {
	dict   *dictionary.Dictionary
	log    *undo.Log
	opts   Options
	logger *slog.Logger
	mu     sync.Mutex
}

// New creates a session over an existing dictionary and log.
func New(dict *dictionary.Dictionary, log *undo.Log, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{dict: dict, log: log, opts: opts, logger: logger}
}

// OpenOptions configures Open.
type OpenOptions struct {
	DictPath   string
	Autosave   bool
	MaxDepth   int
	Persist    bool   // Keep undo history in a journal between runs
	JournalDir string // Required when Persist is set
	Logger     *slog.Logger
}

// Open loads the dictionary file and the persisted undo history.
//
// # Description
//
// A missing dictionary file yields an empty dictionary and a warning, as
// on first run. Any other load failure is returned. A journal that
// cannot be opened (for example because another synrewrite process holds
// its lock) degrades to in-memory undo with a warning.
//
// # Outputs
//
//   - *Session: Ready-to-use session. Call Close when done.
//   - *dictionary.LoadResult: Summary of the dictionary load.
//   - error: *dictionary.IOError for unreadable dictionary files.
func Open(ctx context.Context, opts OpenOptions) (*Session, *dictionary.LoadResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dict := dictionary.New()
	result, err := dict.LoadFile(opts.DictPath, logger)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, result, err
		}
		logger.Warn("dictionary file not found, starting empty", "path", opts.DictPath)
	}

	log := undo.NewLog(opts.MaxDepth, logger)

	var journal *undo.Journal
	if opts.Persist && opts.JournalDir != "" {
		journal, err = openJournal(opts, logger)
		if err != nil {
			logger.Warn("undo history unavailable, undo limited to this run",
				"dir", opts.JournalDir,
				"error", err.Error(),
			)
			journal = nil
		} else {
			actions, err := journal.Load(ctx)
			if err != nil {
				logger.Warn("could not read undo history", "error", err.Error())
			}
			log.Restore(actions)
		}
	}

	s := New(dict, log, Options{
		DictPath: opts.DictPath,
		Autosave: opts.Autosave,
		Journal:  journal,
		Logger:   logger,
	})
	return s, result, nil
}

// openJournal opens the journal scoped to opts.DictPath, so undo history
// recorded against one dictionary file is never applied to another.
func openJournal(opts OpenOptions, logger *slog.Logger) (*undo.Journal, error) {
	scope, err := undo.ScopeFor(opts.DictPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("opening undo journal", "dir", opts.JournalDir, "scope", scope)
	return undo.OpenJournal(opts.JournalDir, scope, logger)
}

// Dictionary returns the session's dictionary for read access.
func (s *Session) Dictionary() *dictionary.Dictionary {
	return s.dict
}

// History returns pending undo actions, newest first.
func (s *Session) History() []undo.Action {
	return s.log.Pending()
}

// UndoDepth returns the number of pending undo actions.
func (s *Session) UndoDepth() int {
	return s.log.Depth()
}

// MaxUndo returns the undo capacity.
func (s *Session) MaxUndo() int {
	return s.log.Capacity()
}

// Resolve returns the canonical form of word.
func (s *Session) Resolve(word string) string {
	return s.dict.Resolve(word)
}

// HasCanonical reports whether word is a canonical word.
func (s *Session) HasCanonical(word string) bool {
	return s.dict.HasCanonical(word)
}

// =============================================================================
// Edits
// =============================================================================

// AddSynonym adds synonym under canonical.
//
// # Outputs
//
//   - bool: True if the dictionary changed and an undo was recorded.
//   - error: Invalid words, or a failed autosave (*dictionary.IOError).
func (s *Session) AddSynonym(ctx context.Context, canonical, synonym string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := undo.ForAddSynonym(s.dict, canonical, synonym)
	changed, err := s.dict.AddSynonym(canonical, synonym)
	if err != nil || !changed {
		return false, err
	}
	s.logger.Debug("added synonym", "canonical", a.Canonical, "synonym", a.Synonym)
	return true, s.commit(ctx, a)
}

// AddEntry inserts or overwrites the entry for canonical.
//
// # Outputs
//
//   - bool: True if the dictionary changed and an undo was recorded.
//   - error: Invalid words, or a failed autosave.
func (s *Session) AddEntry(ctx context.Context, canonical string, synonyms []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := undo.ForAddEntry(s.dict, canonical, synonyms)
	if err := s.dict.AddEntry(canonical, synonyms); err != nil {
		return false, err
	}
	if a.CanonicalExisted && len(a.Displaced) == 0 &&
		slices.Equal(a.PreviousSynonyms, s.dict.Synonyms(a.Canonical)) {
		return false, nil
	}
	s.logger.Debug("set entry", "canonical", a.Canonical, "synonyms", len(synonyms))
	return true, s.commit(ctx, a)
}

// RemoveSynonym removes synonym from canonical. Removing a synonym that
// does not map to canonical changes nothing and is not an error.
func (s *Session) RemoveSynonym(ctx context.Context, canonical, synonym string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := undo.ForRemoveSynonym(s.dict, canonical, synonym)
	if !s.dict.RemoveSynonym(canonical, synonym) {
		return false, nil
	}
	s.logger.Debug("removed synonym", "canonical", a.Canonical, "synonym", a.Synonym)
	return true, s.commit(ctx, a)
}

// Undo reverts up to count edits, newest first, clamped to the undo
// depth and capacity. Returns the number reverted.
func (s *Session) Undo(ctx context.Context, count int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.log.Undo(ctx, s.dict, count)
	if n > 0 {
		s.persistJournal(ctx)
		if saveErr := s.autosave(); saveErr != nil && err == nil {
			err = saveErr
		}
	}
	return n, err
}

// commit records the inverse and persists state after a successful edit.
func (s *Session) commit(ctx context.Context, a undo.Action) error {
	s.log.Record(a)
	s.persistJournal(ctx)
	return s.autosave()
}

func (s *Session) persistJournal(ctx context.Context) {
	if s.opts.Journal == nil {
		return
	}
	if err := s.opts.Journal.Save(ctx, s.log.Oldest()); err != nil {
		s.logger.Warn("could not persist undo history", "error", err.Error())
	}
}

func (s *Session) autosave() error {
	if !s.opts.Autosave {
		return nil
	}
	return s.saveLocked()
}

// =============================================================================
// Persistence
// =============================================================================

// Save writes the dictionary file.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Session) saveLocked() error {
	if s.opts.DictPath == "" {
		return nil
	}
	if err := s.dict.SaveFile(s.opts.DictPath); err != nil {
		return fmt.Errorf("save dictionary: %w", err)
	}
	return nil
}

// Close persists the undo history and releases the journal.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.Journal == nil {
		return nil
	}
	s.persistJournal(context.Background())
	err := s.opts.Journal.Close()
	s.opts.Journal = nil
	return err
}
