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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v4"

	bstore "github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/storage/badger"
)

// keyPrefix namespaces undo actions inside the journal database. Each
// dictionary gets its own scope below it.
const keyPrefix = "undo/"

// ScopeFor returns the journal scope of the dictionary file at path.
//
// # Description
//
// The scope is derived from the absolute path, so the same file reached
// through different relative paths shares one history and different
// files never see each other's actions.
func ScopeFor(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve dictionary path: %w", err)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:8]), nil
}

// Journal persists pending undo actions between CLI invocations.
//
// # Description
//
// Actions are stored as JSON values under zero-padded sequence keys
// inside the journal's scope, so badger's key order is oldest-first.
// Save replaces the whole set of the scope in one transaction; the log
// is small (at most MaxDepth actions) so rewriting it is cheaper than
// tracking individual pops.
//
// # Thread Safety
//
// Journal is safe for concurrent use.
type Journal struct {
	db     *bstore.DB
	prefix []byte
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
}

// OpenJournal opens (or creates) the journal database in dir and returns
// the journal for scope. See ScopeFor.
func OpenJournal(dir, scope string, logger *slog.Logger) (*Journal, error) {
	cfg := bstore.DefaultConfig()
	cfg.Path = dir
	cfg.Logger = logger
	db, err := bstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open undo journal: %w", err)
	}
	return NewJournal(db, scope, logger), nil
}

// NewJournal wraps an already-open database, reading and writing only
// the actions of scope. The journal takes ownership and closes db on
// Close.
func NewJournal(db *bstore.DB, scope string, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	prefix := fmt.Appendf(nil, "%s%s/action/", keyPrefix, scope)
	return &Journal{db: db, prefix: prefix, logger: logger}
}

// Load returns the persisted actions, oldest first.
//
// # Outputs
//
//   - []Action: Decoded actions. Records that fail to decode are logged
//     and skipped.
//   - error: ErrJournalClosed, or a database error.
func (j *Journal) Load(ctx context.Context) ([]Action, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, ErrJournalClosed
	}

	var actions []Action
	err := j.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return bstore.ScanPrefix(txn, j.prefix, func(key, value []byte) error {
			var a Action
			if err := json.Unmarshal(value, &a); err != nil {
				j.logger.Warn("skipping unreadable undo record",
					"key", string(key),
					"error", err.Error(),
				)
				return nil
			}
			actions = append(actions, a)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load undo journal: %w", err)
	}
	return actions, nil
}

// Save replaces the persisted actions with actions, given oldest first.
func (j *Journal) Save(ctx context.Context, actions []Action) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrJournalClosed
	}

	err := j.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if err := bstore.DeletePrefix(txn, j.prefix); err != nil {
			return err
		}
		for i, a := range actions {
			value, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("encode action %s: %w", a.ID, err)
			}
			if err := txn.Set(j.sequenceKey(i), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save undo journal: %w", err)
	}
	j.logger.Debug("saved undo journal", "scope", string(j.prefix), "actions", len(actions))
	return nil
}

// Close closes the underlying database. Safe to call multiple times.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

func (j *Journal) sequenceKey(i int) []byte {
	return fmt.Appendf(nil, "%s%020d", j.prefix, i)
}
