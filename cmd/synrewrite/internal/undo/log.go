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
	"io"
	"log/slog"
	"slices"
	"sync"
)

// DefaultMaxDepth is the number of edits that can be undone.
const DefaultMaxDepth = 10

// =============================================================================
// Log
// =============================================================================

// Log is a bounded LIFO of pending undo actions.
//
// # Description
//
// Log is a ring buffer sized to the maximum undo depth. Recording into a
// full log overwrites the oldest action, so memory stays bounded no
// matter how many edits a session makes. Undo pops from the newest end.
//
// # Thread Safety
//
// Log is safe for concurrent use. Undo holds the log lock only while
// popping, never while applying an action.
//
// # Limitations
//
//   - Evicted actions cannot be recovered.
//   - Undo requests are clamped to MaxDepth as well as to Depth.
type Log struct {
	buffer   []Action
	head     int // index of the oldest action
	size     int
	capacity int
	evicted  int64
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewLog creates an empty log holding at most maxDepth actions.
//
// # Inputs
//
//   - maxDepth: Capacity. Values <= 0 select DefaultMaxDepth.
//   - logger: Receives eviction and undo debug records. May be nil.
func NewLog(maxDepth int, logger *slog.Logger) *Log {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Log{
		buffer:   make([]Action, maxDepth),
		capacity: maxDepth,
		logger:   logger,
	}
}

// Record pushes an action as the newest pending undo.
//
// # Outputs
//
//   - bool: True if the oldest action was evicted to make room.
func (l *Log) Record(a Action) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pushLocked(a)
}

func (l *Log) pushLocked(a Action) bool {
	evicted := false
	if l.size == l.capacity {
		old := l.buffer[l.head]
		l.head = (l.head + 1) % l.capacity
		l.size--
		l.evicted++
		evicted = true
		l.logger.Debug("undo log full, dropping oldest action",
			"id", old.ID.String(),
			"kind", string(old.Kind),
		)
	}

	tail := (l.head + l.size) % l.capacity
	l.buffer[tail] = a
	l.size++
	return evicted
}

// popNewest removes and returns the newest action.
func (l *Log) popNewest() (Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size == 0 {
		return Action{}, false
	}
	i := (l.head + l.size - 1) % l.capacity
	a := l.buffer[i]
	l.buffer[i] = Action{}
	l.size--
	return a, true
}

// Undo pops and applies up to count actions, newest first.
//
// # Description
//
// The number undone is min(count, Depth(), Capacity()). Each action is
// removed from the log before it is applied, so a failing action is
// never retried. Non-positive counts undo nothing.
//
// # Inputs
//
//   - ctx: Checked between actions.
//   - t: The dictionary the inverses are applied to.
//   - count: Requested number of undos.
//
// # Outputs
//
//   - int: Actions actually undone.
//   - error: Context or apply failure; the count reflects work done so far.
func (l *Log) Undo(ctx context.Context, t Target, count int) (int, error) {
	n := min(count, l.Depth(), l.capacity)
	undone := 0
	for undone < n {
		if err := ctx.Err(); err != nil {
			return undone, err
		}
		a, ok := l.popNewest()
		if !ok {
			break
		}
		if err := a.Apply(t); err != nil {
			return undone, fmt.Errorf("undo %s: %w", a, err)
		}
		l.logger.Debug("undid action", "id", a.ID.String(), "kind", string(a.Kind))
		undone++
	}
	return undone, nil
}

// Pending returns the pending actions, newest first.
func (l *Log) Pending() []Action {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Action, 0, l.size)
	for k := l.size - 1; k >= 0; k-- {
		out = append(out, l.buffer[(l.head+k)%l.capacity])
	}
	return out
}

// Depth returns the number of pending actions.
func (l *Log) Depth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Capacity returns the maximum undo depth.
func (l *Log) Capacity() int {
	return l.capacity
}

// Evicted returns how many actions were dropped because the log was full.
func (l *Log) Evicted() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.evicted
}

// Restore replaces the log contents with actions given oldest first, as
// returned by Journal.Load. Only the newest Capacity() actions are kept.
func (l *Log) Restore(actions []Action) {
	l.mu.Lock()
	defer l.mu.Unlock()

	clear(l.buffer)
	l.head, l.size = 0, 0
	for _, a := range actions {
		l.pushLocked(a)
	}
}

// Clear drops every pending action.
func (l *Log) Clear() {
	l.Restore(nil)
}

// Oldest returns the pending actions oldest first, the order Journal.Save
// expects.
func (l *Log) Oldest() []Action {
	pending := l.Pending()
	slices.Reverse(pending)
	return pending
}
