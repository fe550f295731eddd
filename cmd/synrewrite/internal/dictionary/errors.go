// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dictionary

import (
	"errors"
	"fmt"
)

// Sentinel errors for dictionary parsing and editing.
var (
	// Format errors
	ErrMissingOpenBrace  = errors.New("missing '{'")
	ErrMissingCloseBrace = errors.New("missing '}'")
	ErrEmptyCanonical    = errors.New("canonical word is empty")
	ErrTrailingText      = errors.New("text after '}'")
	ErrEmptyWord         = errors.New("empty synonym in list")
	ErrWhitespaceInWord  = errors.New("word contains whitespace")
	ErrBraceInWord       = errors.New("word contains '{' or '}'")
)

// FormatError describes one dictionary line that could not be parsed.
//
// Load reports FormatErrors through LoadResult and keeps going; they are
// never returned as the error of a load.
type FormatError struct {
	Line   int    // 1-based line number
	Text   string // Raw line text
	Reason error  // One of the format sentinels
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Reason, e.Text)
}

// Unwrap returns the underlying reason.
func (e *FormatError) Unwrap() error {
	return e.Reason
}

// IOError wraps a failure to open, read, write or rename a file.
type IOError struct {
	Op   string // Operation that failed: "open", "read", "write", "rename"
	Path string // File involved
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}
