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
	"bufio"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// maxLineBytes bounds a single dictionary line.
const maxLineBytes = 1 << 20

// LoadResult summarizes a load.
type LoadResult struct {
	Lines    int            // Lines read, including blank ones
	Entries  int            // Entries applied
	Skipped  []*FormatError // Malformed lines, in file order
	Replaced []string       // Canonical words defined more than once
}

// =============================================================================
// Parsing
// =============================================================================

// ParseLine parses one `canonical{syn1, syn2}` line.
//
// # Description
//
// The canonical word is everything before the first '{', trimmed. The
// synonym list is everything up to the last '}', split on ',' with each
// item trimmed. Braces inside the list are ErrBraceInWord. `canonical{}`
// and `canonical{ }` are valid empty entries.
//
// # Outputs
//
//   - string: The canonical word.
//   - []string: Synonyms in file order.
//   - error: One of the format sentinels.
func ParseLine(line string) (string, []string, error) {
	open := strings.IndexByte(line, '{')
	if open < 0 {
		return "", nil, ErrMissingOpenBrace
	}
	end := strings.LastIndexByte(line, '}')
	if end < open {
		return "", nil, ErrMissingCloseBrace
	}
	if strings.TrimSpace(line[end+1:]) != "" {
		return "", nil, ErrTrailingText
	}

	canonical, err := validateWord(line[:open], ErrEmptyCanonical)
	if err != nil {
		return "", nil, err
	}

	inner := line[open+1 : end]
	if strings.TrimSpace(inner) == "" {
		return canonical, []string{}, nil
	}

	parts := strings.Split(inner, ",")
	synonyms := make([]string, 0, len(parts))
	for _, p := range parts {
		s, err := validateWord(p, ErrEmptyWord)
		if err != nil {
			return "", nil, err
		}
		synonyms = append(synonyms, s)
	}
	return canonical, synonyms, nil
}

// FormatEntry renders an entry as a dictionary line without the newline.
func FormatEntry(e Entry) string {
	return e.Canonical + "{" + strings.Join(e.Synonyms, ", ") + "}"
}

// =============================================================================
// Load
// =============================================================================

// Load reads dictionary lines from r and applies each one with AddEntry.
//
// # Description
//
// Blank lines are ignored. A malformed line is logged at warn level,
// recorded in LoadResult.Skipped and skipped; loading continues. A later
// line for the same canonical word replaces the earlier one.
//
// # Inputs
//
//   - r: Source of dictionary lines.
//   - logger: Receives skipped-line warnings. May be nil.
//
// # Outputs
//
//   - *LoadResult: Summary, non-nil even on error.
//   - error: Only read failures; malformed lines are not errors.
func (d *Dictionary) Load(r io.Reader, logger *slog.Logger) (*LoadResult, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	result := &LoadResult{}
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		result.Lines++
		line := scanner.Text()
		if result.Lines == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimFunc(line, unicode.IsSpace) == "" {
			continue
		}

		canonical, synonyms, err := ParseLine(line)
		if err == nil {
			err = d.AddEntry(canonical, synonyms)
		}
		if err != nil {
			fe := &FormatError{Line: result.Lines, Text: line, Reason: err}
			result.Skipped = append(result.Skipped, fe)
			logger.Warn("skipping malformed dictionary line",
				"line", fe.Line,
				"reason", err.Error(),
			)
			continue
		}

		if _, dup := seen[canonical]; dup {
			result.Replaced = append(result.Replaced, canonical)
		}
		seen[canonical] = struct{}{}
		result.Entries++
	}

	if err := scanner.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// LoadFile loads the dictionary file at path into d.
//
// Failures to open or read the file are returned as *IOError; callers
// can test for a missing file with errors.Is(err, fs.ErrNotExist).
func (d *Dictionary) LoadFile(path string, logger *slog.Logger) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return &LoadResult{}, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	result, err := d.Load(f, logger)
	if err != nil {
		return result, &IOError{Op: "read", Path: path, Err: err}
	}
	return result, nil
}

// =============================================================================
// Save
// =============================================================================

// Save writes the dictionary to w, one entry per line, in canonical
// insertion order. Empty entries are written as `canonical{}`.
func (d *Dictionary) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for e := range d.Entries() {
		if _, err := bw.WriteString(FormatEntry(e) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveFile atomically replaces the file at path with the dictionary.
//
// # Description
//
// Writes to a temporary file in the same directory, syncs it, then
// renames it over path. The temporary file is removed on every failure
// path, so a failed save never leaves partial output behind.
//
// # Outputs
//
//   - error: *IOError naming the failed step.
func (d *Dictionary) SaveFile(path string) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := d.Save(tmp); err != nil {
		return &IOError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &IOError{Op: "sync", Path: tmpPath, Err: err}
	}
	if err := tmp.Chmod(0644); err != nil {
		return &IOError{Op: "chmod", Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "close", Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// IsFormatError reports whether err is a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
