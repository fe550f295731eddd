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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sourcegraph/go-diff/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/dictionary"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// =============================================================================
// RewriteFile Tests
// =============================================================================

func TestRewriteFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "input.txt", "I am glad today\n\nfeeling blue\n")
	out := filepath.Join(dir, "output.txt")

	rw := New(ReadOnly(testDict(t)), Options{})
	rep, err := rw.RewriteFile(context.Background(), in, out)
	require.NoError(t, err)

	assert.Equal(t, "I am happy today\n\nfeeling sad\n", readFile(t, out))
	assert.Equal(t, 3, rep.Lines)
	assert.Equal(t, 2, rep.Replaced)
	assert.Equal(t, rep.Lines, rw.Report().Lines)
}

func TestRewriteFile_InPlace(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "text.txt", "glad blue")

	_, err := New(ReadOnly(testDict(t)), Options{}).RewriteFile(context.Background(), path, path)
	require.NoError(t, err)
	assert.Equal(t, "happy sad\n", readFile(t, path))
}

func TestRewriteFile_MissingInput(t *testing.T) {
	dir := t.TempDir()
	out := writeFile(t, dir, "output.txt", "previous run\n")

	_, err := New(ReadOnly(testDict(t)), Options{}).RewriteFile(context.Background(), filepath.Join(dir, "nope.txt"), out)
	require.Error(t, err)

	var ioErr *dictionary.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "open", ioErr.Op)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	assert.Equal(t, "previous run\n", readFile(t, out), "output untouched")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file removed")
}

func TestRewriteFile_OutputDirMissing(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "input.txt", "glad\n")

	_, err := New(ReadOnly(testDict(t)), Options{}).RewriteFile(context.Background(), in, filepath.Join(dir, "no", "out.txt"))
	var ioErr *dictionary.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "create", ioErr.Op)
}

func TestRewriteFile_AbortLeavesOutputUntouched(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "input.txt", "glad\nzeta\n")
	out := writeFile(t, dir, "output.txt", "old\n")

	p := &scripted{err: errors.New("interrupted")}
	rw := New(dictLexicon{testDict(t)}, Options{Interactive: true, Prompter: p})

	_, err := rw.RewriteFile(context.Background(), in, out)
	require.Error(t, err)
	assert.Equal(t, "old\n", readFile(t, out))
}

func TestFileLines_Replays(t *testing.T) {
	path := writeFile(t, t.TempDir(), "in.txt", "one\ntwo\n")
	seq := FileLines(path)

	assert.Equal(t, []string{"one", "two"}, collect(t, seq))
	assert.Equal(t, []string{"one", "two"}, collect(t, seq))
}

// =============================================================================
// RewriteFiles Tests
// =============================================================================

func TestRewriteFiles(t *testing.T) {
	dir := t.TempDir()
	var pairs []FilePair
	for i := 0; i < 6; i++ {
		in := writeFile(t, dir, fmt.Sprintf("in%d.txt", i), strings.Repeat("glad zeta\n", i+1))
		pairs = append(pairs, FilePair{In: in, Out: filepath.Join(dir, fmt.Sprintf("out%d.txt", i))})
	}

	rw := New(ReadOnly(testDict(t)), Options{})
	reports, err := rw.RewriteFiles(context.Background(), pairs, 3)
	require.NoError(t, err)
	require.Len(t, reports, 6)

	for i, pair := range pairs {
		assert.Equal(t, strings.Repeat("happy zeta\n", i+1), readFile(t, pair.Out))
		assert.Equal(t, i+1, reports[i].Lines)
		assert.Equal(t, []UnknownWord{{Word: "zeta", Count: i + 1, FirstLine: 1}}, reports[i].Unknown)
	}
}

func TestRewriteFiles_ReportsFailure(t *testing.T) {
	dir := t.TempDir()
	pairs := []FilePair{
		{In: writeFile(t, dir, "a.txt", "glad\n"), Out: filepath.Join(dir, "a.out")},
		{In: filepath.Join(dir, "missing.txt"), Out: filepath.Join(dir, "b.out")},
	}

	_, err := New(ReadOnly(testDict(t)), Options{}).RewriteFiles(context.Background(), pairs, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.txt")
}

func TestRewriteFiles_RefusesInteractive(t *testing.T) {
	rw := New(ReadOnly(testDict(t)), Options{Interactive: true})
	_, err := rw.RewriteFiles(context.Background(), nil, 2)
	assert.ErrorIs(t, err, ErrInteractiveBatch)
}

// =============================================================================
// UnifiedDiff Tests
// =============================================================================

func TestUnifiedDiff_NoChanges(t *testing.T) {
	out, err := UnifiedDiff("x.txt", []string{"a", "b"}, []string{"a", "b"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUnifiedDiff_ParsesBack(t *testing.T) {
	var before, after []string
	for i := 1; i <= 20; i++ {
		before = append(before, fmt.Sprintf("line %d", i))
	}
	after = append(after, before...)
	after[1] = "changed 2"
	after[3] = "changed 4"
	after[16] = "changed 17"

	out, err := UnifiedDiff("input.txt", before, after)
	require.NoError(t, err)
	assert.Contains(t, out, "--- a/input.txt")
	assert.Contains(t, out, "+++ b/input.txt")
	assert.Contains(t, out, "-line 2\n+changed 2\n")

	fd, err := diff.ParseFileDiff([]byte(out))
	require.NoError(t, err)
	require.Len(t, fd.Hunks, 2, "nearby changes share a hunk")

	assert.Equal(t, int32(1), fd.Hunks[0].OrigStartLine)
	assert.Equal(t, int32(7), fd.Hunks[0].OrigLines)
	assert.Equal(t, int32(14), fd.Hunks[1].OrigStartLine)
	assert.Equal(t, int32(7), fd.Hunks[1].NewLines)
}

func TestUnifiedDiff_UnevenLengths(t *testing.T) {
	out, err := UnifiedDiff("f", []string{"a"}, []string{"a", "b"})
	require.NoError(t, err)

	fd, err := diff.ParseFileDiff([]byte(out))
	require.NoError(t, err)
	require.Len(t, fd.Hunks, 1)
	assert.Equal(t, int32(1), fd.Hunks[0].OrigLines)
	assert.Equal(t, int32(2), fd.Hunks[0].NewLines)
}

// =============================================================================
// Metrics Tests
// =============================================================================

func TestMetrics_CountPass(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	p := &scripted{answers: map[string]string{"cheery": "happy"}}
	rw := New(dictLexicon{testDict(t)}, Options{Interactive: true, Prompter: p, Metrics: m})

	collect(t, rw.Rewrite(context.Background(), lines("glad cheery zeta", "zeta")))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.lines))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.tokens))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.replaced))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.unknown))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.learned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("declined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passes.WithLabelValues("ok")))
}

func TestWriteMetricsFile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	rw := New(ReadOnly(testDict(t)), Options{Metrics: m})
	collect(t, rw.Rewrite(context.Background(), lines("glad")))

	path := filepath.Join(t.TempDir(), "synrewrite.prom")
	require.NoError(t, WriteMetricsFile(path, reg))

	text := readFile(t, path)
	assert.Contains(t, text, "synrewrite_rewrite_lines_total 1")
	assert.Contains(t, text, "synrewrite_rewrite_replaced_total 1")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.token(true, true)
	m.line()
	m.decision(true)
	m.pass("ok", 1)
}
