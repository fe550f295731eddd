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
	"iter"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/dictionary"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/prompt"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/session"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/suggest"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/undo"
)

// =============================================================================
// Test Helpers
// =============================================================================

// dictLexicon lets tests learn straight into a dictionary.
type dictLexicon struct {
	*dictionary.Dictionary
}

func (l dictLexicon) AddSynonym(_ context.Context, canonical, synonym string) (bool, error) {
	return l.Dictionary.AddSynonym(canonical, synonym)
}

func testDict(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	d := dictionary.New()
	require.NoError(t, d.AddEntry("happy", []string{"glad", "joyful"}))
	require.NoError(t, d.AddEntry("sad", []string{"unhappy", "blue"}))
	return d
}

// scripted answers questions from a map and records what it was asked.
type scripted struct {
	answers map[string]string
	asked   []prompt.Question
	err     error
}

func (s *scripted) Decide(_ context.Context, q prompt.Question) (prompt.Decision, error) {
	s.asked = append(s.asked, q)
	if s.err != nil {
		return prompt.Declined, s.err
	}
	if c, ok := s.answers[q.Word]; ok {
		return prompt.Decision{Accepted: true, Canonical: c}, nil
	}
	return prompt.Declined, nil
}

func (s *scripted) words() []string {
	var out []string
	for _, q := range s.asked {
		out = append(out, q.Word)
	}
	return out
}

// failIfAsked is a prompter that must never be called.
type failIfAsked struct{ t *testing.T }

func (f failIfAsked) Decide(_ context.Context, q prompt.Question) (prompt.Decision, error) {
	f.t.Errorf("unexpected prompt for %q", q.Word)
	return prompt.Declined, nil
}

func lines(ls ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, l := range ls {
			if !yield(l, nil) {
				return
			}
		}
	}
}

func collect(t *testing.T, seq iter.Seq2[string, error]) []string {
	t.Helper()
	var out []string
	for line, err := range seq {
		require.NoError(t, err)
		out = append(out, line)
	}
	return out
}

func collectErr(seq iter.Seq2[string, error]) ([]string, error) {
	var out []string
	for line, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, line)
	}
	return out, nil
}

// =============================================================================
// Non-interactive Tests
// =============================================================================

func TestRewrite_ReplacesSynonyms(t *testing.T) {
	d := dictionary.New()
	require.NoError(t, d.AddEntry("happy", []string{"glad", "joyful"}))
	rw := New(ReadOnly(d), Options{})

	got := collect(t, rw.Rewrite(context.Background(), lines("I am glad today")))
	assert.Equal(t, []string{"I am happy today"}, got)
}

func TestRewrite_WhitespaceAndLineBreaks(t *testing.T) {
	rw := New(ReadOnly(testDict(t)), Options{})

	got := collect(t, rw.Rewrite(context.Background(), lines(
		"  glad\t\tjoyful  ",
		"",
		"   \t ",
		"blue is\tnot   glad",
	)))
	assert.Equal(t, []string{
		"happy happy",
		"",
		"",
		"sad is not happy",
	}, got)
}

func TestRewrite_UnknownPassThroughWithoutPrompt(t *testing.T) {
	rw := New(ReadOnly(testDict(t)), Options{Prompter: failIfAsked{t}})

	got := collect(t, rw.Rewrite(context.Background(), lines("cheery and glad")))
	assert.Equal(t, []string{"cheery and happy"}, got)
}

func TestRewrite_Report(t *testing.T) {
	rw := New(ReadOnly(testDict(t)), Options{})

	collect(t, rw.Rewrite(context.Background(), lines(
		"zeta glad alpha",
		"",
		"alpha happy blue zeta alpha",
	)))

	rep := rw.Report()
	assert.Equal(t, 3, rep.Lines)
	assert.Equal(t, 8, rep.Tokens)
	assert.Equal(t, 2, rep.Replaced, "glad and blue")
	assert.Equal(t, []UnknownWord{
		{Word: "zeta", Count: 2, FirstLine: 1},
		{Word: "alpha", Count: 3, FirstLine: 1},
	}, rep.Unknown)
	assert.Equal(t, 5, rep.UnknownCount())
	assert.Empty(t, rep.Learned)
}

func TestRewrite_CanonicalWordsAreKnown(t *testing.T) {
	rw := New(ReadOnly(testDict(t)), Options{Interactive: true, Prompter: failIfAsked{t}})

	got := collect(t, rw.Rewrite(context.Background(), lines("happy sad")))
	assert.Equal(t, []string{"happy sad"}, got)
	assert.Empty(t, rw.Report().Unknown)
}

func TestRewrite_FoldCase(t *testing.T) {
	d := testDict(t)

	plain := New(ReadOnly(d), Options{})
	assert.Equal(t, []string{"Glad HAPPY"}, collect(t, plain.Rewrite(context.Background(), lines("Glad HAPPY"))))

	folded := New(ReadOnly(d), Options{FoldCase: true})
	assert.Equal(t, []string{"happy happy"}, collect(t, folded.Rewrite(context.Background(), lines("Glad HAPPY"))))
}

func TestRewrite_NormalizesTokens(t *testing.T) {
	d := dictionary.New()
	require.NoError(t, d.AddEntry("coffee", []string{"café"}))
	rw := New(ReadOnly(d), Options{})

	got := collect(t, rw.Rewrite(context.Background(), lines("café")))
	assert.Equal(t, []string{"coffee"}, got)
}

func TestRewrite_KeepsUnknownTokenBytes(t *testing.T) {
	d := dictionary.New()
	require.NoError(t, d.AddEntry("happy", []string{"glad"}))
	require.NoError(t, d.AddEntry("coffee", []string{"caf\u00e9"}))
	rw := New(ReadOnly(d), Options{})

	got := collect(t, rw.Rewrite(context.Background(), lines(
		"the\u0301 cafe\u0301 glad",
		"happy\u0301 happy",
	)))
	assert.Equal(t, []string{
		"the\u0301 coffee happy",
		"happy\u0301 happy",
	}, got)

	rep := rw.Report()
	assert.Equal(t, 2, rep.Replaced, "cafe and glad")
	require.Len(t, rep.Unknown, 2)
	assert.Equal(t, "th\u00e9", rep.Unknown[0].Word)
}

func TestRewrite_EarlyBreakStopsReading(t *testing.T) {
	read := 0
	src := func(yield func(string, error) bool) {
		for _, l := range []string{"glad", "blue", "glad"} {
			read++
			if !yield(l, nil) {
				return
			}
		}
	}

	rw := New(ReadOnly(testDict(t)), Options{})
	for line, err := range rw.Rewrite(context.Background(), src) {
		require.NoError(t, err)
		assert.Equal(t, "happy", line)
		break
	}
	assert.Equal(t, 1, read)
	assert.Equal(t, 1, rw.Report().Lines)
}

func TestRewrite_SourceError(t *testing.T) {
	boom := errors.New("disk on fire")
	src := func(yield func(string, error) bool) {
		if !yield("glad", nil) {
			return
		}
		yield("", boom)
	}

	got, err := collectErr(New(ReadOnly(testDict(t)), Options{}).Rewrite(context.Background(), src))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"happy"}, got)
}

func TestRewrite_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := collectErr(New(ReadOnly(testDict(t)), Options{}).Rewrite(ctx, lines("glad")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadOnly_RefusesToLearn(t *testing.T) {
	_, err := ReadOnly(testDict(t)).AddSynonym(context.Background(), "happy", "merry")
	assert.ErrorIs(t, err, ErrReadOnly)
}

// =============================================================================
// Interactive Tests
// =============================================================================

func TestRewrite_LearnsImmediately(t *testing.T) {
	d := testDict(t)
	p := &scripted{answers: map[string]string{"cheery": "happy"}}
	rw := New(dictLexicon{d}, Options{Interactive: true, Prompter: p})

	got := collect(t, rw.Rewrite(context.Background(), lines(
		"glad cheery cheery",
		"cheery",
	)))

	assert.Equal(t, []string{"happy happy happy", "happy"}, got)
	assert.Equal(t, []string{"cheery"}, p.words(), "asked once")
	assert.Equal(t, "happy", d.Resolve("cheery"))

	rep := rw.Report()
	assert.Equal(t, []Learned{{Word: "cheery", Canonical: "happy", Line: 1}}, rep.Learned)
	assert.Empty(t, rep.Unknown)
	assert.Equal(t, 4, rep.Replaced)
}

func TestRewrite_DeclinedAskedOncePerPass(t *testing.T) {
	p := &scripted{}
	rw := New(dictLexicon{testDict(t)}, Options{Interactive: true, Prompter: p})
	src := lines("zeta zeta", "zeta alpha")

	got := collect(t, rw.Rewrite(context.Background(), src))
	assert.Equal(t, []string{"zeta zeta", "zeta alpha"}, got)
	assert.Equal(t, []string{"zeta", "alpha"}, p.words())
	assert.Equal(t, 2, p.asked[1].Line)

	// A new pass forgets what was declined.
	collect(t, rw.Rewrite(context.Background(), src))
	assert.Equal(t, []string{"zeta", "alpha", "zeta", "alpha"}, p.words())
}

func TestRewrite_AnswerEqualToWordIsDecline(t *testing.T) {
	d := testDict(t)
	p := &scripted{answers: map[string]string{"zeta": "zeta"}}
	rw := New(dictLexicon{d}, Options{Interactive: true, Prompter: p})

	collect(t, rw.Rewrite(context.Background(), lines("zeta zeta")))
	assert.Len(t, p.asked, 1)
	assert.False(t, d.HasCanonical("zeta"))
}

func TestRewrite_PrompterErrorStopsPass(t *testing.T) {
	p := &scripted{err: prompt.ErrAborted}
	rw := New(dictLexicon{testDict(t)}, Options{Interactive: true, Prompter: p})

	got, err := collectErr(rw.Rewrite(context.Background(), lines("glad", "zeta", "blue")))
	assert.ErrorIs(t, err, prompt.ErrAborted)
	assert.Equal(t, []string{"happy"}, got)
	assert.Equal(t, 1, rw.Report().Lines)
}

func TestRewrite_LearnFailureStopsPass(t *testing.T) {
	p := &scripted{answers: map[string]string{"zeta": "happy"}}
	rw := New(ReadOnly(testDict(t)), Options{Interactive: true, Prompter: p})

	_, err := collectErr(rw.Rewrite(context.Background(), lines("zeta")))
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestRewrite_PassesSuggestion(t *testing.T) {
	d := testDict(t)
	p := &scripted{}
	rw := New(dictLexicon{d}, Options{
		Interactive: true,
		Prompter:    p,
		Suggester:   suggest.NewEditDistance(d, 2),
	})

	collect(t, rw.Rewrite(context.Background(), lines("joyfull qqqqqq")))
	require.Len(t, p.asked, 2)
	assert.Equal(t, prompt.Question{Word: "joyfull", Line: 1, Suggestion: "happy"}, p.asked[0])
	assert.Empty(t, p.asked[1].Suggestion)
}

type brokenSuggester struct{}

func (brokenSuggester) Suggest(context.Context, string) (string, error) {
	return "", errors.New("model offline")
}

func TestRewrite_SuggesterErrorIsIgnored(t *testing.T) {
	p := &scripted{}
	rw := New(dictLexicon{testDict(t)}, Options{Interactive: true, Prompter: p, Suggester: brokenSuggester{}})

	got := collect(t, rw.Rewrite(context.Background(), lines("zeta")))
	assert.Equal(t, []string{"zeta"}, got)
	require.Len(t, p.asked, 1)
	assert.Empty(t, p.asked[0].Suggestion)
}

func TestRewrite_LearnedThroughSessionIsUndoable(t *testing.T) {
	d := testDict(t)
	s := session.New(d, undo.NewLog(10, nil), session.Options{})
	p := &scripted{answers: map[string]string{"cheery": "happy", "gloomy": "sad"}}
	rw := New(s, Options{Interactive: true, Prompter: p})
	ctx := context.Background()

	got := collect(t, rw.Rewrite(ctx, lines("cheery gloomy")))
	assert.Equal(t, []string{"happy sad"}, got)
	assert.Equal(t, 2, s.UndoDepth())

	n, err := s.Undo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "gloomy", d.Resolve("gloomy"))
	assert.Equal(t, "happy", d.Resolve("cheery"))
}

func TestRewrite_IsRestartable(t *testing.T) {
	rw := New(ReadOnly(testDict(t)), Options{})
	seq := rw.Rewrite(context.Background(), lines("glad", "blue"))

	first := collect(t, seq)
	second := collect(t, seq)
	assert.Equal(t, first, second)
	assert.True(t, slices.Equal([]string{"happy", "sad"}, first))
	assert.Equal(t, 2, rw.Report().Lines)
}

func TestReaderLines(t *testing.T) {
	got := collect(t, ReaderLines(strings.NewReader("a b\n\nc\r\nlast")))
	assert.Equal(t, []string{"a b", "", "c", "last"}, got)
}
