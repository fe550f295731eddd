// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"strings"
	"testing"
)

func withLevel(t *testing.T, level PersonalityLevel) {
	t.Helper()
	orig := GetPersonalityLevel()
	SetPersonalityLevel(level)
	t.Cleanup(func() { SetPersonalityLevel(orig) })
}

// =============================================================================
// Machine Mode Tests
// =============================================================================

func TestMachineMode_PlainPrefixes(t *testing.T) {
	withLevel(t, PersonalityMachine)

	tests := []struct {
		name string
		fn   func(*bytes.Buffer)
		want string
	}{
		{"success", func(b *bytes.Buffer) { Success(b, "saved") }, "OK: saved\n"},
		{"warning", func(b *bytes.Buffer) { Warning(b, "skipped") }, "WARN: skipped\n"},
		{"error", func(b *bytes.Buffer) { Error(b, "failed") }, "ERROR: failed\n"},
		{"info", func(b *bytes.Buffer) { Info(b, "note") }, "note\n"},
		{"title", func(b *bytes.Buffer) { Title(b, "synrewrite") }, ""},
		{"box", func(b *bytes.Buffer) { Box(b, "Undo", "2 actions") }, "Undo: 2 actions\n"},
		{"kv", func(b *bytes.Buffer) { KeyValue(b, "replaced", 3) }, "replaced=3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.fn(&buf)
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

// =============================================================================
// Minimal Mode Tests
// =============================================================================

func TestMinimalMode_IconsWithoutColor(t *testing.T) {
	withLevel(t, PersonalityMinimal)

	var buf bytes.Buffer
	Success(&buf, "saved")

	if buf.String() != "✓ saved\n" {
		t.Errorf("got %q", buf.String())
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("minimal mode must not emit ANSI escapes")
	}
}

func TestIcon_Render_ContainsGlyph(t *testing.T) {
	withLevel(t, PersonalityFull)

	for _, icon := range []Icon{IconSuccess, IconWarning, IconError, IconArrow, IconBullet} {
		if !strings.Contains(icon.Render(), string(icon)) {
			t.Errorf("Render() for %q lost the glyph", icon)
		}
	}
}

// =============================================================================
// Diff Tests
// =============================================================================

func TestDiff_UncoloredPassthrough(t *testing.T) {
	withLevel(t, PersonalityMachine)

	in := "--- a\n+++ b\n@@ -1 +1 @@\n-glad\n+happy\n"
	if got := Diff(in); got != in {
		t.Errorf("Diff() changed text in machine mode: %q", got)
	}
}

func TestDiff_ColoredKeepsContent(t *testing.T) {
	withLevel(t, PersonalityFull)

	in := "-glad\n+happy\n context\n"
	got := Diff(in)
	for _, want := range []string{"glad", "happy", "context"} {
		if !strings.Contains(got, want) {
			t.Errorf("Diff() dropped %q: %q", want, got)
		}
	}
	if strings.Count(got, "\n") != 3 {
		t.Errorf("Diff() changed line count: %q", got)
	}
}

// =============================================================================
// Theme Tests
// =============================================================================

func TestFormTheme_ReturnsNonNil(t *testing.T) {
	theme := FormTheme()
	if theme == nil {
		t.Fatal("FormTheme returned nil")
	}
	if theme.Focused.Title.GetForeground() != ColorTealBright {
		t.Errorf("focused title not restyled")
	}
}
