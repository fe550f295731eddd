// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the synrewrite CLI.
//
// Every print helper takes the destination writer explicitly so cobra
// commands can route output through cmd.OutOrStdout() and tests can
// capture it. Output shape depends on the personality level; machine
// mode emits plain prefixed lines with no ANSI escapes.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette - ink and paper tones with a teal accent
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#5F7C86")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style

	DiffAdd    lipgloss.Style
	DiffRemove lipgloss.Style
	DiffHunk   lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorMuted),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),

	DiffAdd:    lipgloss.NewStyle().Foreground(ColorSuccess),
	DiffRemove: lipgloss.NewStyle().Foreground(ColorError),
	DiffHunk:   lipgloss.NewStyle().Foreground(ColorTealPrimary),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	if !ShouldShowColors() {
		return string(i)
	}
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return Styles.Muted.Render(string(i))
	}
}

// style renders text with s unless colors are disabled.
func style(s lipgloss.Style, text string) string {
	if !ShouldShowColors() {
		return text
	}
	return s.Render(text)
}

// Title prints a styled title. Suppressed in machine mode.
func Title(w io.Writer, text string) {
	if GetPersonalityLevel() == PersonalityMachine {
		return
	}
	fmt.Fprintln(w, style(Styles.Title, text))
}

// Success prints a success message with checkmark
func Success(w io.Writer, text string) {
	if GetPersonalityLevel() == PersonalityMachine {
		fmt.Fprintf(w, "OK: %s\n", text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", IconSuccess.Render(), style(Styles.Success, text))
}

// Warning prints a warning message
func Warning(w io.Writer, text string) {
	if GetPersonalityLevel() == PersonalityMachine {
		fmt.Fprintf(w, "WARN: %s\n", text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", IconWarning.Render(), style(Styles.Warning, text))
}

// Error prints an error message
func Error(w io.Writer, text string) {
	if GetPersonalityLevel() == PersonalityMachine {
		fmt.Fprintf(w, "ERROR: %s\n", text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", IconError.Render(), style(Styles.Error, text))
}

// Info prints an informational message
func Info(w io.Writer, text string) {
	if GetPersonalityLevel() == PersonalityMachine {
		fmt.Fprintln(w, text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", style(Styles.Muted, "│"), text)
}

// Box prints text in a rounded box. Machine mode prints "title: content".
func Box(w io.Writer, title, content string) {
	if GetPersonalityLevel() == PersonalityMachine || !ShouldShowColors() {
		fmt.Fprintf(w, "%s: %s\n", title, content)
		return
	}
	fmt.Fprintln(w, Styles.Box.Render(Styles.Title.Render(title)+"\n"+content))
}

// KeyValue prints an aligned "key  value" row.
func KeyValue(w io.Writer, key string, value any) {
	if GetPersonalityLevel() == PersonalityMachine {
		fmt.Fprintf(w, "%s=%v\n", key, value)
		return
	}
	fmt.Fprintf(w, "  %-12s %v\n", style(Styles.Muted, key), value)
}

// Diff colorizes a unified diff line by line. Machine mode and uncolored
// levels return it unchanged.
func Diff(text string) string {
	if !ShouldShowColors() {
		return text
	}
	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	for _, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		nl := line[len(body):]
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			b.WriteString(Styles.Bold.Render(body))
		case strings.HasPrefix(body, "@@"):
			b.WriteString(Styles.DiffHunk.Render(body))
		case strings.HasPrefix(body, "+"):
			b.WriteString(Styles.DiffAdd.Render(body))
		case strings.HasPrefix(body, "-"):
			b.WriteString(Styles.DiffRemove.Render(body))
		default:
			b.WriteString(body)
		}
		b.WriteString(nl)
	}
	return b.String()
}
