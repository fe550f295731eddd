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
	"os"
	"sync"
	"testing"
)

// =============================================================================
// ParsePersonalityLevel Tests
// =============================================================================

func TestParsePersonalityLevel(t *testing.T) {
	tests := []struct {
		in   string
		want PersonalityLevel
	}{
		{"full", PersonalityFull},
		{"F", PersonalityFull},
		{"standard", PersonalityStandard},
		{"std", PersonalityStandard},
		{"minimal", PersonalityMinimal},
		{"min", PersonalityMinimal},
		{"machine", PersonalityMachine},
		{" quiet ", PersonalityMachine},
		{"fancy", PersonalityStandard},
		{"", PersonalityStandard},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParsePersonalityLevel(tt.in); got != tt.want {
				t.Errorf("ParsePersonalityLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// =============================================================================
// InitPersonality Tests
// =============================================================================

func TestInitPersonality_ExplicitWins(t *testing.T) {
	orig := GetPersonalityLevel()
	defer SetPersonalityLevel(orig)

	t.Setenv(EnvPersonality, "machine")
	InitPersonality("minimal")

	if got := GetPersonalityLevel(); got != PersonalityMinimal {
		t.Errorf("expected minimal, got %v", got)
	}
}

func TestInitPersonality_WithEnvVar(t *testing.T) {
	orig := GetPersonalityLevel()
	defer SetPersonalityLevel(orig)

	t.Setenv(EnvPersonality, "standard")
	InitPersonality("")

	if got := GetPersonalityLevel(); got != PersonalityStandard {
		t.Errorf("expected standard, got %v", got)
	}
}

func TestInitPersonality_NoEnvVar(t *testing.T) {
	orig := GetPersonalityLevel()
	defer SetPersonalityLevel(orig)

	t.Setenv(EnvPersonality, "")
	InitPersonality("")

	// Under go test stdout is usually not a terminal.
	got := GetPersonalityLevel()
	if IsTerminal(os.Stdout) {
		if got != PersonalityFull {
			t.Errorf("expected full on a terminal, got %v", got)
		}
	} else if got != PersonalityMachine {
		t.Errorf("expected machine off a terminal, got %v", got)
	}
}

// =============================================================================
// Terminal / Color Tests
// =============================================================================

func TestIsTerminal_NilAndFile(t *testing.T) {
	if IsTerminal(nil) {
		t.Error("nil file should not be a terminal")
	}

	f, err := os.CreateTemp(t.TempDir(), "tty")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if IsTerminal(f) {
		t.Error("regular file should not be a terminal")
	}
}

func TestIsInteractive_MachineMode(t *testing.T) {
	orig := GetPersonalityLevel()
	defer SetPersonalityLevel(orig)

	SetPersonalityLevel(PersonalityMachine)
	if IsInteractive() {
		t.Error("machine mode should never be interactive")
	}
}

func TestShouldShowColors(t *testing.T) {
	orig := GetPersonalityLevel()
	defer SetPersonalityLevel(orig)

	tests := []struct {
		level PersonalityLevel
		want  bool
	}{
		{PersonalityFull, true},
		{PersonalityStandard, true},
		{PersonalityMinimal, false},
		{PersonalityMachine, false},
	}

	for _, tt := range tests {
		SetPersonalityLevel(tt.level)
		if got := ShouldShowColors(); got != tt.want {
			t.Errorf("ShouldShowColors() at %v = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestPersonality_ConcurrentAccess(t *testing.T) {
	orig := GetPersonalityLevel()
	defer SetPersonalityLevel(orig)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetPersonalityLevel(PersonalityMinimal)
		}()
		go func() {
			defer wg.Done()
			_ = GetPersonalityLevel()
		}()
	}
	wg.Wait()
}
