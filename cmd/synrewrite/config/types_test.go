// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig_IsValid verifies the defaults pass validation.
func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.Meta.CreatedAt.IsZero() {
		t.Error("Meta.CreatedAt should be set")
	}
}

// TestValidate verifies individual constraints.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SynrewriteConfig)
		wantErr string
	}{
		{"ok", func(*SynrewriteConfig) {}, ""},
		{"empty dictionary path", func(c *SynrewriteConfig) { c.Dictionary.Path = "" }, "Dictionary.Path is required"},
		{"zero undo depth", func(c *SynrewriteConfig) { c.Undo.MaxDepth = 0 }, "Undo.MaxDepth must be at least 1"},
		{"huge undo depth", func(c *SynrewriteConfig) { c.Undo.MaxDepth = 5000 }, "Undo.MaxDepth must be at most 1000"},
		{"persist without dir", func(c *SynrewriteConfig) { c.Undo.JournalDir = "" }, "Undo.JournalDir is required"},
		{"no persist no dir", func(c *SynrewriteConfig) { c.Undo.Persist = false; c.Undo.JournalDir = "" }, ""},
		{"bad backend", func(c *SynrewriteConfig) { c.Suggest.Backend = "magic" }, "Suggest.Backend must be one of"},
		{"bad url", func(c *SynrewriteConfig) { c.LLM.BaseURL = "not a url" }, "LLM.BaseURL must be a URL"},
		{"empty url ok", func(c *SynrewriteConfig) { c.LLM.BaseURL = "" }, ""},
		{"bad level", func(c *SynrewriteConfig) { c.Logging.Level = "loud" }, "Logging.Level must be one of"},
		{"bad personality", func(c *SynrewriteConfig) { c.UX.Personality = "grumpy" }, "UX.Personality must be one of"},
		{"machine personality", func(c *SynrewriteConfig) { c.UX.Personality = "machine" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

// TestWatchDebounce verifies the millisecond conversion.
func TestWatchDebounce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rewrite.DebounceMS = 350
	if got := cfg.WatchDebounce(); got != 350*time.Millisecond {
		t.Errorf("WatchDebounce() = %v, want 350ms", got)
	}
}
