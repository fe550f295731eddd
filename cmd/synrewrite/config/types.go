// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the synrewrite YAML configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/synrewrite/pkg/logging"
)

// CurrentConfigVersion is written into new config files.
const CurrentConfigVersion = "1"

// SynrewriteConfig is the root of synrewrite.yaml.
type SynrewriteConfig struct {
	// Meta: bookkeeping written on creation
	Meta ConfigMeta `yaml:"meta"`

	// Dictionary: where the synonym dictionary lives
	Dictionary DictionaryConfig `yaml:"dictionary"`

	// Undo: history depth and persistence
	Undo UndoConfig `yaml:"undo"`

	// Rewrite: default files and tokenization
	Rewrite RewriteConfig `yaml:"rewrite"`

	// Suggest: how unknown words get a suggested canonical word
	Suggest SuggestConfig `yaml:"suggest"`

	// LLM: endpoint for the llm suggest backend
	LLM LLMConfig `yaml:"llm"`

	Logging LoggingConfig `yaml:"logging"`
	UX      UXConfig      `yaml:"ux"`
}

type ConfigMeta struct {
	Version   string    `yaml:"version"`
	CreatedAt time.Time `yaml:"created_at"`
}

type DictionaryConfig struct {
	Path     string `yaml:"path" validate:"required"` // e.g. synonyms.txt
	Autosave bool   `yaml:"autosave"`                 // save after every edit
}

type UndoConfig struct {
	MaxDepth   int    `yaml:"max_depth" validate:"gte=1,lte=1000"`
	Persist    bool   `yaml:"persist"`
	JournalDir string `yaml:"journal_dir" validate:"required_if=Persist true"`
}

type RewriteConfig struct {
	Input      string `yaml:"input" validate:"required"`
	Output     string `yaml:"output" validate:"required"`
	FoldCase   bool   `yaml:"fold_case"`
	Jobs       int    `yaml:"jobs" validate:"gte=1,lte=64"`
	DebounceMS int    `yaml:"watch_debounce_ms" validate:"gte=10,lte=60000"`
}

type SuggestConfig struct {
	// Backend can be "none", "edit_distance" or "llm"
	Backend     string `yaml:"backend" validate:"oneof=none edit_distance llm"`
	MaxDistance int    `yaml:"max_distance" validate:"gte=1,lte=5"`
}

type LLMConfig struct {
	BaseURL    string `yaml:"base_url" validate:"omitempty,url"`
	Model      string `yaml:"model"`
	APIKeyEnv  string `yaml:"api_key_env"` // name of the env var holding the key
	SampleSize int    `yaml:"sample_size" validate:"gte=1,lte=500"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Dir   string `yaml:"dir"` // empty disables file logging
	JSON  bool   `yaml:"json"`
}

type UXConfig struct {
	// Personality can be "full", "standard", "minimal" or "machine".
	// Empty picks one from the terminal.
	Personality string `yaml:"personality" validate:"omitempty,oneof=full standard minimal machine"`
}

// DefaultConfig returns the configuration written on first run.
//
// The dictionary and text files default to the working directory, like
// the classic synonyms.txt / input.txt / output.txt layout.
func DefaultConfig() SynrewriteConfig {
	return SynrewriteConfig{
		Meta: ConfigMeta{
			Version:   CurrentConfigVersion,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		},
		Dictionary: DictionaryConfig{
			Path:     "synonyms.txt",
			Autosave: true,
		},
		Undo: UndoConfig{
			MaxDepth:   10,
			Persist:    true,
			JournalDir: "~/.synrewrite/undo",
		},
		Rewrite: RewriteConfig{
			Input:      "input.txt",
			Output:     "output.txt",
			FoldCase:   false,
			Jobs:       4,
			DebounceMS: 200,
		},
		Suggest: SuggestConfig{
			Backend:     "edit_distance",
			MaxDistance: 2,
		},
		LLM: LLMConfig{
			BaseURL:    "http://localhost:11434/v1",
			Model:      "llama3.2",
			APIKeyEnv:  "SYNREWRITE_LLM_API_KEY",
			SampleSize: 50,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "~/.synrewrite/logs",
			JSON:  false,
		},
		UX: UXConfig{},
	}
}

// =============================================================================
// Validation
// =============================================================================

var configValidate = validator.New()

// Validate checks field constraints.
//
// # Outputs
//
//   - error: nil, or one message per failed field joined with "; ".
func (c *SynrewriteConfig) Validate() error {
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "SynrewriteConfig.")
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// ExpandPaths replaces a leading ~ in every path setting.
func (c *SynrewriteConfig) ExpandPaths() {
	c.Dictionary.Path = logging.ExpandPath(c.Dictionary.Path)
	c.Undo.JournalDir = logging.ExpandPath(c.Undo.JournalDir)
	c.Rewrite.Input = logging.ExpandPath(c.Rewrite.Input)
	c.Rewrite.Output = logging.ExpandPath(c.Rewrite.Output)
	c.Logging.Dir = logging.ExpandPath(c.Logging.Dir)
}

// WatchDebounce returns the watch debounce window.
func (c *SynrewriteConfig) WatchDebounce() time.Duration {
	return time.Duration(c.Rewrite.DebounceMS) * time.Millisecond
}
