// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/config"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/dictionary"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/prompt"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/rewrite"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/session"
	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/suggest"
	"github.com/AleutianAI/synrewrite/pkg/logging"
	"github.com/AleutianAI/synrewrite/pkg/ux"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath  string
	dictPath    string
	personality string
	metricsFile string
	verbose     bool
}

// app carries everything a command needs once the root command has
// loaded the configuration.
//
// # Description
//
// Commands never touch os.Stdin/os.Stdout directly; they use in, out and
// errOut so tests can drive the whole CLI with buffers.
type app struct {
	flags globalFlags

	cfg      *config.SynrewriteConfig
	log      *logging.Logger
	registry *prometheus.Registry
	metrics  *rewrite.Metrics

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// prompter replaces terminal detection for learning passes.
	prompter prompt.Prompter

	// model replaces the configured OpenAI-compatible endpoint.
	model llms.Model
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	reg := prometheus.NewRegistry()
	return &app{
		in:       in,
		out:      out,
		errOut:   errOut,
		registry: reg,
		metrics:  rewrite.NewMetrics(reg),
	}
}

// setup loads configuration, applies flag overrides and starts logging.
// It runs before every command.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, created, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	if a.flags.dictPath != "" {
		cfg.Dictionary.Path = logging.ExpandPath(a.flags.dictPath)
	}

	personality := a.flags.personality
	if personality == "" {
		personality = cfg.UX.Personality
	}
	ux.InitPersonality(personality)

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if a.flags.verbose {
		level = logging.LevelDebug
	}
	a.log = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "synrewrite",
		JSON:    cfg.Logging.JSON,
		Writer:  a.errOut,
	})
	a.cfg = cfg

	if created {
		a.log.Info("wrote default configuration", "command", cmd.Name())
	}
	a.log.Debug("configuration loaded",
		"dictionary", cfg.Dictionary.Path,
		"undo_depth", cfg.Undo.MaxDepth,
		"suggest", cfg.Suggest.Backend,
	)
	return nil
}

// close writes the metrics file if requested and releases the logger.
// Safe to call when setup never ran.
func (a *app) close() {
	if a.flags.metricsFile != "" && a.cfg != nil {
		if err := rewrite.WriteMetricsFile(a.flags.metricsFile, a.registry); err != nil {
			a.log.Warn("could not write metrics file", "path", a.flags.metricsFile, "error", err.Error())
		}
	}
	if a.log != nil {
		_ = a.log.Close()
	}
}

// openSession opens the dictionary with undo history per the config.
func (a *app) openSession(ctx context.Context) (*session.Session, error) {
	sess, result, err := session.Open(ctx, session.OpenOptions{
		DictPath:   a.cfg.Dictionary.Path,
		Autosave:   a.cfg.Dictionary.Autosave,
		MaxDepth:   a.cfg.Undo.MaxDepth,
		Persist:    a.cfg.Undo.Persist,
		JournalDir: a.cfg.Undo.JournalDir,
		Logger:     a.log.Slog(),
	})
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	a.warnSkipped(result)
	return sess, nil
}

// loadDictionary reads the dictionary without undo history, for commands
// that never edit it. A missing file is an empty dictionary.
func (a *app) loadDictionary() (*dictionary.Dictionary, error) {
	dict := dictionary.New()
	result, err := dict.LoadFile(a.cfg.Dictionary.Path, a.log.Slog())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		a.log.Warn("dictionary file not found, starting empty", "path", a.cfg.Dictionary.Path)
	}
	a.warnSkipped(result)
	return dict, nil
}

func (a *app) warnSkipped(result *dictionary.LoadResult) {
	if result == nil || len(result.Skipped) == 0 {
		return
	}
	ux.Warning(a.errOut, fmt.Sprintf("skipped %d malformed dictionary line(s)", len(result.Skipped)))
}

// newSuggester builds the configured suggestion backend over vocab.
//
// # Description
//
// An unreachable or misconfigured LLM endpoint is not fatal: the
// suggester falls back to edit distance with a warning.
func (a *app) newSuggester(vocab suggest.Vocabulary) suggest.Suggester {
	backend, err := suggest.ParseBackend(a.cfg.Suggest.Backend)
	if err != nil {
		a.log.Warn("unknown suggest backend, using edit distance", "backend", a.cfg.Suggest.Backend)
		backend = suggest.BackendEditDistance
	}

	switch backend {
	case suggest.BackendNone:
		return suggest.None{}
	case suggest.BackendLLM:
		model := a.model
		if model == nil {
			model, err = suggest.NewOpenAIModel(suggest.OpenAIConfig{
				BaseURL: a.cfg.LLM.BaseURL,
				Model:   a.cfg.LLM.Model,
				Token:   os.Getenv(a.cfg.LLM.APIKeyEnv),
			})
			if err != nil {
				a.log.Warn("llm suggestions unavailable, using edit distance", "error", err.Error())
				return suggest.NewEditDistance(vocab, a.cfg.Suggest.MaxDistance)
			}
		}
		return suggest.NewLLM(model, vocab,
			suggest.WithSampleSize(a.cfg.LLM.SampleSize),
			suggest.WithLogger(a.log.Slog()),
		)
	default:
		return suggest.NewEditDistance(vocab, a.cfg.Suggest.MaxDistance)
	}
}

// newPrompter returns the prompter for learning passes. A real terminal
// gets the form; anything else gets line prompts on the app's streams.
func (a *app) newPrompter() prompt.Prompter {
	if a.prompter != nil {
		return a.prompter
	}
	if f, ok := a.in.(*os.File); ok && f == os.Stdin {
		return prompt.ForTerminal()
	}
	return prompt.NewLine(a.in, a.out)
}
