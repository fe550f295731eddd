// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package suggest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultSampleSize is how many canonical words are shown to the model.
const DefaultSampleSize = 50

// LLM asks a language model for the canonical form of an unknown word.
//
// # Description
//
// The prompt contains the unknown word and a sample of the dictionary's
// canonical words, and asks for a single word back. The first word of the
// completion is the suggestion. Answers that echo the unknown word are
// discarded.
//
// # Thread Safety
//
// Safe for concurrent use if the underlying model is.
type LLM struct {
	model      llms.Model
	vocab      Vocabulary
	sampleSize int
	logger     *slog.Logger
}

// LLMOption configures an LLM suggester.
type LLMOption func(*LLM)

// WithSampleSize sets how many canonical words go into the prompt.
func WithSampleSize(n int) LLMOption {
	return func(l *LLM) {
		if n > 0 {
			l.sampleSize = n
		}
	}
}

// WithLogger sets the logger used for backend failures.
func WithLogger(logger *slog.Logger) LLMOption {
	return func(l *LLM) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLLM creates a suggester backed by model.
func NewLLM(model llms.Model, vocab Vocabulary, opts ...LLMOption) *LLM {
	l := &LLM{
		model:      model,
		vocab:      vocab,
		sampleSize: DefaultSampleSize,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OpenAIConfig describes an OpenAI-compatible completion endpoint.
type OpenAIConfig struct {
	BaseURL string
	Model   string
	Token   string
}

// NewOpenAIModel connects to an OpenAI-compatible endpoint.
//
// # Description
//
// Any server that speaks the OpenAI chat API works, including local
// Ollama and vLLM deployments. Empty BaseURL and Model fall back to the
// client's own defaults. An empty Token is replaced by a placeholder
// because the client refuses to start without one and local servers
// ignore it.
func NewOpenAIModel(cfg OpenAIConfig) (llms.Model, error) {
	if cfg.Token == "" {
		cfg.Token = "synrewrite-local"
	}
	var opts []openai.Option
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	opts = append(opts, openai.WithToken(cfg.Token))

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return llm, nil
}

// Suggest asks the model for a canonical word.
//
// # Outputs
//
//   - string: First word of the completion, or "" when the model echoed
//     the input or returned nothing usable.
//   - error: Model failures, wrapped.
func (l *LLM) Suggest(ctx context.Context, word string) (string, error) {
	if strings.TrimSpace(word) == "" {
		return "", nil
	}

	completion, err := llms.GenerateFromSinglePrompt(ctx, l.model, l.buildPrompt(word),
		llms.WithTemperature(0),
		llms.WithMaxTokens(16),
	)
	if err != nil {
		l.logger.Warn("llm suggestion failed", "word", word, "error", err.Error())
		return "", fmt.Errorf("llm suggest %q: %w", word, err)
	}

	answer := firstWord(completion)
	if answer == "" || strings.EqualFold(answer, word) {
		return "", nil
	}
	return answer, nil
}

func (l *LLM) buildPrompt(word string) string {
	var sb strings.Builder
	sb.WriteString("You maintain a synonym dictionary. Each canonical word stands for a group of synonyms.\n")

	sample := l.canonicalSample()
	if len(sample) > 0 {
		sb.WriteString("Existing canonical words: ")
		sb.WriteString(strings.Join(sample, ", "))
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Which canonical word should %q be filed under? ", word)
	sb.WriteString("Prefer an existing canonical word when one fits. ")
	sb.WriteString("Answer with exactly one word and nothing else.")
	return sb.String()
}

// canonicalSample returns up to sampleSize distinct canonical words in
// dictionary order.
func (l *LLM) canonicalSample() []string {
	seen := make(map[string]struct{})
	var sample []string
	for _, term := range l.vocab.Vocabulary() {
		c := l.vocab.Resolve(term)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		sample = append(sample, c)
		if len(sample) >= l.sampleSize {
			break
		}
	}
	return sample
}

// firstWord extracts the first word of a completion, stripping quotes and
// punctuation the model may wrap around it.
func firstWord(completion string) string {
	fields := strings.Fields(completion)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimFunc(fields[0], func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
