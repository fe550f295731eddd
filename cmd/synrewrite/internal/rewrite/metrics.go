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
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Rewriting
// =============================================================================

// Metrics holds the rewrite counters.
//
// # Description
//
// Metrics are registered on a caller-supplied registry rather than the
// global one, so each CLI run (and each test) starts from zero. The CLI
// dumps the registry with WriteMetricsFile for node_exporter's textfile
// collector.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	lines     prometheus.Counter
	tokens    prometheus.Counter
	replaced  prometheus.Counter
	unknown   prometheus.Counter
	learned   prometheus.Counter
	decisions *prometheus.CounterVec
	passes    *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics registers the rewrite metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		lines: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "synrewrite",
			Subsystem: "rewrite",
			Name:      "lines_total",
			Help:      "Input lines rewritten",
		}),
		tokens: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "synrewrite",
			Subsystem: "rewrite",
			Name:      "tokens_total",
			Help:      "Whitespace-separated tokens seen",
		}),
		replaced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "synrewrite",
			Subsystem: "rewrite",
			Name:      "replaced_total",
			Help:      "Tokens replaced by their canonical form",
		}),
		unknown: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "synrewrite",
			Subsystem: "rewrite",
			Name:      "unknown_total",
			Help:      "Token occurrences not found in the dictionary",
		}),
		learned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "synrewrite",
			Subsystem: "rewrite",
			Name:      "learned_total",
			Help:      "Words added to the dictionary while rewriting",
		}),
		// Labels: outcome (accepted, declined)
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synrewrite",
			Subsystem: "rewrite",
			Name:      "decisions_total",
			Help:      "Prompt answers for unknown words by outcome",
		}, []string{"outcome"}),
		// Labels: status (ok, error, stopped)
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synrewrite",
			Subsystem: "rewrite",
			Name:      "passes_total",
			Help:      "Rewrite passes by final status",
		}, []string{"status"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "synrewrite",
			Subsystem: "rewrite",
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a rewrite pass, including prompts",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}),
	}
}

func (m *Metrics) token(replaced, unknown bool) {
	if m == nil {
		return
	}
	m.tokens.Inc()
	if replaced {
		m.replaced.Inc()
	}
	if unknown {
		m.unknown.Inc()
	}
}

func (m *Metrics) line() {
	if m != nil {
		m.lines.Inc()
	}
}

func (m *Metrics) decision(accepted bool) {
	if m == nil {
		return
	}
	if accepted {
		m.decisions.WithLabelValues("accepted").Inc()
		m.learned.Inc()
		return
	}
	m.decisions.WithLabelValues("declined").Inc()
}

func (m *Metrics) pass(status string, seconds float64) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(status).Inc()
	m.duration.Observe(seconds)
}

// WriteMetricsFile writes every metric in g to path in the Prometheus text
// format. The file is replaced atomically.
func WriteMetricsFile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}
