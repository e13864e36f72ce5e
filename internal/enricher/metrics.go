/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package enricher

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects counters for a single dictionary run. Each run owns its
// registry so repeated runs in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	tablesTotal          *prometheus.CounterVec
	recordsTotal         prometheus.Counter
	degradedTotal        *prometheus.CounterVec
	generateDuration     prometheus.Histogram
	generateAttemptTotal prometheus.Counter
}

// NewMetrics creates and registers the run metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tablesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datadict_tables_total",
				Help: "Tables seen by the dictionary run, by outcome.",
			},
			[]string{"outcome"},
		),
		recordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "datadict_records_total",
			Help: "Dictionary records emitted.",
		}),
		degradedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datadict_descriptions_degraded_total",
				Help: "Column descriptions replaced by an error marker, by reason.",
			},
			[]string{"reason"},
		),
		generateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "datadict_generate_duration_seconds",
			Help:    "Latency of column description calls, including retries.",
			Buckets: prometheus.DefBuckets,
		}),
		generateAttemptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "datadict_generate_attempts_total",
			Help: "Calls made to the summarization service.",
		}),
	}
	m.registry.MustRegister(m.tablesTotal, m.recordsTotal, m.degradedTotal, m.generateDuration, m.generateAttemptTotal)
	return m
}

// Registry exposes the run's registry, e.g. for tests or a push gateway.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

// The recorders below accept a nil receiver so callers can run without metrics.

func (m *Metrics) tableProcessed() {
	if m != nil {
		m.tablesTotal.WithLabelValues("processed").Inc()
	}
}

func (m *Metrics) tableSkipped(stage string) {
	if m != nil {
		m.tablesTotal.WithLabelValues("skipped_" + stage).Inc()
	}
}

func (m *Metrics) recordEmitted() {
	if m != nil {
		m.recordsTotal.Inc()
	}
}

func (m *Metrics) descriptionDegraded(reason string) {
	if m != nil {
		m.degradedTotal.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) observeGenerate(seconds float64, attempts int) {
	if m != nil {
		m.generateDuration.Observe(seconds)
		m.generateAttemptTotal.Add(float64(attempts))
	}
}
