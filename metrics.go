/*
 * SPDX-FileCopyrightText: Copyright (c) 2003 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package recipe

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds construction metrics fed by an events broker.
type Metrics struct {
	PassesTotal        *prometheus.CounterVec
	PassDuration       prometheus.Histogram
	ObjectsCreated     prometheus.Counter
	ReferencesResolved prometheus.Counter
	CircularFailures   prometheus.Counter
	PassesActive       prometheus.Gauge

	mutex   sync.Mutex
	started map[string]time.Time
}

// NewMetrics creates the collectors and registers them with the registerer.
// A nil registerer leaves the collectors unregistered.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PassesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_passes_total",
				Help: "Total number of construction passes by result",
			},
			[]string{"result"},
		),
		PassDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recipe_pass_duration_seconds",
				Help:    "Duration of construction passes in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		ObjectsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recipe_objects_created_total",
				Help: "Total number of objects published under a name",
			},
		),
		ReferencesResolved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recipe_references_resolved_total",
				Help: "Total number of resolved forward references",
			},
		),
		CircularFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recipe_circular_dependencies_total",
				Help: "Total number of detected circular dependencies",
			},
		),
		PassesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "recipe_passes_active",
				Help: "Number of construction passes in progress",
			},
		),
		started: make(map[string]time.Time),
	}
}

// Subscribe feeds the metrics from the construction events.
func (m *Metrics) Subscribe(events Events) {
	events.Subscribe(PassStarted, func(id string) {
		m.mutex.Lock()
		m.started[id] = time.Now()
		m.mutex.Unlock()
		m.PassesActive.Inc()
	})
	events.Subscribe(PassFinished, func(id string, err error) {
		m.mutex.Lock()
		started, ok := m.started[id]
		delete(m.started, id)
		m.mutex.Unlock()

		if ok {
			m.PassesActive.Dec()
			m.PassDuration.Observe(time.Since(started).Seconds())
		}
		result := "success"
		if err != nil {
			result = "failure"
		}
		m.PassesTotal.WithLabelValues(result).Inc()
	})
	events.Subscribe(ObjectCreated, func() {
		m.ObjectsCreated.Inc()
	})
	events.Subscribe(ReferenceResolved, func() {
		m.ReferencesResolved.Inc()
	})
	events.Subscribe(CircularDependency, func() {
		m.CircularFailures.Inc()
	})
}
