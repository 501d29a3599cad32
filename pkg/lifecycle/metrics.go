/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the shim's prometheus collectors.
type Metrics struct {
	Transitions  *prometheus.CounterVec
	HookFailures *prometheus.CounterVec
	Callbacks    *prometheus.CounterVec
	Violations   prometheus.Counter
	Panics       prometheus.Counter
	State        prometheus.Gauge
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xplm",
			Name:      "lifecycle_transitions_total",
			Help:      "Plugin state transitions.",
		}, []string{"from", "to"}),
		HookFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xplm",
			Name:      "lifecycle_hook_failures_total",
			Help:      "Plugin hooks that returned an error or panicked.",
		}, []string{"hook"}),
		Callbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xplm",
			Name:      "callbacks_total",
			Help:      "Callback windows opened, by kind.",
		}, []string{"kind"}),
		Violations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "xplm",
			Name:      "contract_violations_total",
			Help:      "SDK uses outside a callback window or through a dead handle.",
		}),
		Panics: f.NewCounter(prometheus.CounterOpts{
			Namespace: "xplm",
			Name:      "panics_total",
			Help:      "Panics recovered at the host boundary.",
		}),
		State: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "xplm",
			Name:      "lifecycle_state",
			Help:      "Current plugin state (0 uninitialized, 1 started, 2 enabled, 3 disabled, 4 stopped).",
		}),
	}
}
