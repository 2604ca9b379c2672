// Copyright 2026 Rostra Robotics GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes prometheus instrumentation for the action engine.
// All vectors are labeled (component, instance) where instance is the action
// name of the server or client that reports.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Component labels.
	ComponentActionServer = "action_server"
	ComponentActionClient = "action_client"
	ComponentLifecycle    = "lifecycle"
)

var (
	// Namespace and subsystem for all metrics.
	namespace = "rostra"
	subsystem = "action"

	goalsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "goals_accepted_total",
			Help:      "Total number of goals accepted by the server",
		},
		[]string{"component", "instance"},
	)

	goalsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "goals_rejected_total",
			Help:      "Total number of goal requests rejected without a handle",
		},
		[]string{"component", "instance"},
	)

	goalsExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "goals_expired_total",
			Help:      "Total number of terminal goals reclaimed by expiry sweeps",
		},
		[]string{"component", "instance"},
	)

	cancelRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cancel_requests_total",
			Help:      "Total number of cancel requests by resolution code",
		},
		[]string{"component", "instance", "code"},
	)

	transitionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "goal_transition_errors_total",
			Help:      "Total number of rejected goal state transitions",
		},
		[]string{"component", "instance"},
	)

	activeGoals = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tracked_goals",
			Help:      "Number of goal handles currently tracked by the server registry",
		},
		[]string{"component", "instance"},
	)

	sweepDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "expiry_sweep_duration_milliseconds",
			Help:      "Time taken by expiry sweeps (in milliseconds)",
			Objectives: map[float64]float64{
				0.5:  0.01,
				0.9:  0.01,
				0.99: 0.01,
			},
		},
		[]string{"component", "instance"},
	)
)

// IncGoalsAccepted counts one accepted goal.
func IncGoalsAccepted(component, instance string) {
	goalsAccepted.WithLabelValues(component, instance).Inc()
}

// IncGoalsRejected counts one rejected goal request.
func IncGoalsRejected(component, instance string) {
	goalsRejected.WithLabelValues(component, instance).Inc()
}

// AddGoalsExpired counts goals reclaimed by one sweep.
func AddGoalsExpired(component, instance string, n int) {
	goalsExpired.WithLabelValues(component, instance).Add(float64(n))
}

// IncCancelRequests counts one cancel request with its resolution code.
func IncCancelRequests(component, instance, code string) {
	cancelRequests.WithLabelValues(component, instance, code).Inc()
}

// IncTransitionErrors counts one rejected state transition.
func IncTransitionErrors(component, instance string) {
	transitionErrors.WithLabelValues(component, instance).Inc()
}

// SetTrackedGoals records the current registry size.
func SetTrackedGoals(component, instance string, n int) {
	activeGoals.WithLabelValues(component, instance).Set(float64(n))
}

// ObserveSweepTime records the duration of one expiry sweep.
func ObserveSweepTime(component, instance string, d time.Duration) {
	sweepDuration.WithLabelValues(component, instance).Observe(float64(d.Milliseconds()))
}

// Handler returns the HTTP handler serving the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
