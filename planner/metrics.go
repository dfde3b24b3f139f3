// Copyright 2025 Ekjot Singh
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package planner

import (
	"github.com/prometheus/client_golang/prometheus"
)

// decisionCounter and applyDuration mirror the teacher's habit of
// exposing a Prometheus CounterVec/HistogramVec for planner decisions
// (see ddl's use of github.com/pingcap/tidb/metrics, itself backed by
// client_golang), scoped here to this package instead of a shared
// metrics package since that sits outside this module's boundary.
var (
	decisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tidb_index_planner",
			Name:      "plan_decisions_total",
			Help:      "Count of IndexPlanner.Apply outcomes by decision.",
		},
		[]string{"decision"},
	)
	applyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tidb_index_planner",
			Name:      "apply_duration_seconds",
			Help:      "Latency of IndexPlanner.Apply calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"decision"},
	)
)

func init() {
	prometheus.MustRegister(decisionCounter, applyDuration)
}

const (
	decisionUseIndex      = "use_index"
	decisionDoNotUseIndex = "do_not_use_index"
)
