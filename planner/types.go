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

// Package planner is the top-level policy: it filters a query's
// constraints for indexed columns, optionally consults the cardinality
// cache, chooses between a single-column lookup and a multi-column
// intersection, applies the selectivity threshold, and emits tablet
// splits. It plays the role the teacher's planner/core and distsql
// layers jointly play, narrowed to the index-vs-table-scan decision.
package planner

import "github.com/pingcap/tidb-index-planner/kv"

// TabletSplit is one unit of parallel work: an ordered bag of row-id
// ranges over the base table, bounded in size by NumIndexRowsPerSplit.
type TabletSplit struct {
	Ranges []kv.ByteRange
}

// PlanResult is IndexPlanner.Apply's outcome. UseIndex reports whether
// the index should be used; Splits is only meaningful when UseIndex is
// true, and may legitimately be an empty, non-nil slice, meaning the
// indexed predicates provably match no rows.
type PlanResult struct {
	UseIndex bool
	Splits   []TabletSplit
}

// doNotUseIndex is the result returned whenever the index should not be
// used: indexing is disabled, no indexed constraint exists, or the cost
// model predicts the scan would be too expensive.
func doNotUseIndex() PlanResult {
	return PlanResult{UseIndex: false}
}

func useIndex(splits []TabletSplit) PlanResult {
	if splits == nil {
		splits = []TabletSplit{}
	}
	return PlanResult{UseIndex: true, Splits: splits}
}
