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
	"time"

	"github.com/pingcap/tidb-index-planner/errctx"
)

// Config is read once per query, the way the teacher's session
// variables (sessionctx/variable) are read by RequestBuilder.
// SetFromSessionVars: a plain struct populated by the surrounding
// engine's session-property plumbing, not a process-global.
type Config struct {
	// OptimizeIndexEnabled is the master switch.
	OptimizeIndexEnabled bool
	// IndexMetricsEnabled gates whether the cardinality cache is
	// consulted at all.
	IndexMetricsEnabled bool
	// IndexShortCircuitEnabled allows CardinalityCache to short-circuit.
	IndexShortCircuitEnabled bool
	// IndexThreshold is the maximum index-scan ratio vs. table row
	// count before falling back to a table scan, in [0,1].
	IndexThreshold float64
	// IndexSmallCardThreshold is the "small enough" fraction of the
	// table, in [0,1].
	IndexSmallCardThreshold float64
	// IndexSmallCardRowThreshold is the "small enough" absolute row
	// count ceiling.
	IndexSmallCardRowThreshold uint64
	// NumIndexRowsPerSplit is the target bin size (rangesPerBin).
	NumIndexRowsPerSplit uint32
	// IndexCardinalityCachePollingDuration bounds the short-circuit
	// poll's wake-up latency.
	IndexCardinalityCachePollingDuration time.Duration
}

// Validate checks the threshold and bin-size invariants; violations
// are programmer errors (InvalidConfig), not planning outcomes.
func (c Config) Validate() error {
	if c.IndexThreshold < 0 || c.IndexThreshold > 1 {
		return errctx.Newf(errctx.InvalidConfig, "indexThreshold must be in [0,1], got %f", c.IndexThreshold)
	}
	if c.IndexSmallCardThreshold < 0 || c.IndexSmallCardThreshold > 1 {
		return errctx.Newf(errctx.InvalidConfig, "indexSmallCardThreshold must be in [0,1], got %f", c.IndexSmallCardThreshold)
	}
	if c.NumIndexRowsPerSplit == 0 {
		return errctx.Newf(errctx.InvalidConfig, "numIndexRowsPerSplit must be > 0")
	}
	return nil
}

// smallCardThreshold computes min(numRows * pct, rowThreshold).
func (c Config) smallCardThreshold(numRows uint64) uint64 {
	byPct := uint64(float64(numRows) * c.IndexSmallCardThreshold)
	if byPct < c.IndexSmallCardRowThreshold {
		return byPct
	}
	return c.IndexSmallCardRowThreshold
}
