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

package statistics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pingcap/tidb-index-planner/errctx"
	"github.com/pingcap/tidb-index-planner/kv"
	"github.com/pingcap/tidb-index-planner/logutil"
	"github.com/pingcap/tidb-index-planner/model"
	"go.uber.org/zap"
)

// Estimate is one constraint's cardinality estimate, valid only within
// the planning call that produced it.
type Estimate struct {
	Constraint model.ColumnConstraint
	Count      uint64
}

// CardinalityCache memoizes per-(column,range) cardinality estimates
// computed from a MetricsReader. One cache is long-lived and shared
// across concurrent IndexPlanner.Apply calls; it is safe for
// concurrent readers and writers.
type CardinalityCache struct {
	reader MetricsReader
	memo   sync.Map // cacheKey -> uint64
}

// NewCardinalityCache builds a cache reading through to reader.
func NewCardinalityCache(reader MetricsReader) *CardinalityCache {
	return &CardinalityCache{reader: reader}
}

// Invalidate drops every memoized estimate; external callers invoke
// this when the underlying metrics store's data changes (e.g. after a
// compaction or a stats refresh), per the cache's invalidation contract.
func (c *CardinalityCache) Invalidate() {
	c.memo.Range(func(key, _ interface{}) bool {
		c.memo.Delete(key)
		return true
	})
}

type cacheKey struct {
	column string
	start  string
	end    string
	se, ee bool
}

func rangeCacheKey(column model.ColumnConstraint, r kv.ByteRange) cacheKey {
	return cacheKey{
		column: column.Key(),
		start:  string(r.Start),
		end:    string(r.End),
		se:     r.StartExclusive,
		ee:     r.EndExclusive,
	}
}

// sumCardinality sums the per-range cardinality of one constraint,
// consulting (and populating) the memo cache per range.
func (c *CardinalityCache) sumCardinality(ctx context.Context, cr model.ConstraintRanges) (uint64, error) {
	var total uint64
	for _, r := range cr.Ranges {
		key := rangeCacheKey(cr.Constraint, r)
		if cached, ok := c.memo.Load(key); ok {
			total += cached.(uint64)
			continue
		}
		count, err := c.reader.Cardinality(ctx, cr.Constraint, r)
		if err != nil {
			return 0, errctx.New(errctx.MetricsUnavailable, err)
		}
		c.memo.Store(key, count)
		total += count
	}
	return total, nil
}

// GetCardinalities computes one estimate per entry in constraintRanges
// and returns them sorted in ascending estimate order (an ordered
// multimap's iteration order, flattened to a slice: ties are broken on
// the constraint's stable column identity, Constraint.Key()).
//
// When smallCardThreshold > 0 and pollInterval > 0, estimation happens
// in parallel and the call may return as soon as some constraint's
// estimate is <= smallCardThreshold, cancelling the rest. When
// smallCardThreshold == 0, the call waits for every constraint.
func (c *CardinalityCache) GetCardinalities(
	ctx context.Context,
	schema, table string,
	auths model.Authorizations,
	constraintRanges []model.ConstraintRanges,
	smallCardThreshold uint64,
	pollInterval time.Duration,
) ([]Estimate, error) {
	if len(constraintRanges) == 0 {
		return nil, nil
	}

	shortCircuit := smallCardThreshold > 0 && pollInterval > 0
	pollID := uuid.New().String()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		idx      int
		estimate Estimate
		err      error
	}

	resultCh := make(chan result, len(constraintRanges))
	for i, cr := range constraintRanges {
		i, cr := i, cr
		go func() {
			count, err := c.sumCardinality(runCtx, cr)
			select {
			case resultCh <- result{idx: i, estimate: Estimate{Constraint: cr.Constraint, Count: count}, err: err}:
			case <-runCtx.Done():
			}
		}()
	}

	collected := make([]Estimate, 0, len(constraintRanges))
	received := 0
	var firstErr error

	drain := func() (done bool) {
		for {
			select {
			case res := <-resultCh:
				received++
				if res.err != nil {
					if firstErr == nil {
						firstErr = res.err
					}
					continue
				}
				collected = append(collected, res.estimate)
				if shortCircuit && res.estimate.Count <= smallCardThreshold {
					return true
				}
			default:
				return received >= len(constraintRanges)
			}
		}
	}

	if !shortCircuit {
		for received < len(constraintRanges) {
			select {
			case res := <-resultCh:
				received++
				if res.err != nil {
					if firstErr == nil {
						firstErr = res.err
					}
					continue
				}
				collected = append(collected, res.estimate)
			case <-ctx.Done():
				return nil, errctx.New(errctx.Interrupted, ctx.Err())
			}
		}
	} else {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
	pollLoop:
		for {
			if drain() {
				break pollLoop
			}
			if received >= len(constraintRanges) {
				break pollLoop
			}
			select {
			case <-ticker.C:
				logutil.Logger(ctx).Debug("cardinality short-circuit poll",
					zap.String("pollID", pollID),
					zap.Int("received", received),
					zap.Int("total", len(constraintRanges)))
			case <-ctx.Done():
				return nil, errctx.New(errctx.Interrupted, ctx.Err())
			}
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}

	// Sort ascending by estimate; ties break on the constraint's stable
	// (family, qualifier, name) key rather than goroutine completion
	// order, so the result is deterministic for a fixed input regardless
	// of scheduling.
	sort.Slice(collected, func(i, j int) bool {
		if collected[i].Count != collected[j].Count {
			return collected[i].Count < collected[j].Count
		}
		return collected[i].Constraint.Key() < collected[j].Constraint.Key()
	})
	return collected, nil
}
