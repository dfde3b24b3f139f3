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
	"context"
	"sync"
	"time"

	"github.com/pingcap/tidb-index-planner/distsql"
	"github.com/pingcap/tidb-index-planner/errctx"
	"github.com/pingcap/tidb-index-planner/kv"
	"github.com/pingcap/tidb-index-planner/logutil"
	"github.com/pingcap/tidb-index-planner/model"
	"github.com/pingcap/tidb-index-planner/statistics"
	"go.uber.org/zap"
)

// IndexPlanner orchestrates ShardedIndexStorage's siblings to decide
// whether a query should scan a secondary index instead of the base
// table, and if so, what tablet splits to hand the query engine.
//
// Scanner resources (the IndexScanner's per-task scanners) are scoped
// to one Apply call; the CardinalityCache is long-lived and shared
// across concurrent Apply calls.
type IndexPlanner struct {
	cfg        Config
	serializer model.RowSerializer
	metrics    statistics.MetricsReader
	cache      *statistics.CardinalityCache
	scanner    *distsql.IndexScanner

	rootCtx      context.Context
	rootCancel   context.CancelFunc
	shutdownOnce sync.Once
}

// NewIndexPlanner builds a planner. The cache is typically shared
// across many IndexPlanner instances (or held by the caller and reused
// across queries); scanner and metrics are the KV-store and
// metrics-store collaborators the planner reads through to. Construction
// starts the planner's root context, cancelled by Shutdown.
func NewIndexPlanner(
	cfg Config,
	serializer model.RowSerializer,
	metricsReader statistics.MetricsReader,
	cache *statistics.CardinalityCache,
	scanner *distsql.IndexScanner,
) (*IndexPlanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rootCtx, rootCancel := context.WithCancel(context.Background())
	return &IndexPlanner{
		cfg:        cfg,
		serializer: serializer,
		metrics:    metricsReader,
		cache:      cache,
		scanner:    scanner,
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
	}, nil
}

// Shutdown performs immediate, best-effort interruption of outstanding
// and future work on this planner by cancelling its root context, which
// every Apply call's working context is derived from. It is idempotent.
func (p *IndexPlanner) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.rootCancel()
	})
}

// mergeCancel returns a context cancelled when either parent or root is
// done, so Apply calls honor both the caller's own cancellation and a
// planner-wide Shutdown.
func mergeCancel(parent, root context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(parent)
	stop := make(chan struct{})
	go func() {
		select {
		case <-root.Done():
			cancel()
		case <-merged.Done():
		case <-stop:
		}
	}()
	return merged, func() {
		close(stop)
		cancel()
	}
}

// Apply decides whether to use the index for the given constraints and,
// if so, produces tablet splits. It weighs cardinality estimates against
// the configured thresholds before paying for an index scan, falling
// back to a table scan whenever the index is unlikely to narrow the
// row set enough to be worth it.
func (p *IndexPlanner) Apply(
	ctx context.Context,
	schema, table string,
	constraints []model.ColumnConstraint,
	rowIDRanges []kv.ByteRange,
	auths model.Authorizations,
) (result PlanResult, err error) {
	ctx, cancel := mergeCancel(ctx, p.rootCtx)
	defer cancel()

	start := timeNow()
	defer func() {
		decision := decisionDoNotUseIndex
		if result.UseIndex {
			decision = decisionUseIndex
		}
		decisionCounter.WithLabelValues(decision).Inc()
		applyDuration.WithLabelValues(decision).Observe(timeNow().Sub(start).Seconds())
	}()

	if !p.cfg.OptimizeIndexEnabled {
		return doNotUseIndex(), nil
	}

	indexed := make([]model.ColumnConstraint, 0, len(constraints))
	for _, c := range constraints {
		if c.Indexed {
			indexed = append(indexed, c)
			continue
		}
		logutil.Logger(ctx).Warn("column constraint is not indexed, cannot use secondary index for it",
			zap.String("column", c.Name))
	}
	if len(indexed) == 0 {
		return doNotUseIndex(), nil
	}

	indexTable := distsql.IndexTableName(schema, table)

	constraintRanges := make([]model.ConstraintRanges, 0, len(indexed))
	for _, c := range indexed {
		ranges, serr := p.serializer.DomainToByteRanges(c.Domain)
		if serr != nil {
			return PlanResult{}, errctx.New(errctx.MetricsUnavailable, serr)
		}
		if len(ranges) == 0 {
			// A constraint whose domain serializes to no byte ranges can
			// match no rows, so the whole conjunction provably matches
			// nothing: no scan, an index plan with an empty split set.
			return useIndex(nil), nil
		}
		constraintRanges = append(constraintRanges, model.ConstraintRanges{Constraint: c, Ranges: ranges})
	}

	if !p.cfg.IndexMetricsEnabled {
		scanResults, serr := p.scanner.Scan(ctx, indexTable, constraintRanges, rowIDRanges, auths)
		if serr != nil {
			return PlanResult{}, serr
		}
		merged := intersectAll(scanResults)
		splits, berr := BinRanges(int(p.cfg.NumIndexRowsPerSplit), rowIDsToRanges(merged))
		if berr != nil {
			return PlanResult{}, berr
		}
		return useIndex(splits), nil
	}

	numRows, merr := p.metrics.NumRowsInTable(ctx, schema, table)
	if merr != nil {
		return PlanResult{}, errctx.New(errctx.MetricsUnavailable, merr)
	}

	smallT := p.cfg.smallCardThreshold(numRows)
	pollDur := p.cfg.IndexCardinalityCachePollingDuration
	shortCircuitThreshold := uint64(0)
	if p.cfg.IndexShortCircuitEnabled {
		shortCircuitThreshold = smallT
	}

	estimates, cerr := p.cache.GetCardinalities(ctx, schema, table, auths, constraintRanges, shortCircuitThreshold, pollDur)
	if cerr != nil {
		return PlanResult{}, cerr
	}
	if len(estimates) == 0 {
		return doNotUseIndex(), nil
	}
	lowest := estimates[0]

	var merged map[string]kv.RowId
	if lowest.Count > smallT {
		if len(indexed) == 1 && numRows > 0 {
			ratio := float64(lowest.Count) / float64(numRows)
			if ratio >= p.cfg.IndexThreshold {
				return doNotUseIndex(), nil
			}
		}
		scanResults, serr := p.scanner.Scan(ctx, indexTable, constraintRanges, rowIDRanges, auths)
		if serr != nil {
			return PlanResult{}, serr
		}
		merged = intersectAll(scanResults)
	} else {
		onlyLow := []model.ConstraintRanges{findConstraintRanges(constraintRanges, lowest.Constraint)}
		scanResults, serr := p.scanner.Scan(ctx, indexTable, onlyLow, rowIDRanges, auths)
		if serr != nil {
			return PlanResult{}, serr
		}
		merged = scanResults[0].RowIDs
	}

	if len(merged) == 0 {
		return useIndex(nil), nil
	}

	if numRows > 0 {
		ratio := float64(len(merged)) / float64(numRows)
		if ratio >= p.cfg.IndexThreshold {
			return doNotUseIndex(), nil
		}
	}

	splits, berr := BinRanges(int(p.cfg.NumIndexRowsPerSplit), rowIDsToRanges(merged))
	if berr != nil {
		return PlanResult{}, berr
	}
	return useIndex(splits), nil
}

func findConstraintRanges(crs []model.ConstraintRanges, target model.ColumnConstraint) model.ConstraintRanges {
	for _, cr := range crs {
		if cr.Constraint.Key() == target.Key() {
			return cr
		}
	}
	return model.ConstraintRanges{Constraint: target}
}

// intersectAll folds set-intersection over scan results in submission
// order, seeded from the first entry, so the result is independent of
// which scan goroutine happens to finish first.
func intersectAll(results []distsql.ConstraintRowIDs) map[string]kv.RowId {
	if len(results) == 0 {
		return map[string]kv.RowId{}
	}
	out := make(map[string]kv.RowId, len(results[0].RowIDs))
	for k, v := range results[0].RowIDs {
		out[k] = v
	}
	for _, r := range results[1:] {
		for k := range out {
			if _, ok := r.RowIDs[k]; !ok {
				delete(out, k)
			}
		}
	}
	return out
}

// timeNow is a seam so tests can avoid depending on wall-clock timing
// of the metrics observation; production code just wants time.Now.
var timeNow = time.Now
