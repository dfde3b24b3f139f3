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

package distsql

import (
	"context"
	"runtime"
	"sync"

	"github.com/pingcap/tidb-index-planner/errctx"
	"github.com/pingcap/tidb-index-planner/kv"
	"github.com/pingcap/tidb-index-planner/logutil"
	"github.com/pingcap/tidb-index-planner/model"
	"go.uber.org/zap"
)

// ConstraintRowIDs is one constraint's scan result: the deduplicated
// set of row-ids the index produced under any of that constraint's
// ranges, filtered to rowIdRanges.
type ConstraintRowIDs struct {
	Constraint model.ColumnConstraint
	RowIDs     map[string]kv.RowId
}

// IndexScanner executes range scans against an index table in
// parallel, one task per indexed constraint, intersecting each
// constraint's matches against a base-table row-id filter.
type IndexScanner struct {
	factory     BatchScannerFactory
	concurrency int
	sem         chan struct{}
}

// NewIndexScanner builds a scanner backed by factory, bounding
// concurrent scans to 4x the CPU count the way the teacher sizes its
// executor worker pools. The bounding semaphore is created once here
// and shared by every Scan call on this instance, so aggregate
// concurrent scanner usage across concurrently-running queries stays
// bounded, not just usage within a single Scan call.
func NewIndexScanner(factory BatchScannerFactory) *IndexScanner {
	concurrency := 4 * runtime.NumCPU()
	return &IndexScanner{
		factory:     factory,
		concurrency: concurrency,
		sem:         make(chan struct{}, concurrency),
	}
}

// Scan submits one task per entry of constraintRanges, in order, and
// returns their results in that same submission order. Every task's
// scanner is released before the task returns, on every exit path. Any
// task failure cancels the rest and fails the whole call; partial
// results are never returned.
func (s *IndexScanner) Scan(
	ctx context.Context,
	indexTable string,
	constraintRanges []model.ConstraintRanges,
	rowIDRanges []kv.ByteRange,
	auths model.Authorizations,
) ([]ConstraintRowIDs, error) {
	if len(constraintRanges) == 0 {
		return nil, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]ConstraintRowIDs, len(constraintRanges))
	errs := make([]error, len(constraintRanges))

	var wg sync.WaitGroup
	wg.Add(len(constraintRanges))
	for i, cr := range constraintRanges {
		i, cr := i, cr
		go func() {
			defer wg.Done()
			select {
			case s.sem <- struct{}{}:
				defer func() { <-s.sem }()
			case <-runCtx.Done():
				errs[i] = errctx.New(errctx.Interrupted, runCtx.Err())
				return
			}
			rowIDs, err := s.scanOne(runCtx, indexTable, cr, rowIDRanges, auths)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			results[i] = ConstraintRowIDs{Constraint: cr.Constraint, RowIDs: rowIDs}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// scanOne runs one constraint's multi-range scan, releasing its
// scanner on every exit path.
func (s *IndexScanner) scanOne(
	ctx context.Context,
	indexTable string,
	cr model.ConstraintRanges,
	rowIDRanges []kv.ByteRange,
	auths model.Authorizations,
) (map[string]kv.RowId, error) {
	scanner, err := s.factory.CreateBatchScanner(ctx, indexTable, auths, s.concurrency)
	if err != nil {
		return nil, errctx.New(errctx.ScanFailure, err)
	}
	defer scanner.Close()

	scanner.SetRanges(cr.Ranges)
	scanner.FetchColumnFamily(ColumnFamilyTag(cr.Constraint.Family, cr.Constraint.Qualifier))

	matches := make(map[string]kv.RowId)
	for scanner.Next() {
		select {
		case <-ctx.Done():
			return nil, errctx.New(errctx.Interrupted, ctx.Err())
		default:
		}
		rowID := kv.RowId(scanner.ColumnQualifier())
		if rowIDMatches(rowID, rowIDRanges) {
			matches[string(rowID)] = rowID
		}
	}
	if err := scanner.Err(); err != nil {
		logutil.Logger(ctx).Warn("index scan failed",
			zap.String("indexTable", indexTable),
			zap.String("column", cr.Constraint.Name),
			zap.Error(err))
		return nil, errctx.New(errctx.ScanFailure, err)
	}
	return matches, nil
}

// rowIDMatches reports whether rowID lies within at least one range of
// rowIDRanges; an empty rowIDRanges list matches nothing, an unbounded
// range always passes.
func rowIDMatches(rowID kv.RowId, rowIDRanges []kv.ByteRange) bool {
	for _, r := range rowIDRanges {
		if r.Contains(rowID) {
			return true
		}
	}
	return false
}
