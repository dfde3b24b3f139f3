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
	"time"

	. "github.com/pingcap/check"
	"github.com/pingcap/tidb-index-planner/distsql"
	"github.com/pingcap/tidb-index-planner/errctx"
	"github.com/pingcap/tidb-index-planner/kv"
	"github.com/pingcap/tidb-index-planner/model"
	"github.com/pingcap/tidb-index-planner/statistics"
)

type testIndexPlannerSuite struct{}

var _ = Suite(&testIndexPlannerSuite{})

// fakeSerializer treats every Domain as already an model.RangeDomain.
type fakeSerializer struct {
	forcedEmptyFor string
}

func (f *fakeSerializer) DomainToByteRanges(d model.Domain) ([]kv.ByteRange, error) {
	rd, ok := d.(model.RangeDomain)
	if !ok {
		return nil, nil
	}
	return rd.Ranges, nil
}

type fakeMetricsReader struct {
	numRows  uint64
	byColumn map[string]uint64
	delay    time.Duration
}

func (f *fakeMetricsReader) NumRowsInTable(ctx context.Context, schema, table string) (uint64, error) {
	return f.numRows, nil
}

func (f *fakeMetricsReader) Cardinality(ctx context.Context, column model.ColumnConstraint, r kv.ByteRange) (uint64, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.byColumn[column.Name], nil
}

// fakeBatchScannerFactory hands out scanners whose row-id lists are
// keyed by the column-family tag, same approach as the distsql tests.
type fakeBatchScannerFactory struct {
	byColumn map[string][]kv.RowId
}

func (f *fakeBatchScannerFactory) CreateBatchScanner(ctx context.Context, table string, auths model.Authorizations, threadsHint int) (distsql.Scanner, error) {
	return &fakePlannerScanner{byColumn: f.byColumn}, nil
}

type fakePlannerScanner struct {
	byColumn map[string][]kv.RowId
	rowIDs   []kv.RowId
	idx      int
}

func (s *fakePlannerScanner) SetRanges(ranges []kv.ByteRange) {}
func (s *fakePlannerScanner) FetchColumnFamily(tag string)    { s.rowIDs = s.byColumn[tag] }
func (s *fakePlannerScanner) Next() bool {
	if s.idx >= len(s.rowIDs) {
		return false
	}
	s.idx++
	return true
}
func (s *fakePlannerScanner) Key() []byte             { return s.rowIDs[s.idx-1] }
func (s *fakePlannerScanner) ColumnQualifier() []byte { return s.rowIDs[s.idx-1] }
func (s *fakePlannerScanner) Close()                  {}
func (s *fakePlannerScanner) Err() error              { return nil }

func indexedConstraint(name string, ranges ...kv.ByteRange) model.ColumnConstraint {
	if len(ranges) == 0 {
		ranges = []kv.ByteRange{kv.UnboundedRange()}
	}
	return model.ColumnConstraint{
		Family: "f", Qualifier: name, Name: name, Indexed: true,
		Domain: model.RangeDomain{Ranges: ranges},
	}
}

func unboundedRowIDRanges() []kv.ByteRange {
	return []kv.ByteRange{kv.UnboundedRange()}
}

func baseConfig() Config {
	return Config{
		OptimizeIndexEnabled:                 true,
		IndexMetricsEnabled:                  false,
		IndexShortCircuitEnabled:              false,
		IndexThreshold:                        0.5,
		IndexSmallCardThreshold:               0.01,
		IndexSmallCardRowThreshold:            100000,
		NumIndexRowsPerSplit:                  2,
		IndexCardinalityCachePollingDuration:  0,
	}
}

func (s *testIndexPlannerSuite) newPlanner(c *C, cfg Config, metrics *fakeMetricsReader, byColumn map[string][]kv.RowId) *IndexPlanner {
	cache := statistics.NewCardinalityCache(metrics)
	scanner := distsql.NewIndexScanner(&fakeBatchScannerFactory{byColumn: byColumn})
	p, err := NewIndexPlanner(cfg, &fakeSerializer{}, metrics, cache, scanner)
	c.Assert(err, IsNil)
	return p
}

func (s *testIndexPlannerSuite) TestOptimizeIndexDisabledNeverUsesIndex(c *C) {
	cfg := baseConfig()
	cfg.OptimizeIndexEnabled = false
	p := s.newPlanner(c, cfg, &fakeMetricsReader{}, nil)
	result, err := p.Apply(context.Background(), "s", "t",
		[]model.ColumnConstraint{indexedConstraint("a")}, unboundedRowIDRanges(), nil)
	c.Assert(err, IsNil)
	c.Assert(result.UseIndex, IsFalse)
}

func (s *testIndexPlannerSuite) TestNoIndexedColumnsFallsBackToTableScan(c *C) {
	cfg := baseConfig()
	p := s.newPlanner(c, cfg, &fakeMetricsReader{}, nil)
	constraints := []model.ColumnConstraint{{Family: "f", Qualifier: "a", Name: "a", Indexed: false}}
	result, err := p.Apply(context.Background(), "s", "t", constraints, unboundedRowIDRanges(), nil)
	c.Assert(err, IsNil)
	c.Assert(result.UseIndex, IsFalse)
}

func (s *testIndexPlannerSuite) TestMetricsDisabledScansAndBinsDirectly(c *C) {
	cfg := baseConfig()
	byColumn := map[string][]kv.RowId{"f:a": {kv.RowId("r1"), kv.RowId("r3"), kv.RowId("r7")}}
	p := s.newPlanner(c, cfg, &fakeMetricsReader{}, byColumn)
	result, err := p.Apply(context.Background(), "s", "t",
		[]model.ColumnConstraint{indexedConstraint("a")}, unboundedRowIDRanges(), nil)
	c.Assert(err, IsNil)
	c.Assert(result.UseIndex, IsTrue)
	c.Assert(result.Splits, HasLen, 2)
	c.Assert(result.Splits[0].Ranges, HasLen, 2)
	c.Assert(result.Splits[1].Ranges, HasLen, 1)
	c.Assert(string(result.Splits[0].Ranges[0].Start), Equals, "r1")
	c.Assert(string(result.Splits[0].Ranges[1].Start), Equals, "r3")
	c.Assert(string(result.Splits[1].Ranges[0].Start), Equals, "r7")
}

func (s *testIndexPlannerSuite) TestShortCircuitScansOnlyCheapestColumn(c *C) {
	cfg := baseConfig()
	cfg.IndexMetricsEnabled = true
	cfg.IndexShortCircuitEnabled = true
	cfg.IndexSmallCardThreshold = 0.01
	cfg.IndexSmallCardRowThreshold = 100000
	cfg.IndexCardinalityCachePollingDuration = time.Millisecond
	metrics := &fakeMetricsReader{numRows: 1000000, byColumn: map[string]uint64{"a": 5000, "b": 800000}}
	byColumn := map[string][]kv.RowId{
		"f:a": {kv.RowId("r1"), kv.RowId("r2")},
		"f:b": {kv.RowId("r9")},
	}
	p := s.newPlanner(c, cfg, metrics, byColumn)
	constraints := []model.ColumnConstraint{indexedConstraint("a"), indexedConstraint("b")}
	result, err := p.Apply(context.Background(), "s", "t", constraints, unboundedRowIDRanges(), nil)
	c.Assert(err, IsNil)
	c.Assert(result.UseIndex, IsTrue)
	var got []string
	for _, split := range result.Splits {
		for _, r := range split.Ranges {
			got = append(got, string(r.Start))
		}
	}
	c.Assert(got, DeepEquals, []string{"r1", "r2"})
}

func (s *testIndexPlannerSuite) TestHighSingleColumnRatioFallsBackToTableScan(c *C) {
	cfg := baseConfig()
	cfg.IndexMetricsEnabled = true
	cfg.IndexThreshold = 0.5
	metrics := &fakeMetricsReader{numRows: 1000000, byColumn: map[string]uint64{"a": 800000}}
	p := s.newPlanner(c, cfg, metrics, map[string][]kv.RowId{})
	constraints := []model.ColumnConstraint{indexedConstraint("a")}
	result, err := p.Apply(context.Background(), "s", "t", constraints, unboundedRowIDRanges(), nil)
	c.Assert(err, IsNil)
	c.Assert(result.UseIndex, IsFalse)
}

func (s *testIndexPlannerSuite) TestMultiColumnIntersectionNarrowsRowSet(c *C) {
	cfg := baseConfig()
	cfg.IndexMetricsEnabled = true
	cfg.IndexThreshold = 0.3
	metrics := &fakeMetricsReader{numRows: 1000000, byColumn: map[string]uint64{"a": 200000, "b": 150000}}
	byColumn := map[string][]kv.RowId{
		"f:a": {kv.RowId("r1"), kv.RowId("r2"), kv.RowId("r3"), kv.RowId("r4")},
		"f:b": {kv.RowId("r2"), kv.RowId("r4"), kv.RowId("r5")},
	}
	p := s.newPlanner(c, cfg, metrics, byColumn)
	constraints := []model.ColumnConstraint{indexedConstraint("a"), indexedConstraint("b")}
	result, err := p.Apply(context.Background(), "s", "t", constraints, unboundedRowIDRanges(), nil)
	c.Assert(err, IsNil)
	c.Assert(result.UseIndex, IsTrue)
	c.Assert(result.Splits, HasLen, 1)
	c.Assert(result.Splits[0].Ranges, HasLen, 2)
	c.Assert(string(result.Splits[0].Ranges[0].Start), Equals, "r2")
	c.Assert(string(result.Splits[0].Ranges[1].Start), Equals, "r4")
}

// An empty intersection still commits to the index with zero splits,
// rather than falling back to a table scan: the conjunction provably
// matches nothing, so there is nothing left to scan either way.
func (s *testIndexPlannerSuite) TestEmptyIntersectionIsUseIndexEmpty(c *C) {
	cfg := baseConfig()
	byColumn := map[string][]kv.RowId{
		"f:a": {kv.RowId("r1")},
		"f:b": {kv.RowId("r2")},
	}
	p := s.newPlanner(c, cfg, &fakeMetricsReader{}, byColumn)
	constraints := []model.ColumnConstraint{indexedConstraint("a"), indexedConstraint("b")}
	result, err := p.Apply(context.Background(), "s", "t", constraints, unboundedRowIDRanges(), nil)
	c.Assert(err, IsNil)
	c.Assert(result.UseIndex, IsTrue)
	c.Assert(result.Splits, HasLen, 0)
}

// An indexed constraint whose domain serializes to zero ranges means
// the conjunction matches nothing; the planner commits to the index
// with no splits and issues no scan at all.
func (s *testIndexPlannerSuite) TestEmptyRangeConstraintShortCircuits(c *C) {
	cfg := baseConfig()
	byColumn := map[string][]kv.RowId{"f:a": {kv.RowId("r1")}}
	p := s.newPlanner(c, cfg, &fakeMetricsReader{}, byColumn)
	constraints := []model.ColumnConstraint{
		indexedConstraint("a"),
		{Family: "f", Qualifier: "empty", Name: "empty", Indexed: true, Domain: model.RangeDomain{}},
	}
	result, err := p.Apply(context.Background(), "s", "t", constraints, unboundedRowIDRanges(), nil)
	c.Assert(err, IsNil)
	c.Assert(result.UseIndex, IsTrue)
	c.Assert(result.Splits, HasLen, 0)
}

// Determinism: apply(x) == apply(x) for a fixed input.
func (s *testIndexPlannerSuite) TestDeterministic(c *C) {
	cfg := baseConfig()
	cfg.IndexMetricsEnabled = true
	cfg.IndexThreshold = 0.3
	metrics := &fakeMetricsReader{numRows: 1000000, byColumn: map[string]uint64{"a": 200000, "b": 150000}}
	byColumn := map[string][]kv.RowId{
		"f:a": {kv.RowId("r1"), kv.RowId("r2"), kv.RowId("r3"), kv.RowId("r4")},
		"f:b": {kv.RowId("r2"), kv.RowId("r4"), kv.RowId("r5")},
	}
	constraints := []model.ColumnConstraint{indexedConstraint("a"), indexedConstraint("b")}

	p1 := s.newPlanner(c, cfg, metrics, byColumn)
	r1, err := p1.Apply(context.Background(), "s", "t", constraints, unboundedRowIDRanges(), nil)
	c.Assert(err, IsNil)

	p2 := s.newPlanner(c, cfg, metrics, byColumn)
	r2, err := p2.Apply(context.Background(), "s", "t", constraints, unboundedRowIDRanges(), nil)
	c.Assert(err, IsNil)

	c.Assert(r1, DeepEquals, r2)
}

func (s *testIndexPlannerSuite) TestShutdownIsIdempotent(c *C) {
	p := s.newPlanner(c, baseConfig(), &fakeMetricsReader{}, nil)
	p.Shutdown()
	p.Shutdown()
}

// Shutdown must interrupt an Apply call already in flight, not just
// future ones: the root context it cancels is what Apply's working
// context is derived from.
func (s *testIndexPlannerSuite) TestShutdownInterruptsOutstandingApply(c *C) {
	cfg := baseConfig()
	cfg.IndexMetricsEnabled = true
	metrics := &fakeMetricsReader{
		numRows:  1000000,
		byColumn: map[string]uint64{"a": 5000},
		delay:    200 * time.Millisecond,
	}
	p := s.newPlanner(c, cfg, metrics, map[string][]kv.RowId{})
	constraints := []model.ColumnConstraint{indexedConstraint("a")}

	var applyErr error
	done := make(chan struct{})
	go func() {
		_, applyErr = p.Apply(context.Background(), "s", "t", constraints, unboundedRowIDRanges(), nil)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	p.Shutdown()

	select {
	case <-done:
	case <-time.After(time.Second):
		c.Fatal("Apply did not return after Shutdown")
	}
	kind, ok := errctx.KindOf(applyErr)
	c.Assert(ok, IsTrue)
	c.Assert(kind, Equals, errctx.Interrupted)
}
