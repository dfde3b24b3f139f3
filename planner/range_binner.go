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
	"sort"

	"github.com/pingcap/tidb-index-planner/errctx"
	"github.com/pingcap/tidb-index-planner/kv"
)

// BinRanges packs a flat, ordered list of row-id ranges into
// consecutive slices of size rangesPerBin, one TabletSplit per slice.
// The order of ranges is preserved; only the last split may be short.
// rangesPerBin must be > 0, a violation is a programmer error.
func BinRanges(rangesPerBin int, ranges []kv.ByteRange) ([]TabletSplit, error) {
	if rangesPerBin <= 0 {
		return nil, errctx.Newf(errctx.InvalidConfig, "rangesPerBin must be > 0, got %d", rangesPerBin)
	}
	if len(ranges) == 0 {
		return []TabletSplit{}, nil
	}
	splits := make([]TabletSplit, 0, (len(ranges)+rangesPerBin-1)/rangesPerBin)
	for i := 0; i < len(ranges); i += rangesPerBin {
		end := i + rangesPerBin
		if end > len(ranges) {
			end = len(ranges)
		}
		chunk := make([]kv.ByteRange, end-i)
		copy(chunk, ranges[i:end])
		splits = append(splits, TabletSplit{Ranges: chunk})
	}
	return splits, nil
}

// rowIDsToRanges converts a set of base-table row-ids into a flat,
// deterministically ordered list of point ranges, one per row-id,
// mirroring the way the teacher's TableHandlesToKVRanges turns sorted
// handles into KeyRanges. Ranges are sorted by byte value so that
// binning is reproducible within a call regardless of scan goroutine
// completion order.
func rowIDsToRanges(rowIDs map[string]kv.RowId) []kv.ByteRange {
	ids := make([]kv.RowId, 0, len(rowIDs))
	for _, id := range rowIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	ranges := make([]kv.ByteRange, 0, len(ids))
	for _, id := range ids {
		ranges = append(ranges, kv.ByteRange{Start: []byte(id), End: []byte(id)})
	}
	return ranges
}
