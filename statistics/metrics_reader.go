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

// Package statistics memoizes per-column-constraint cardinality
// estimates and supports short-circuit polling that returns as soon as
// any column looks "small enough" to skip intersection, the way the
// teacher's statistics package turns histogram buckets into row-count
// estimates for the optimizer.
package statistics

import (
	"context"

	"github.com/pingcap/tidb-index-planner/kv"
	"github.com/pingcap/tidb-index-planner/model"
)

// MetricsReader reads row counts and per-value cardinalities from a
// metrics store. It is an external collaborator supplied by the
// surrounding engine; this module only consumes its answers.
type MetricsReader interface {
	// NumRowsInTable returns the total row count of schema.table.
	NumRowsInTable(ctx context.Context, schema, table string) (uint64, error)
	// Cardinality returns the number of index entries matching the
	// constraint's column within the given (shard-prefixed) range.
	Cardinality(ctx context.Context, column model.ColumnConstraint, r kv.ByteRange) (uint64, error)
}
