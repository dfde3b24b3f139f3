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

// Package distsql builds scan requests against index tables and
// executes them with a bounded-concurrency fan-out across indexed
// constraints, the way the teacher's distsql package builds kv.Requests
// and the executor package fans them out across indexWorker goroutines.
package distsql

import (
	"context"

	"github.com/pingcap/tidb-index-planner/kv"
	"github.com/pingcap/tidb-index-planner/model"
)

// IndexTableName derives the index table's name from the base table's
// (schema, table), following the writer's naming convention.
func IndexTableName(schema, table string) string {
	return schema + "." + table + "_idx"
}

// ColumnFamilyTag derives the index column-family tag the writer used
// for a (family, qualifier) pair, so the scanner requests exactly the
// column family holding that column's index entries.
func ColumnFamilyTag(family, qualifier string) string {
	return family + ":" + qualifier
}

// Scanner is the KV-store connector's scoped scanner: set ranges and a
// column-family filter, then iterate. Close must be called on every
// exit path.
type Scanner interface {
	SetRanges(ranges []kv.ByteRange)
	FetchColumnFamily(tag string)
	Next() bool
	Key() []byte
	ColumnQualifier() []byte
	Close()
	Err() error
}

// BatchScannerFactory opens scoped scanners against an index table.
type BatchScannerFactory interface {
	CreateBatchScanner(ctx context.Context, table string, auths model.Authorizations, threadsHint int) (Scanner, error)
}
