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

package model

import "github.com/pingcap/tidb-index-planner/kv"

// RangeDomain is the simplest concrete Domain: a disjunction of byte
// ranges already in the row serializer's target encoding. Connectors
// with richer typed domains (ints, strings, timestamps) implement
// Domain themselves and supply their own RowSerializer; RangeDomain is
// what a RowSerializer typically decodes down to internally.
type RangeDomain struct {
	Ranges []kv.ByteRange
}

// IsEmpty reports whether the domain carries no ranges at all.
func (d RangeDomain) IsEmpty() bool {
	return len(d.Ranges) == 0
}
