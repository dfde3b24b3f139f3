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

// ConstraintRanges pairs a ColumnConstraint with the byte ranges the
// row serializer produced for its Domain. Both CardinalityCache and
// IndexScanner key their work off this same pairing, so it lives in
// model rather than being duplicated per package.
type ConstraintRanges struct {
	Constraint ColumnConstraint
	Ranges     []kv.ByteRange
}
