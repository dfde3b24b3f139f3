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

// Package model holds the data-model types shared across the
// statistics, distsql and planner packages: the column constraint a
// query contributes per predicate, and the small capability interface
// the planner dispatches to for byte ranges (row serializer). Keeping
// these in one leaf package avoids an import cycle between statistics
// and planner, the way the teacher keeps parser/model free of any
// dependency on planner or executor.
package model

import "github.com/pingcap/tidb-index-planner/kv"

// Domain is a disjunction of value ranges over one typed column. The
// planner never interprets a Domain directly; it only ever passes it to
// a RowSerializer.
type Domain interface {
	// IsEmpty reports whether the domain matches no values at all,
	// distinct from "unbounded" (which matches every value).
	IsEmpty() bool
}

// ColumnConstraint is one column's predicate within a query.
type ColumnConstraint struct {
	Family    string
	Qualifier string
	Name      string
	Domain    Domain
	Indexed   bool
}

// Key returns the stable (family, qualifier, name) tuple used to
// tie-break constraints that tie on cardinality estimate.
func (c ColumnConstraint) Key() string {
	return c.Family + "\x00" + c.Qualifier + "\x00" + c.Name
}

// RowSerializer turns a ColumnConstraint's Domain into the byte ranges
// the index table must be scanned over. It is an external collaborator
// supplied by the surrounding engine; the planner consumes whatever
// ranges come back without interpreting the domain's type.
type RowSerializer interface {
	DomainToByteRanges(d Domain) ([]kv.ByteRange, error)
}

// Authorizations is passed through to the KV-store connector
// unexamined.
type Authorizations []string
