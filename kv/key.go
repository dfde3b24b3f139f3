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

// Package kv holds the key-value primitives shared by the sharding,
// statistics, distsql and planner packages: a sorted-store key type,
// byte ranges with open/closed endpoints, and row identifiers.
package kv

import "bytes"

// Key is an opaque sorted-store key, ordered lexicographically.
type Key []byte

// Cmp orders two keys the way the underlying KV store does.
func (k Key) Cmp(other Key) int {
	return bytes.Compare(k, other)
}

// Next returns the smallest key strictly greater than k.
func (k Key) Next() Key {
	buf := make([]byte, len(k), len(k)+1)
	copy(buf, k)
	return append(buf, 0)
}

// PrefixNext returns the smallest key that sorts after every key having
// k as a prefix, used to
// turn an inclusive upper bound into an exclusive one and vice versa.
func (k Key) PrefixNext() Key {
	buf := make([]byte, len(k))
	copy(buf, k)
	for i := len(buf) - 1; i >= 0; i-- {
		buf[i]++
		if buf[i] != 0 {
			return buf[:i+1]
		}
	}
	// k is all 0xff (buf has wrapped to all zeros); no successor exists in
	// the same length class, so fall back to k with a zero byte appended,
	// which still sorts after k.
	copy(buf, k)
	return append(buf, 0)
}

// RowId identifies one base-table row; opaque outside the row serializer.
type RowId []byte

// String renders RowId for logging; row-ids are not assumed to be printable.
func (r RowId) String() string {
	return string(r)
}

// ByteRange is an inclusive-by-default range over the KV store's key
// space, with either side optionally exclusive or unbounded (nil).
type ByteRange struct {
	Start          []byte
	End            []byte
	StartExclusive bool
	EndExclusive   bool
}

// UnboundedRange matches every key.
func UnboundedRange() ByteRange {
	return ByteRange{}
}

// BeforeStartKey reports whether k sorts strictly before the range,
// i.e. the range's start bound excludes k.
func (r ByteRange) BeforeStartKey(k []byte) bool {
	if r.Start == nil {
		return false
	}
	c := bytes.Compare(k, r.Start)
	if r.StartExclusive {
		return c <= 0
	}
	return c < 0
}

// AfterEndKey reports whether k sorts strictly after the range, i.e.
// the range's end bound excludes k.
func (r ByteRange) AfterEndKey(k []byte) bool {
	if r.End == nil {
		return false
	}
	c := bytes.Compare(k, r.End)
	if r.EndExclusive {
		return c >= 0
	}
	return c > 0
}

// Contains reports whether k lies within [Start, End] honoring the
// exclusivity flags; unbounded sides always pass, matching the KV-store
// comparator contract described for rowIdRanges filtering.
func (r ByteRange) Contains(k []byte) bool {
	return !r.BeforeStartKey(k) && !r.AfterEndKey(k)
}

// KeyRange is a plain start/end key pair, without the exclusivity flags
// and the Contains/Before/After test-point semantics of ByteRange. The
// scanner contract (SetRanges) takes ByteRange, not KeyRange.
type KeyRange struct {
	StartKey []byte
	EndKey   []byte
}
