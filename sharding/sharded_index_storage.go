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

// Package sharding implements the deterministic key-fanout codec used
// to spread index reads and writes across every tablet server: each
// logical index key is prefixed with a fixed-width shard number derived
// from a stable hash of the key bytes, the same way tablecodec prefixes
// table/index IDs onto row keys in the teacher's encoding scheme.
package sharding

import (
	"strconv"

	farm "github.com/dgryski/go-farm"
	"github.com/pingcap/tidb-index-planner/errctx"
)

// ShardedIndexStorage fans a logical index key across NumShards
// physical shards. It is stateless except for the shard count, so a
// value is safe to share across goroutines and to compare by value.
type ShardedIndexStorage struct {
	numShards int
	width     int
}

// New builds a ShardedIndexStorage for numShards physical shards.
// numShards must be > 1.
func New(numShards int) (ShardedIndexStorage, error) {
	if numShards <= 1 {
		return ShardedIndexStorage{}, errctx.Newf(errctx.InvalidConfig, "numShards must be > 1, got %d", numShards)
	}
	return ShardedIndexStorage{
		numShards: numShards,
		width:     decimalDigits(numShards - 1),
	}, nil
}

// NumShards returns the configured shard count.
func (s ShardedIndexStorage) NumShards() int {
	return s.numShards
}

// decimalDigits returns the number of decimal digits needed to print n,
// treating n == 0 as needing one digit.
func decimalDigits(n int) int {
	if n == 0 {
		return 1
	}
	digits := 0
	for n > 0 {
		digits++
		n /= 10
	}
	return digits
}

// shardOf returns the shard index that b hashes to, in [0, numShards).
// The hash is unsigned throughout, so there is no signed-overflow edge
// case to guard against when folding a negative hash to non-negative:
// go-farm's Hash32 never produces one.
func (s ShardedIndexStorage) shardOf(b []byte) int {
	return int(farm.Hash32(b) % uint32(s.numShards))
}

// shardPrefix renders shard as a zero-padded, left-aligned ASCII
// decimal of fixed width s.width.
func (s ShardedIndexStorage) shardPrefix(shard int) string {
	str := strconv.Itoa(shard)
	if len(str) >= s.width {
		return str
	}
	padded := make([]byte, s.width)
	pad := s.width - len(str)
	for i := 0; i < pad; i++ {
		padded[i] = '0'
	}
	copy(padded[pad:], str)
	return string(padded)
}

// Encode returns b prefixed with the shard-prefix its hash maps to.
func (s ShardedIndexStorage) Encode(b []byte) []byte {
	shard := s.shardOf(b)
	return s.prefixed(shard, b)
}

func (s ShardedIndexStorage) prefixed(shard int, b []byte) []byte {
	prefix := s.shardPrefix(shard)
	out := make([]byte, 0, len(prefix)+len(b))
	out = append(out, prefix...)
	out = append(out, b...)
	return out
}

// Decode strips the shard-prefix width from b, returning the original
// logical key. It is the caller's responsibility to pass bytes that
// were produced by Encode or EncodeAllShards of a ShardedIndexStorage
// with the same NumShards.
func (s ShardedIndexStorage) Decode(b []byte) []byte {
	if len(b) < s.width {
		return b
	}
	return b[s.width:]
}

// EncodeAllShards enumerates all NumShards shard-prefixed forms of b,
// in shard order 0..NumShards, for fanning out a point lookup across
// every shard.
func (s ShardedIndexStorage) EncodeAllShards(b []byte) [][]byte {
	out := make([][]byte, s.numShards)
	for shard := 0; shard < s.numShards; shard++ {
		out[shard] = s.prefixed(shard, b)
	}
	return out
}
