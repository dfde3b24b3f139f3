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

// Package errctx carries the planner's error taxonomy: every failure
// that crosses an IndexPlanner.Apply boundary is tagged with one of a
// fixed set of ErrorKinds. Falling back to a table scan is not a
// failure: Apply reports it as a PlanResult with a nil error.
package errctx

import (
	"errors"
	"fmt"

	pingcaperrors "github.com/pingcap/errors"
)

// ErrorKind classifies why IndexPlanner.Apply failed. Declining to use
// the index carries no ErrorKind.
type ErrorKind int

const (
	// MetricsUnavailable means the metrics store failed to answer.
	MetricsUnavailable ErrorKind = iota
	// ScanFailure means a KV-store scan task failed.
	ScanFailure
	// Interrupted means an external cancellation aborted planning.
	Interrupted
	// InvalidConfig means a programmer error in planner configuration
	// (rangesPerBin <= 0, numShards <= 1, a threshold outside [0,1]).
	InvalidConfig
)

func (k ErrorKind) String() string {
	switch k {
	case MetricsUnavailable:
		return "MetricsUnavailable"
	case ScanFailure:
		return "ScanFailure"
	case Interrupted:
		return "Interrupted"
	case InvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying, trace-annotated error with its ErrorKind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap lets errors.Is/errors.As see through to the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given kind, tracing the cause the way the
// teacher traces every returned error.
func New(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Err: pingcaperrors.Trace(cause)}
}

// Newf builds an Error of the given kind from a format string.
func Newf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: pingcaperrors.Trace(pingcaperrors.Errorf(format, args...))}
}

// KindOf extracts the ErrorKind from err, if it (or something it wraps)
// is an *Error. The second return is false for plain errors.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
