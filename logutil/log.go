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

// Package logutil provides the planner's zap logger, threaded through
// context.Context the same way the teacher's util/logutil does.
package logutil

import (
	"context"

	"go.uber.org/zap"
)

type ctxLogKeyType struct{}

var ctxLogKey = ctxLogKeyType{}

var defaultLogger = zap.NewNop()

// SetDefaultLogger installs the process-wide fallback logger used when
// ctx carries none; call once during planner construction wiring.
func SetDefaultLogger(l *zap.Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// WithLogger returns a context carrying l, retrievable via Logger.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxLogKey, l)
}

// Logger returns the zap.Logger attached to ctx, or the default logger
// if none was attached.
func Logger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxLogKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return defaultLogger
}
