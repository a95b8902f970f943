// Copyright 2025 The axfor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reliability

import (
	"runtime/debug"
	"sync/atomic"

	"go.uber.org/zap"

	"kvsql/pkg/log"
)

// PanicCount is the number of panics RecoverPanic has recovered.
var PanicCount int64

// RecoverPanic recovers a panic in the calling goroutine, logs it with a
// stack trace, and bumps PanicCount. Intended as `defer reliability.RecoverPanic("repl")`
// around the REPL's per-statement execution, so one malformed statement
// can't take down the process.
func RecoverPanic(name string) {
	if r := recover(); r != nil {
		atomic.AddInt64(&PanicCount, 1)
		log.GetLogger().Error("panic recovered",
			zap.String("component", name),
			zap.Any("value", r),
			zap.String("stack", string(debug.Stack())),
		)
	}
}
