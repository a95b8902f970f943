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

// Package reliability provides small process-lifecycle helpers: graceful
// shutdown on SIGINT/SIGTERM and panic recovery for the REPL loop.
package reliability

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"kvsql/pkg/log"
)

// ShutdownHook runs when a shutdown signal arrives. Hooks run in
// registration order; each hook's error is logged but does not stop the rest
// from running, so every resource gets a chance to close.
type ShutdownHook func() error

// GracefulShutdown watches for SIGINT/SIGTERM and runs registered hooks
// once, in order, before the process exits.
type GracefulShutdown struct {
	mu      sync.Mutex
	hooks   []ShutdownHook
	signals chan os.Signal
	log     *log.Logger
}

// NewGracefulShutdown installs the signal handler.
func NewGracefulShutdown() *GracefulShutdown {
	gs := &GracefulShutdown{
		signals: make(chan os.Signal, 1),
		log:     log.GetLogger().Named("shutdown"),
	}
	signal.Notify(gs.signals, syscall.SIGINT, syscall.SIGTERM)
	return gs
}

// RegisterHook appends hook to the shutdown sequence.
func (gs *GracefulShutdown) RegisterHook(hook ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, hook)
}

// Wait blocks until a shutdown signal arrives, then runs every registered
// hook and returns.
func (gs *GracefulShutdown) Wait() {
	sig := <-gs.signals
	gs.log.Info("received shutdown signal", zap.String("signal", sig.String()))

	gs.mu.Lock()
	hooks := gs.hooks
	gs.mu.Unlock()

	for i, hook := range hooks {
		if err := hook(); err != nil {
			gs.log.Error("shutdown hook failed", zap.Int("index", i), zap.Error(err))
		}
	}
}
