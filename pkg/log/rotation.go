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

package log

import "gopkg.in/natefinch/lumberjack.v2"

// RotationConfig configures size/age-based rotation for a file log sink.
type RotationConfig struct {
	// MaxSizeMB is the size in megabytes at which a log file is rotated.
	MaxSizeMB int
	// MaxAgeDays is the maximum number of days to retain old log files.
	MaxAgeDays int
	// MaxBackups is the maximum number of old log files to retain.
	MaxBackups int
	// Compress gzips rotated-out log files.
	Compress bool
}

// DefaultRotation matches the defaults used by most Go services: 100MB
// files, 7 days retention, 10 backups.
var DefaultRotation = &RotationConfig{MaxSizeMB: 100, MaxAgeDays: 7, MaxBackups: 10}

func newLumberjack(path string, cfg *RotationConfig) *lumberjack.Logger {
	if cfg == nil {
		cfg = DefaultRotation
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxAge:     cfg.MaxAgeDays,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
}
