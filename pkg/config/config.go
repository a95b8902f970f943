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

// Package config loads the engine's YAML configuration file.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the kvsql process.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects and sizes the storage backend.
type StorageConfig struct {
	// Engine is "bitcask" or "memory".
	Engine string `yaml:"engine"`
	// DataDir holds the bitcask log file; ignored for the memory engine.
	DataDir string `yaml:"data_dir"`
	// FileName is the log file's name within DataDir.
	FileName string `yaml:"file_name"`
}

// LogConfig configures pkg/log.
type LogConfig struct {
	Level            string   `yaml:"level"`
	OutputPaths      []string `yaml:"output_paths"`
	ErrorOutputPaths []string `yaml:"error_output_paths"`
	Encoding         string   `yaml:"encoding"`
}

// Default returns a Config suitable for local use: bitcask storage under
// ./data/kvsql.db, console logging at info level.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Engine:   "bitcask",
			DataDir:  "./data",
			FileName: "kvsql.db",
		},
		Log: LogConfig{
			Level:            "info",
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
			Encoding:         "console",
		},
	}
}

// Load reads and parses a YAML config file at path. Missing fields retain
// their Default() values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
