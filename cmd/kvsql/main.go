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

// Command kvsql is an interactive REPL over the bitcask/MVCC/table/SQL
// stack: it reads one statement at a time, runs it in its own transaction,
// and prints the result or error.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"kvsql/internal/bitcask"
	"kvsql/internal/kvstore"
	"kvsql/internal/mvcc"
	"kvsql/internal/sql/engine"
	"kvsql/internal/sql/executor"
	"kvsql/pkg/config"
	"kvsql/pkg/log"
	"kvsql/pkg/reliability"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	memory := flag.Bool("memory", false, "use the in-memory store instead of bitcask")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Printf("kvsql: loading config: %v\n", err)
			return
		}
		cfg = loaded
	}

	if err := log.InitGlobalLogger(&log.Config{
		Level:            cfg.Log.Level,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
		Encoding:         cfg.Log.Encoding,
	}); err != nil {
		fmt.Printf("kvsql: initializing logger: %v\n", err)
		return
	}
	logger := log.GetLogger().Named("kvsql")

	var store kvstore.KvStore
	var closeStore func() error
	if *memory || cfg.Storage.Engine == "memory" {
		store = kvstore.NewMemory()
		closeStore = func() error { return nil }
	} else {
		path := filepath.Join(cfg.Storage.DataDir, cfg.Storage.FileName)
		eng, err := bitcask.Open(path)
		if err != nil {
			logger.Error("opening bitcask store", zap.Error(err))
			return
		}
		store = eng
		closeStore = eng.Close
	}

	shutdown := reliability.NewGracefulShutdown()
	shutdown.RegisterHook(closeStore)
	go shutdown.Wait()

	m := mvcc.New(store)
	sqlEngine := engine.New(m)
	session := engine.NewSession(sqlEngine)

	runRepl(session, logger)

	if err := closeStore(); err != nil {
		logger.Error("closing store", zap.Error(err))
	}
}

func runRepl(session *engine.Session, logger *log.Logger) {
	rl, err := readline.New("kvsql> ")
	if err != nil {
		logger.Error("starting readline", zap.Error(err))
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return
			}
			logger.Error("reading input", zap.Error(err))
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasSuffix(line, ";") {
			line += ";"
		}

		executeStatement(session, line)
	}
}

func executeStatement(session *engine.Session, sql string) {
	defer reliability.RecoverPanic("repl")

	result, err := session.Execute(sql)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	printResult(result)
}

func printResult(result executor.ResultSet) {
	switch result.Kind {
	case executor.ResultCreateTable:
		fmt.Printf("CREATE TABLE %s\n", result.TableName)
	case executor.ResultInsert:
		fmt.Printf("INSERT %d\n", result.Count)
	case executor.ResultUpdate:
		fmt.Printf("UPDATE %d\n", result.Count)
	case executor.ResultDelete:
		fmt.Printf("DELETE %d\n", result.Count)
	case executor.ResultScan:
		printRows(result)
	}
}

func printRows(result executor.ResultSet) {
	names := make([]string, len(result.Columns))
	for i, c := range result.Columns {
		names[i] = c.Name
	}
	fmt.Println(strings.Join(names, " | "))
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		fmt.Println(strings.Join(cells, " | "))
	}
}
