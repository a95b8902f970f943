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

// Package engine wires the SQL front-end to an MVCC-backed table store and
// runs statements with the commit/rollback propagation policy of
// original_source/src/sql/engine/mod.rs's Session::execute: a parse error
// never touches storage; a planning or execution error rolls the transaction
// back before propagating; success commits.
package engine

import (
	"kvsql/internal/errs"
	"kvsql/internal/mvcc"
	"kvsql/internal/sql/executor"
	"kvsql/internal/sql/parser"
	"kvsql/internal/sql/plan"
	"kvsql/internal/table"
)

// Transaction is everything a Session needs from one open transaction: the
// table operations executor.Transaction requires, plus the ability to end
// the transaction.
type Transaction interface {
	executor.Transaction
	Commit() error
	Rollback() error
}

// Engine opens transactions. kvEngine is the sole implementation, wrapping
// an *mvcc.MVCC.
type Engine interface {
	Begin() (Transaction, error)
}

// kvEngine implements Engine directly atop MVCC, the way kv.rs's KVEngine
// wraps an MVCC engine.
type kvEngine struct {
	mvcc *mvcc.MVCC
}

// New builds an Engine over an already-open MVCC layer.
func New(m *mvcc.MVCC) Engine {
	return &kvEngine{mvcc: m}
}

func (e *kvEngine) Begin() (Transaction, error) {
	txn, err := e.mvcc.Begin()
	if err != nil {
		return nil, err
	}
	return &kvTransaction{txn: txn, tables: table.New(txn)}, nil
}

// kvTransaction adapts a table.Engine (itself backed by one mvcc.Txn) to the
// Transaction interface.
type kvTransaction struct {
	txn    *mvcc.Txn
	tables *table.Engine
}

func (t *kvTransaction) CreateTable(schema table.Table) error { return t.tables.CreateTable(schema) }
func (t *kvTransaction) GetTable(name string) (*table.Table, bool, error) {
	return t.tables.GetTable(name)
}
func (t *kvTransaction) MustGetTable(name string) (*table.Table, error) {
	return t.tables.MustGetTable(name)
}
func (t *kvTransaction) CreateRow(tableName string, row table.Row) error {
	return t.tables.CreateRow(tableName, row)
}
func (t *kvTransaction) UpdateRow(tableName string, oldPK table.Value, newRow table.Row) error {
	return t.tables.UpdateRow(tableName, oldPK, newRow)
}
func (t *kvTransaction) DeleteRow(tableName string, pk table.Value) error {
	return t.tables.DeleteRow(tableName, pk)
}
func (t *kvTransaction) ScanTable(tableName string, filter *table.Filter) ([]table.Row, error) {
	return t.tables.ScanTable(tableName, filter)
}
func (t *kvTransaction) Commit() error   { return t.txn.Commit() }
func (t *kvTransaction) Rollback() error { return t.txn.Rollback() }

// Session runs one SQL statement at a time against Engine, each statement
// its own transaction.
type Session struct {
	engine Engine
}

// NewSession builds a Session over engine.
func NewSession(engine Engine) *Session {
	return &Session{engine: engine}
}

// Execute parses sql as a single statement, builds a plan against the
// transaction's table state, and runs it -- committing on success, rolling
// back and propagating the error otherwise. A parse error never opens a
// transaction at all.
func (s *Session) Execute(sql string) (executor.ResultSet, error) {
	stmt, err := parser.New(sql).Parse()
	if err != nil {
		return executor.ResultSet{}, err
	}

	txn, err := s.engine.Begin()
	if err != nil {
		return executor.ResultSet{}, err
	}

	planner := plan.New(func(name string) (*table.Table, error) {
		return txn.MustGetTable(name)
	})

	result, err := func() (executor.ResultSet, error) {
		built, err := planner.Build(stmt)
		if err != nil {
			return executor.ResultSet{}, err
		}
		return executor.Execute(txn, built.Root)
	}()

	if err != nil {
		if rerr := txn.Rollback(); rerr != nil {
			return executor.ResultSet{}, errs.Internalf("session: rollback after %v: %v", err, rerr)
		}
		return executor.ResultSet{}, err
	}

	if err := txn.Commit(); err != nil {
		return executor.ResultSet{}, err
	}
	return result, nil
}
