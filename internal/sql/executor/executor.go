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

// Package executor runs a plan.Node tree against a Transaction, grounded on
// original_source/src/sql/executor/{mod,schema,query,mutation}.rs. schema.rs
// and query.rs (CreateTable, Scan) were complete in the original; mutation.rs's
// Insert was a stub (todo!()) and had no Update executor at all, so both are
// written fresh here following spec §4.4's row rules.
package executor

import (
	"sort"

	"kvsql/internal/errs"
	"kvsql/internal/sql/plan"
	"kvsql/internal/table"
)

// Transaction is the set of table-layer operations an executor needs. It is
// defined here, not imported from engine, so that executor has no dependency
// on engine and the two packages don't form an import cycle.
type Transaction interface {
	CreateTable(schema table.Table) error
	GetTable(name string) (*table.Table, bool, error)
	MustGetTable(name string) (*table.Table, error)
	CreateRow(tableName string, row table.Row) error
	UpdateRow(tableName string, oldPK table.Value, newRow table.Row) error
	DeleteRow(tableName string, pk table.Value) error
	ScanTable(tableName string, filter *table.Filter) ([]table.Row, error)
}

// ResultSet is the outcome of executing one plan, mirroring the shape of the
// original's ResultSet enum.
type ResultSet struct {
	Kind ResultKind

	// CreateTable
	TableName string

	// Insert / Update / Delete
	Count int64

	// Scan
	Columns []table.Column
	Rows    []table.Row
}

// ResultKind discriminates ResultSet's variant.
type ResultKind int

const (
	ResultCreateTable ResultKind = iota
	ResultInsert
	ResultScan
	ResultUpdate
	ResultDelete
)

// Execute runs node against txn and returns its ResultSet.
func Execute(txn Transaction, node plan.Node) (ResultSet, error) {
	switch node.Kind {
	case plan.KindCreateTable:
		return executeCreateTable(txn, node)
	case plan.KindInsert:
		return executeInsert(txn, node)
	case plan.KindScan:
		return executeScan(txn, node)
	case plan.KindUpdate:
		return executeUpdate(txn, node)
	case plan.KindDelete:
		return executeDelete(txn, node)
	case plan.KindOrder:
		return executeOrder(txn, node)
	case plan.KindLimit:
		return executeLimit(txn, node)
	case plan.KindOffset:
		return executeOffset(txn, node)
	default:
		return ResultSet{}, errs.Internalf("executor: unknown node kind %d", node.Kind)
	}
}

func executeCreateTable(txn Transaction, node plan.Node) (ResultSet, error) {
	if err := txn.CreateTable(node.Schema); err != nil {
		return ResultSet{}, err
	}
	return ResultSet{Kind: ResultCreateTable, TableName: node.Schema.Name}, nil
}

func executeInsert(txn Transaction, node plan.Node) (ResultSet, error) {
	for _, row := range node.Rows {
		if err := txn.CreateRow(node.TableName, row); err != nil {
			return ResultSet{}, err
		}
	}
	return ResultSet{Kind: ResultInsert, Count: int64(len(node.Rows))}, nil
}

func executeScan(txn Transaction, node plan.Node) (ResultSet, error) {
	schema, err := txn.MustGetTable(node.TableName)
	if err != nil {
		return ResultSet{}, err
	}
	rows, err := txn.ScanTable(node.TableName, node.Filter)
	if err != nil {
		return ResultSet{}, err
	}
	return ResultSet{Kind: ResultScan, Columns: schema.Columns, Rows: rows}, nil
}

// executeUpdate scans for matching rows first, then applies UpdateFn and
// writes each back -- matching the original's touch-then-mutate evaluation
// order rather than mutating while iterating a live scan.
func executeUpdate(txn Transaction, node plan.Node) (ResultSet, error) {
	schema, err := txn.MustGetTable(node.TableName)
	if err != nil {
		return ResultSet{}, err
	}
	rows, err := txn.ScanTable(node.TableName, node.Filter)
	if err != nil {
		return ResultSet{}, err
	}

	pkIndex := schema.PrimaryKeyIndex()
	var count int64
	for _, row := range rows {
		oldPK := row[pkIndex]
		newRow, err := node.UpdateFn(row)
		if err != nil {
			return ResultSet{}, err
		}
		if err := txn.UpdateRow(node.TableName, oldPK, newRow); err != nil {
			return ResultSet{}, err
		}
		count++
	}
	return ResultSet{Kind: ResultUpdate, Count: count}, nil
}

func executeDelete(txn Transaction, node plan.Node) (ResultSet, error) {
	schema, err := txn.MustGetTable(node.TableName)
	if err != nil {
		return ResultSet{}, err
	}
	rows, err := txn.ScanTable(node.TableName, node.Filter)
	if err != nil {
		return ResultSet{}, err
	}

	pkIndex := schema.PrimaryKeyIndex()
	var count int64
	for _, row := range rows {
		if err := txn.DeleteRow(node.TableName, row[pkIndex]); err != nil {
			return ResultSet{}, err
		}
		count++
	}
	return ResultSet{Kind: ResultDelete, Count: count}, nil
}

func executeOrder(txn Transaction, node plan.Node) (ResultSet, error) {
	result, err := Execute(txn, *node.Source)
	if err != nil {
		return ResultSet{}, err
	}
	if result.Kind != ResultScan {
		return ResultSet{}, errs.Internalf("executor: ORDER BY over non-scan result")
	}

	colIndex := make([]int, len(node.OrderBy))
	for i, term := range node.OrderBy {
		idx := -1
		for j, c := range result.Columns {
			if c.Name == term.Column {
				idx = j
				break
			}
		}
		if idx < 0 {
			return ResultSet{}, errs.Internalf("no such column %s", term.Column)
		}
		colIndex[i] = idx
	}

	sort.SliceStable(result.Rows, func(a, b int) bool {
		for i, idx := range colIndex {
			cmp := compareValues(result.Rows[a][idx], result.Rows[b][idx])
			if cmp == 0 {
				continue
			}
			if node.OrderBy[i].Direction == 0 {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return result, nil
}

func executeLimit(txn Transaction, node plan.Node) (ResultSet, error) {
	result, err := Execute(txn, *node.Source)
	if err != nil {
		return ResultSet{}, err
	}
	if result.Kind != ResultScan {
		return ResultSet{}, errs.Internalf("executor: LIMIT over non-scan result")
	}
	if node.Count >= 0 && int64(len(result.Rows)) > node.Count {
		result.Rows = result.Rows[:node.Count]
	}
	return result, nil
}

func executeOffset(txn Transaction, node plan.Node) (ResultSet, error) {
	result, err := Execute(txn, *node.Source)
	if err != nil {
		return ResultSet{}, err
	}
	if result.Kind != ResultScan {
		return ResultSet{}, errs.Internalf("executor: OFFSET over non-scan result")
	}
	if node.Count > 0 {
		if int64(len(result.Rows)) <= node.Count {
			result.Rows = nil
		} else {
			result.Rows = result.Rows[node.Count:]
		}
	}
	return result, nil
}

// compareValues orders two Values of the same column: NULL first, then by
// underlying value within a kind.
func compareValues(a, b table.Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return -1
	}
	if b.IsNull() {
		return 1
	}
	switch a.Kind {
	case table.KindBool:
		if a.Bool == b.Bool {
			return 0
		}
		if !a.Bool {
			return -1
		}
		return 1
	case table.KindInt:
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		default:
			return 0
		}
	case table.KindFloat:
		switch {
		case a.Float < b.Float:
			return -1
		case a.Float > b.Float:
			return 1
		default:
			return 0
		}
	case table.KindString:
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}
