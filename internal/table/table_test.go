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

package table

import (
	"testing"

	"kvsql/internal/errs"
	"kvsql/internal/kvstore"
	"kvsql/internal/mvcc"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	m := mvcc.New(kvstore.NewMemory())
	txn, err := m.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return New(txn)
}

func sampleSchema() Table {
	def := IntValue(0)
	return Table{
		Name: "items",
		Columns: []Column{
			{Name: "id", DataType: Int, PrimaryKey: true},
			{Name: "name", DataType: String, Nullable: true},
			{Name: "qty", DataType: Int, Default: &def},
		},
	}
}

func TestValidateRequiresExactlyOnePrimaryKey(t *testing.T) {
	none := Table{Name: "t", Columns: []Column{{Name: "a", DataType: Int}}}
	if err := none.Validate(); err == nil {
		t.Fatal("expected error with zero primary key columns")
	}

	two := Table{Name: "t", Columns: []Column{
		{Name: "a", DataType: Int, PrimaryKey: true},
		{Name: "b", DataType: Int, PrimaryKey: true},
	}}
	if err := two.Validate(); err == nil {
		t.Fatal("expected error with two primary key columns")
	}
}

func TestValidatePrimaryKeyNotNullable(t *testing.T) {
	tbl := Table{Name: "t", Columns: []Column{{Name: "a", DataType: Int, PrimaryKey: true, Nullable: true}}}
	if err := tbl.Validate(); err == nil {
		t.Fatal("expected error when primary key is nullable")
	}
}

func TestValidateDefaultTypeMustMatchColumn(t *testing.T) {
	bad := StringValue("nope")
	tbl := Table{Name: "t", Columns: []Column{
		{Name: "a", DataType: Int, PrimaryKey: true},
		{Name: "b", DataType: Int, Default: &bad},
	}}
	if err := tbl.Validate(); err == nil {
		t.Fatal("expected error when default type mismatches column type")
	}
}

func TestCreateTableRejectsDuplicateName(t *testing.T) {
	e := newEngine(t)
	if err := e.CreateTable(sampleSchema()); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := e.CreateTable(sampleSchema()); err == nil {
		t.Fatal("expected error creating a table with a name already in use")
	}
}

func TestCreateRowRejectsDuplicatePrimaryKey(t *testing.T) {
	e := newEngine(t)
	if err := e.CreateTable(sampleSchema()); err != nil {
		t.Fatalf("create table: %v", err)
	}

	row := Row{IntValue(1), StringValue("a"), IntValue(5)}
	if err := e.CreateRow("items", row); err != nil {
		t.Fatalf("create row: %v", err)
	}
	if err := e.CreateRow("items", row); err == nil {
		t.Fatal("expected duplicate primary key error")
	}
}

func TestCreateRowRejectsWrongColumnType(t *testing.T) {
	e := newEngine(t)
	if err := e.CreateTable(sampleSchema()); err != nil {
		t.Fatalf("create table: %v", err)
	}
	row := Row{StringValue("wrong-type"), StringValue("a"), IntValue(5)}
	if err := e.CreateRow("items", row); err == nil {
		t.Fatal("expected type error on primary key column")
	}
}

func TestUpdateRowInPlace(t *testing.T) {
	e := newEngine(t)
	if err := e.CreateTable(sampleSchema()); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := e.CreateRow("items", Row{IntValue(1), StringValue("a"), IntValue(5)}); err != nil {
		t.Fatalf("create row: %v", err)
	}

	newRow := Row{IntValue(1), StringValue("b"), IntValue(9)}
	if err := e.UpdateRow("items", IntValue(1), newRow); err != nil {
		t.Fatalf("update row: %v", err)
	}

	rows, err := e.ScanTable("items", nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(rows) != 1 || !rows[0][1].Equal(StringValue("b")) {
		t.Fatalf("unexpected rows after update: %+v", rows)
	}
}

func TestUpdateRowChangingPrimaryKey(t *testing.T) {
	e := newEngine(t)
	if err := e.CreateTable(sampleSchema()); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := e.CreateRow("items", Row{IntValue(1), StringValue("a"), IntValue(5)}); err != nil {
		t.Fatalf("create row: %v", err)
	}

	newRow := Row{IntValue(2), StringValue("a"), IntValue(5)}
	if err := e.UpdateRow("items", IntValue(1), newRow); err != nil {
		t.Fatalf("update row with new pk: %v", err)
	}

	if _, ok, err := lookupRow(e, "items", IntValue(1)); err != nil || ok {
		t.Fatalf("expected old pk gone, ok=%v err=%v", ok, err)
	}
	rows, err := e.ScanTable("items", nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(rows) != 1 || !rows[0][0].Equal(IntValue(2)) {
		t.Fatalf("expected single row with new pk, got %+v", rows)
	}
}

func TestDeleteRow(t *testing.T) {
	e := newEngine(t)
	if err := e.CreateTable(sampleSchema()); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := e.CreateRow("items", Row{IntValue(1), StringValue("a"), IntValue(5)}); err != nil {
		t.Fatalf("create row: %v", err)
	}
	if err := e.DeleteRow("items", IntValue(1)); err != nil {
		t.Fatalf("delete row: %v", err)
	}
	rows, err := e.ScanTable("items", nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows after delete, got %+v", rows)
	}
}

func TestScanTableOrderingAndFilter(t *testing.T) {
	e := newEngine(t)
	if err := e.CreateTable(sampleSchema()); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, id := range []int64{3, 1, 2} {
		row := Row{IntValue(id), StringValue("x"), IntValue(id * 10)}
		if err := e.CreateRow("items", row); err != nil {
			t.Fatalf("create row %d: %v", id, err)
		}
	}

	rows, err := e.ScanTable("items", nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []int64{1, 2, 3} {
		if rows[i][0].Int != want {
			t.Fatalf("row %d = %v, want pk %d", i, rows[i], want)
		}
	}

	filtered, err := e.ScanTable("items", &Filter{Column: "qty", Value: IntValue(20)})
	if err != nil {
		t.Fatalf("filtered scan: %v", err)
	}
	if len(filtered) != 1 || filtered[0][0].Int != 2 {
		t.Fatalf("unexpected filtered result: %+v", filtered)
	}
}

func TestGetTableAbsent(t *testing.T) {
	e := newEngine(t)
	if _, ok, err := e.GetTable("nope"); err != nil || ok {
		t.Fatalf("expected absent table, ok=%v err=%v", ok, err)
	}
	if _, err := e.MustGetTable("nope"); !errs.Is(err, errs.Internal) {
		t.Fatalf("expected Internal error from MustGetTable, got %v", err)
	}
}

func lookupRow(e *Engine, tableName string, pk Value) (Row, bool, error) {
	rows, err := e.ScanTable(tableName, nil)
	if err != nil {
		return nil, false, err
	}
	schema, err := e.MustGetTable(tableName)
	if err != nil {
		return nil, false, err
	}
	pkIndex := schema.PrimaryKeyIndex()
	for _, r := range rows {
		if r[pkIndex].Equal(pk) {
			return r, true, nil
		}
	}
	return nil, false, nil
}
