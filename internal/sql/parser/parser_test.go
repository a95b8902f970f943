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

package parser

import (
	"testing"

	"kvsql/internal/sql/ast"
	"kvsql/internal/table"
)

func TestParseCreateTable(t *testing.T) {
	stmt, err := New("CREATE TABLE t (a INT PRIMARY KEY, b STRING DEFAULT 'vv', c INT DEFAULT 100);").Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ct, ok := stmt.(ast.CreateTable)
	if !ok {
		t.Fatalf("expected CreateTable, got %T", stmt)
	}
	if ct.Name != "t" || len(ct.Columns) != 3 {
		t.Fatalf("unexpected create table: %+v", ct)
	}
	if !ct.Columns[0].PrimaryKey || ct.Columns[0].DataType != table.Int {
		t.Fatalf("unexpected first column: %+v", ct.Columns[0])
	}
	if ct.Columns[1].Default == nil {
		t.Fatalf("expected column b to carry a default")
	}
}

// Whitespace insensitivity, mirroring original_source/src/sql/parser/mod.rs's
// test of the same name.
func TestParseCreateTableWhitespaceInsensitive(t *testing.T) {
	tight := "CREATE TABLE t(a INT PRIMARY KEY);"
	spaced := "  CREATE   TABLE   t  ( a   INT   PRIMARY   KEY )  ;  "

	s1, err := New(tight).Parse()
	if err != nil {
		t.Fatalf("parse tight: %v", err)
	}
	s2, err := New(spaced).Parse()
	if err != nil {
		t.Fatalf("parse spaced: %v", err)
	}
	if s1.(ast.CreateTable).Name != s2.(ast.CreateTable).Name {
		t.Fatalf("whitespace changed parse result: %+v vs %+v", s1, s2)
	}
}

func TestParseMissingSemicolonFails(t *testing.T) {
	_, err := New("CREATE TABLE t (a INT PRIMARY KEY)").Parse()
	if err == nil {
		t.Fatal("expected error for missing semicolon")
	}
}

func TestParseTrailingTokenFails(t *testing.T) {
	_, err := New("CREATE TABLE t (a INT PRIMARY KEY); SELECT").Parse()
	if err == nil {
		t.Fatal("expected error for trailing tokens after the statement")
	}
}

func TestParseInsertWithColumnList(t *testing.T) {
	stmt, err := New("INSERT INTO t (a, b) VALUES (1, 'x'), (2, 'y');").Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ins := stmt.(ast.Insert)
	if ins.TableName != "t" || len(ins.Columns) != 2 || len(ins.Values) != 2 {
		t.Fatalf("unexpected insert: %+v", ins)
	}
}

func TestParseInsertPositional(t *testing.T) {
	stmt, err := New("INSERT INTO t VALUES (1, 'x', 3.5, TRUE, NULL);").Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ins := stmt.(ast.Insert)
	if ins.Columns != nil {
		t.Fatalf("expected no column list, got %v", ins.Columns)
	}
	if len(ins.Values[0]) != 5 {
		t.Fatalf("expected 5 values, got %d", len(ins.Values[0]))
	}
}

func TestParseSelectWhereEquality(t *testing.T) {
	stmt, err := New("SELECT * FROM t WHERE a = 1;").Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sel := stmt.(ast.Select)
	if sel.WhereColumn != "a" {
		t.Fatalf("expected WHERE column a, got %q", sel.WhereColumn)
	}
	if lit, ok := sel.WhereValue.(ast.IntLiteral); !ok || int64(lit) != 1 {
		t.Fatalf("unexpected WHERE value: %+v", sel.WhereValue)
	}
}

func TestParseSelectOrderByLimitOffset(t *testing.T) {
	stmt, err := New("SELECT * FROM t ORDER BY a DESC LIMIT 10 OFFSET 5;").Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sel := stmt.(ast.Select)
	if len(sel.OrderBy) != 1 || sel.OrderBy[0].Column != "a" || sel.OrderBy[0].Direction != ast.Desc {
		t.Fatalf("unexpected order by: %+v", sel.OrderBy)
	}
	if sel.Limit == nil || sel.Offset == nil {
		t.Fatalf("expected limit and offset to be set")
	}
}

func TestParseUpdateDuplicateSetColumnFails(t *testing.T) {
	_, err := New("UPDATE t SET a = 1, a = 2 WHERE a = 1;").Parse()
	if err == nil {
		t.Fatal("expected error for duplicate SET column name")
	}
}

func TestParseUpdate(t *testing.T) {
	stmt, err := New("UPDATE t SET a = 33 WHERE a = 3;").Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	upd := stmt.(ast.Update)
	if upd.TableName != "t" || upd.WhereColumn != "a" {
		t.Fatalf("unexpected update: %+v", upd)
	}
	if _, ok := upd.Columns["a"]; !ok {
		t.Fatalf("expected SET column a present")
	}
}

func TestParseDelete(t *testing.T) {
	stmt, err := New("DELETE FROM t WHERE id = 3;").Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	del := stmt.(ast.Delete)
	if del.TableName != "t" || del.WhereColumn != "id" {
		t.Fatalf("unexpected delete: %+v", del)
	}
}

func TestParseDeleteAllNoWhere(t *testing.T) {
	stmt, err := New("DELETE FROM t;").Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	del := stmt.(ast.Delete)
	if del.WhereColumn != "" {
		t.Fatalf("expected no WHERE clause, got column %q", del.WhereColumn)
	}
}
