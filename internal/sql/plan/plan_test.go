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

package plan

import (
	"testing"

	"kvsql/internal/errs"
	"kvsql/internal/sql/ast"
	"kvsql/internal/table"
)

func noLookup(name string) (*table.Table, error) {
	return nil, errs.Internalf("table %s does not exist", name)
}

func TestBuildCreateTableDerivesNullable(t *testing.T) {
	p := New(noLookup)
	stmt := ast.CreateTable{
		Name: "t",
		Columns: []ast.Column{
			{Name: "id", DataType: table.Int, PrimaryKey: true},
			{Name: "note", DataType: table.String},
		},
	}

	plan, err := p.Build(stmt)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cols := plan.Root.Schema.Columns
	if cols[0].Nullable {
		t.Fatalf("expected primary key column to default to non-nullable, got %+v", cols[0])
	}
	if !cols[1].Nullable {
		t.Fatalf("expected non-primary-key column to default to nullable, got %+v", cols[1])
	}
	if cols[1].Default == nil || !cols[1].Default.IsNull() {
		t.Fatalf("expected an unspecified nullable column to default to NULL, got %+v", cols[1].Default)
	}
}

func TestBuildCreateTableExplicitNotNull(t *testing.T) {
	p := New(noLookup)
	notNull := false
	stmt := ast.CreateTable{
		Name: "t",
		Columns: []ast.Column{
			{Name: "id", DataType: table.Int, PrimaryKey: true},
			{Name: "note", DataType: table.String, Nullable: &notNull},
		},
	}
	plan, err := p.Build(stmt)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if plan.Root.Schema.Columns[1].Nullable {
		t.Fatalf("expected explicit NOT NULL to be honored")
	}
	if plan.Root.Schema.Columns[1].Default != nil {
		t.Fatalf("expected no default for a NOT NULL column with none specified")
	}
}

func TestBuildInsertFillsDefaultsAndFailsWithoutOne(t *testing.T) {
	null := table.Null
	schema := &table.Table{
		Name: "t",
		Columns: []table.Column{
			{Name: "id", DataType: table.Int, PrimaryKey: true},
			{Name: "note", DataType: table.String, Nullable: true, Default: &null},
		},
	}
	lookup := func(name string) (*table.Table, error) { return schema, nil }
	p := New(lookup)

	stmt := ast.Insert{TableName: "t", Columns: []string{"id"}, Values: [][]ast.Expression{{ast.IntLiteral(1)}}}
	plan, err := p.Build(stmt)
	if err != nil {
		t.Fatalf("build with nullable default: %v", err)
	}
	if !plan.Root.Rows[0][1].IsNull() {
		t.Fatalf("expected note to fill from its NULL default, got %+v", plan.Root.Rows[0][1])
	}

	schema.Columns[1].Nullable = false
	schema.Columns[1].Default = nil
	if _, err := p.Build(stmt); err == nil {
		t.Fatal("expected build error when an unmentioned column has no default")
	}
}
