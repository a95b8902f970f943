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

// Package plan turns an ast.Statement into a Node tree ready for execution,
// grounded on original_source/src/sql/plan/mod.rs and planner.rs. The Order,
// Limit, and Offset wrapper nodes are carried over from planner.rs even
// though none of this dialect's worked scenarios exercise them, since the
// parser already accepts the clauses that produce them.
package plan

import (
	"kvsql/internal/errs"
	"kvsql/internal/sql/ast"
	"kvsql/internal/table"
)

// Node is one node of a query plan. Scan, Order, Limit, and Offset nest:
// Limit/Offset/Order wrap an inner Node the way Iterator adapters do.
type Node struct {
	Kind Kind

	// CreateTable
	Schema table.Table

	// Insert
	TableName string
	Rows      []table.Row

	// Scan / Update / Delete
	Filter *table.Filter

	// Update
	UpdateFn func(table.Row) (table.Row, error)

	// Order / Limit / Offset wrap Source
	Source  *Node
	OrderBy []OrderTerm
	Count   int64
}

// Kind discriminates Node's variant.
type Kind int

const (
	KindCreateTable Kind = iota
	KindInsert
	KindScan
	KindUpdate
	KindDelete
	KindOrder
	KindLimit
	KindOffset
)

// OrderTerm is one ORDER BY column and its direction, carried from ast.OrderTerm.
type OrderTerm struct {
	Column    string
	Direction ast.OrderDirection
}

// Plan wraps the root Node of a built plan.
type Plan struct {
	Root Node
}

// Planner builds plans against a fixed table-schema lookup, needed to resolve
// column defaults and positional INSERT values.
type Planner struct {
	lookup func(name string) (*table.Table, error)
}

// New builds a Planner that resolves table schemas via lookup.
func New(lookup func(name string) (*table.Table, error)) *Planner {
	return &Planner{lookup: lookup}
}

// Build converts stmt into a Plan.
func (p *Planner) Build(stmt ast.Statement) (Plan, error) {
	node, err := p.buildStatement(stmt)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Root: node}, nil
}

func (p *Planner) buildStatement(stmt ast.Statement) (Node, error) {
	switch s := stmt.(type) {
	case ast.CreateTable:
		return p.buildCreateTable(s)
	case ast.Insert:
		return p.buildInsert(s)
	case ast.Select:
		return p.buildSelect(s)
	case ast.Update:
		return p.buildUpdate(s)
	case ast.Delete:
		return p.buildDelete(s)
	default:
		return Node{}, errs.Internalf("plan: unknown statement type %T", stmt)
	}
}

// buildCreateTable mirrors planner.rs's column derivation: nullable defaults
// to the negation of primary_key when unspecified, and an unspecified,
// nullable column defaults to NULL.
func (p *Planner) buildCreateTable(s ast.CreateTable) (Node, error) {
	columns := make([]table.Column, len(s.Columns))
	for i, c := range s.Columns {
		nullable := !c.PrimaryKey
		if c.Nullable != nil {
			nullable = *c.Nullable
		}

		col := table.Column{
			Name:       c.Name,
			DataType:   c.DataType,
			Nullable:   nullable,
			PrimaryKey: c.PrimaryKey,
		}

		if c.Default != nil {
			v := ast.Value(c.Default)
			col.Default = &v
		} else if nullable {
			v := table.Null
			col.Default = &v
		}

		columns[i] = col
	}
	return Node{Kind: KindCreateTable, Schema: table.Table{Name: s.Name, Columns: columns}}, nil
}

// buildInsert resolves each VALUES row to full column order, filling
// unmentioned columns from their schema default and failing if an unmentioned
// column is missing a default to fall back on (spec §4.4's Insert rule).
func (p *Planner) buildInsert(s ast.Insert) (Node, error) {
	schema, err := p.lookup(s.TableName)
	if err != nil {
		return Node{}, err
	}

	var colIndex []int
	if s.Columns != nil {
		colIndex = make([]int, len(s.Columns))
		for i, name := range s.Columns {
			idx := schema.ColumnIndex(name)
			if idx < 0 {
				return Node{}, errs.Internalf("table %s: no such column %s", s.TableName, name)
			}
			colIndex[i] = idx
		}
	}

	rows := make([]table.Row, 0, len(s.Values))
	for _, values := range s.Values {
		row, err := p.buildInsertRow(*schema, colIndex, values)
		if err != nil {
			return Node{}, err
		}
		rows = append(rows, row)
	}

	return Node{Kind: KindInsert, TableName: s.TableName, Rows: rows}, nil
}

func (p *Planner) buildInsertRow(schema table.Table, colIndex []int, values []ast.Expression) (table.Row, error) {
	row := make(table.Row, len(schema.Columns))
	filled := make([]bool, len(schema.Columns))

	if colIndex == nil {
		if len(values) > len(schema.Columns) {
			return nil, errs.Internalf("table %s: expected at most %d values, got %d", schema.Name, len(schema.Columns), len(values))
		}
		for i, expr := range values {
			row[i] = ast.Value(expr)
			filled[i] = true
		}
	} else {
		if len(values) != len(colIndex) {
			return nil, errs.Internalf("table %s: column list and VALUES length mismatch", schema.Name)
		}
		for i, expr := range values {
			idx := colIndex[i]
			row[idx] = ast.Value(expr)
			filled[idx] = true
		}
	}

	for i, c := range schema.Columns {
		if filled[i] {
			continue
		}
		if c.Default == nil {
			return nil, errs.Internalf("table %s: column %s has no default and was not given a value", schema.Name, c.Name)
		}
		row[i] = *c.Default
	}
	return row, nil
}

func (p *Planner) buildSelect(s ast.Select) (Node, error) {
	node := Node{Kind: KindScan, TableName: s.TableName}
	if s.WhereColumn != "" {
		node.Filter = &table.Filter{Column: s.WhereColumn, Value: ast.Value(s.WhereValue)}
	}

	var root = node
	if len(s.OrderBy) > 0 {
		terms := make([]OrderTerm, len(s.OrderBy))
		for i, t := range s.OrderBy {
			terms[i] = OrderTerm{Column: t.Column, Direction: t.Direction}
		}
		inner := root
		root = Node{Kind: KindOrder, Source: &inner, OrderBy: terms}
	}
	if s.Offset != nil {
		inner := root
		root = Node{Kind: KindOffset, Source: &inner, Count: ast.Value(s.Offset).Int}
	}
	if s.Limit != nil {
		inner := root
		root = Node{Kind: KindLimit, Source: &inner, Count: ast.Value(s.Limit).Int}
	}
	return root, nil
}

func (p *Planner) buildUpdate(s ast.Update) (Node, error) {
	schema, err := p.lookup(s.TableName)
	if err != nil {
		return Node{}, err
	}

	colIndex := make(map[int]ast.Expression, len(s.ColumnOrder))
	for _, name := range s.ColumnOrder {
		idx := schema.ColumnIndex(name)
		if idx < 0 {
			return Node{}, errs.Internalf("table %s: no such column %s", s.TableName, name)
		}
		colIndex[idx] = s.Columns[name]
	}

	node := Node{
		Kind:      KindUpdate,
		TableName: s.TableName,
		UpdateFn: func(row table.Row) (table.Row, error) {
			out := make(table.Row, len(row))
			copy(out, row)
			for idx, expr := range colIndex {
				out[idx] = ast.Value(expr)
			}
			return out, nil
		},
	}
	if s.WhereColumn != "" {
		node.Filter = &table.Filter{Column: s.WhereColumn, Value: ast.Value(s.WhereValue)}
	}
	return node, nil
}

func (p *Planner) buildDelete(s ast.Delete) (Node, error) {
	node := Node{Kind: KindDelete, TableName: s.TableName}
	if s.WhereColumn != "" {
		node.Filter = &table.Filter{Column: s.WhereColumn, Value: ast.Value(s.WhereValue)}
	}
	return node, nil
}
