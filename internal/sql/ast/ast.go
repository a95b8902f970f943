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

// Package ast is the syntax tree the parser produces: CREATE TABLE, INSERT,
// SELECT, UPDATE, DELETE, and the handful of literal expressions this
// restricted dialect supports.
package ast

import "kvsql/internal/table"

// Statement is the parsed form of one SQL statement.
type Statement interface {
	isStatement()
}

// CreateTable is `CREATE TABLE name (col ...);`.
type CreateTable struct {
	Name    string
	Columns []Column
}

// Column is one column clause inside a CREATE TABLE statement. Nullable is a
// pointer because the clause may omit NULL/NOT NULL entirely, in which case
// the planner derives it from PrimaryKey.
type Column struct {
	Name       string
	DataType   table.DataType
	Nullable   *bool
	Default    Expression
	PrimaryKey bool
}

// Insert is `INSERT INTO name [(columns...)] VALUES (exprs...), ...;`.
type Insert struct {
	TableName string
	Columns   []string // nil when the column list was omitted
	Values    [][]Expression
}

// OrderDirection is ASC (default) or DESC in an ORDER BY clause.
type OrderDirection int

const (
	Asc OrderDirection = iota
	Desc
)

// Select is `SELECT * FROM name [WHERE col = expr] [ORDER BY ...] [LIMIT n] [OFFSET n];`.
type Select struct {
	TableName   string
	WhereColumn string // "" if no WHERE clause
	WhereValue  Expression
	OrderBy     []OrderTerm
	Limit       Expression // nil if absent
	Offset      Expression // nil if absent
}

// OrderTerm is one ORDER BY column and its direction.
type OrderTerm struct {
	Column    string
	Direction OrderDirection
}

// Update is `UPDATE name SET col = expr, ... [WHERE col = expr];`.
type Update struct {
	TableName   string
	Columns     map[string]Expression
	ColumnOrder []string // SET column names in the order they were written
	WhereColumn string
	WhereValue  Expression
}

// Delete is `DELETE FROM name [WHERE col = expr];`.
type Delete struct {
	TableName   string
	WhereColumn string
	WhereValue  Expression
}

func (CreateTable) isStatement() {}
func (Insert) isStatement()      {}
func (Select) isStatement()      {}
func (Update) isStatement()      {}
func (Delete) isStatement()      {}

// Expression is a literal constant. This restricted dialect evaluates
// nothing beyond literals and equality filters (spec §1: "expression
// evaluation beyond equality filters" is out of scope), so Expression is
// just the literal-constant union the original's Consts enum defined.
type Expression interface {
	isExpression()
}

// NullLiteral, BoolLiteral, IntLiteral, FloatLiteral, StringLiteral are the
// only Expression variants this dialect parses.
type (
	NullLiteral   struct{}
	BoolLiteral   bool
	IntLiteral    int64
	FloatLiteral  float64
	StringLiteral string
)

func (NullLiteral) isExpression()   {}
func (BoolLiteral) isExpression()   {}
func (IntLiteral) isExpression()    {}
func (FloatLiteral) isExpression()  {}
func (StringLiteral) isExpression() {}

// Value converts a literal Expression to its table.Value, mirroring the
// original's `impl From<&Expression> for Value`.
func Value(expr Expression) table.Value {
	switch e := expr.(type) {
	case NullLiteral:
		return table.Null
	case BoolLiteral:
		return table.BoolValue(bool(e))
	case IntLiteral:
		return table.IntValue(int64(e))
	case FloatLiteral:
		return table.FloatValue(float64(e))
	case StringLiteral:
		return table.StringValue(string(e))
	default:
		return table.Null
	}
}
