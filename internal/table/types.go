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

// Package table implements the transactional table layer of spec §4.4: table
// metadata, row storage keyed by primary key, schema validation, and
// defaults. It sits directly on an *mvcc.Txn and knows nothing about SQL.
package table

import "fmt"

// DataType is one of the four scalar column types a table may declare.
type DataType int

const (
	Bool DataType = iota
	Int
	Float
	String
)

func (d DataType) String() string {
	switch d {
	case Bool:
		return "BOOLEAN"
	case Int:
		return "INTEGER"
	case Float:
		return "FLOAT"
	case String:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// ValueKind tags which field of Value holds the value (or whether it's NULL).
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

// Value is a tagged union over the four scalar datatypes plus NULL, mirroring
// the SQL layer's row cells. Zero value is Null.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

// Null is the NULL value.
var Null = Value{Kind: KindNull}

// BoolValue, IntValue, FloatValue, StringValue build a Value of the matching kind.
func BoolValue(b bool) Value    { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value    { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// DataType returns the DataType this value's Kind corresponds to, and false
// for NULL (which carries no datatype of its own).
func (v Value) DataType() (DataType, bool) {
	switch v.Kind {
	case KindBool:
		return Bool, true
	case KindInt:
		return Int, true
	case KindFloat:
		return Float, true
	case KindString:
		return String, true
	default:
		return 0, false
	}
}

// Equal reports whether v and other are the same kind and carry the same value.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return v.Float == other.Float
	case KindString:
		return v.Str == other.Str
	default:
		return false
	}
}

// String renders v the way the SQL layer echoes it back (strings unquoted,
// TRUE/FALSE, NULL).
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%v", v.Float)
	case KindString:
		return v.Str
	default:
		return ""
	}
}

// Row is one table row: one Value per column, in column declaration order.
type Row []Value

// Column describes one column of a Table.
type Column struct {
	Name       string
	DataType   DataType
	Nullable   bool
	Default    *Value
	PrimaryKey bool
}

// Table is a table's schema: its name and ordered columns.
type Table struct {
	Name    string
	Columns []Column
}

// PrimaryKeyIndex returns the position of the single primary-key column.
// Validate must have already confirmed exactly one exists.
func (t Table) PrimaryKeyIndex() int {
	for i, c := range t.Columns {
		if c.PrimaryKey {
			return i
		}
	}
	return -1
}

// ColumnIndex returns the position of the column named name, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Filter narrows ScanTable to rows whose column at Column equals Value.
type Filter struct {
	Column string
	Value  Value
}
