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

import "kvsql/internal/errs"

// Validate enforces spec §4.4's schema-creation rules: non-empty columns,
// exactly one primary key, the primary key is not nullable, and every
// column's default (if any) matches its datatype or is Null on a nullable
// column.
func (t Table) Validate() error {
	if len(t.Columns) == 0 {
		return errs.Internalf("table %s: must have at least one column", t.Name)
	}

	pkCount := 0
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pkCount++
		}
	}
	if pkCount != 1 {
		return errs.Internalf("table %s: must have exactly one primary key column, got %d", t.Name, pkCount)
	}

	for _, c := range t.Columns {
		if c.PrimaryKey && c.Nullable {
			return errs.Internalf("table %s: primary key column %s cannot be nullable", t.Name, c.Name)
		}
		if c.Default == nil {
			continue
		}
		if c.Default.IsNull() {
			if !c.Nullable {
				return errs.Internalf("table %s: column %s has a NULL default but is not nullable", t.Name, c.Name)
			}
			continue
		}
		dt, _ := c.Default.DataType()
		if dt != c.DataType {
			return errs.Internalf("table %s: column %s default has type %s, expected %s", t.Name, c.Name, dt, c.DataType)
		}
	}
	return nil
}

// ValidateRow enforces spec §4.4's row rules: the row has exactly one value
// per column, and each value's datatype matches its column (or is NULL and
// the column is nullable).
func (t Table) ValidateRow(row Row) error {
	if len(row) != len(t.Columns) {
		return errs.Internalf("table %s: expected %d values, got %d", t.Name, len(t.Columns), len(row))
	}
	for i, c := range t.Columns {
		v := row[i]
		if v.IsNull() {
			if !c.Nullable {
				return errs.Internalf("table %s: column %s expects %s, got NULL", t.Name, c.Name, c.DataType)
			}
			continue
		}
		dt, _ := v.DataType()
		if dt != c.DataType {
			return errs.Internalf("table %s: column %s expects %s, got %s", t.Name, c.Name, c.DataType, dt)
		}
	}
	return nil
}
