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
	"kvsql/internal/errs"
	"kvsql/internal/mvcc"
)

// Engine is the transactional table layer of spec §4.4, sitting directly on
// one open MVCC transaction. It enforces primary-key uniqueness and column
// typing. It does not fill column defaults: rows must arrive complete (the
// SQL planner fills defaults before rows reach this layer). Everything it
// writes goes through txn, so a
// caller commits or rolls back the Engine's effects by committing or rolling
// back txn.
type Engine struct {
	txn *mvcc.Txn
}

// New wraps an open MVCC transaction in a table Engine.
func New(txn *mvcc.Txn) *Engine {
	return &Engine{txn: txn}
}

// CreateTable validates schema (spec §4.4 rule 1-4) and stores it, failing if
// a table by this name already exists.
func (e *Engine) CreateTable(schema Table) error {
	if _, ok, err := e.GetTable(schema.Name); err != nil {
		return err
	} else if ok {
		return errs.Internalf("table %s already exists", schema.Name)
	}
	if err := schema.Validate(); err != nil {
		return err
	}
	encoded, err := encodeTable(schema)
	if err != nil {
		return err
	}
	if err := e.txn.Set(tableKey(schema.Name), encoded); err != nil {
		return err
	}
	return nil
}

// GetTable fetches a table's schema. ok is false if no such table exists.
func (e *Engine) GetTable(name string) (*Table, bool, error) {
	raw, ok, err := e.txn.Get(tableKey(name))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	schema, err := decodeTable(raw)
	if err != nil {
		return nil, false, err
	}
	return &schema, true, nil
}

// MustGetTable fetches a table's schema, failing with Internal if absent.
func (e *Engine) MustGetTable(name string) (*Table, error) {
	schema, ok, err := e.GetTable(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Internalf("table %s does not exist", name)
	}
	return schema, nil
}

// CreateRow validates row against the table's schema, extracts its primary
// key, and fails with a duplicate-key error if that key is already taken.
func (e *Engine) CreateRow(tableName string, row Row) error {
	schema, err := e.MustGetTable(tableName)
	if err != nil {
		return err
	}
	if err := schema.ValidateRow(row); err != nil {
		return err
	}

	pk := row[schema.PrimaryKeyIndex()]
	key := rowKey(tableName, pk)
	if _, ok, err := e.txn.Get(key); err != nil {
		return err
	} else if ok {
		return errs.Internalf("table %s: duplicate primary key %s", tableName, pk)
	}

	encoded, err := encodeRow(row)
	if err != nil {
		return err
	}
	return e.txn.Set(key, encoded)
}

// UpdateRow replaces the row at oldPK with newRow. If newRow's primary key
// differs from oldPK, the old row is deleted and the new one created fresh
// (subject to the same duplicate-key check as CreateRow); otherwise the
// existing row is overwritten in place.
func (e *Engine) UpdateRow(tableName string, oldPK Value, newRow Row) error {
	schema, err := e.MustGetTable(tableName)
	if err != nil {
		return err
	}
	if err := schema.ValidateRow(newRow); err != nil {
		return err
	}

	newPK := newRow[schema.PrimaryKeyIndex()]
	if !newPK.Equal(oldPK) {
		if err := e.DeleteRow(tableName, oldPK); err != nil {
			return err
		}
		return e.CreateRow(tableName, newRow)
	}

	encoded, err := encodeRow(newRow)
	if err != nil {
		return err
	}
	return e.txn.Set(rowKey(tableName, oldPK), encoded)
}

// DeleteRow removes the row keyed by pk. Deleting an absent row is not an
// error, matching the underlying KvStore's delete semantics (spec §4.1).
func (e *Engine) DeleteRow(tableName string, pk Value) error {
	return e.txn.Delete(rowKey(tableName, pk))
}

// ScanTable returns every live row in tableName, ascending by primary-key
// byte order, optionally narrowed to rows whose named column equals a value.
func (e *Engine) ScanTable(tableName string, filter *Filter) ([]Row, error) {
	schema, err := e.MustGetTable(tableName)
	if err != nil {
		return nil, err
	}

	var filterIndex = -1
	if filter != nil {
		filterIndex = schema.ColumnIndex(filter.Column)
		if filterIndex < 0 {
			return nil, errs.Internalf("table %s: no such column %s", tableName, filter.Column)
		}
	}

	entries, err := e.txn.ScanPrefix(rowPrefix(tableName))
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(entries))
	for _, entry := range entries {
		row, err := decodeRow(entry.Value)
		if err != nil {
			return nil, err
		}
		if filter != nil && !row[filterIndex].Equal(filter.Value) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
