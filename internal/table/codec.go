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
	"encoding/json"

	"kvsql/internal/errs"
)

// Table metadata and rows are stored as JSON-encoded values, following the
// teacher's internal/batch/codec.go convention of a small JSON envelope
// rather than a hand-rolled binary format -- there is no protobuf schema for
// either shape, and both round-trip cleanly through encoding/json given
// Value's exported, always-present fields.

func encodeTable(t Table) ([]byte, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, errs.Internalf("table: encode schema: %v", err)
	}
	return b, nil
}

func decodeTable(b []byte) (Table, error) {
	var t Table
	if err := json.Unmarshal(b, &t); err != nil {
		return Table{}, errs.Internalf("table: decode schema: %v", err)
	}
	return t, nil
}

func encodeRow(r Row) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, errs.Internalf("table: encode row: %v", err)
	}
	return b, nil
}

func decodeRow(b []byte) (Row, error) {
	var r Row
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, errs.Internalf("table: decode row: %v", err)
	}
	return r, nil
}
