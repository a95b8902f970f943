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

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kvsql/internal/kvstore"
	"kvsql/internal/mvcc"
	"kvsql/internal/sql/executor"
	"kvsql/internal/table"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	m := mvcc.New(kvstore.NewMemory())
	return NewSession(New(m))
}

// TestScenarioF is spec Scenario F end to end: CREATE TABLE with defaults,
// inserts, an UPDATE that changes the primary key, and DELETE with and
// without a WHERE clause.
func TestScenarioF(t *testing.T) {
	s := newSession(t)

	_, err := s.Execute("CREATE TABLE t (a INT PRIMARY KEY, b STRING DEFAULT 'vv', c INT DEFAULT 100);")
	require.NoError(t, err)

	_, err = s.Execute("INSERT INTO t VALUES (1, 'x', 10);")
	require.NoError(t, err)
	_, err = s.Execute("INSERT INTO t (a) VALUES (2);")
	require.NoError(t, err)
	_, err = s.Execute("INSERT INTO t VALUES (3, 'z', 30);")
	require.NoError(t, err)

	result, err := s.Execute("SELECT * FROM t;")
	require.NoError(t, err)
	require.Equal(t, executor.ResultScan, result.Kind)
	require.Len(t, result.Rows, 3)

	// Row 2 took its defaults for b and c.
	row2 := findRow(t, result, 2)
	require.Equal(t, "vv", row2[1].Str)
	require.Equal(t, int64(100), row2[2].Int)

	updateResult, err := s.Execute("UPDATE t SET a = 33 WHERE a = 3;")
	require.NoError(t, err)
	require.Equal(t, int64(1), updateResult.Count)

	result, err = s.Execute("SELECT * FROM t;")
	require.NoError(t, err)
	ids := rowPKs(result)
	require.ElementsMatch(t, []int64{1, 2, 33}, ids)

	_, err = s.Execute("CREATE TABLE employees (id INT PRIMARY KEY, name STRING);")
	require.NoError(t, err)
	for i := int64(1); i <= 5; i++ {
		_, err = s.Execute("INSERT INTO employees VALUES (" + itoa(i) + ", 'n');")
		require.NoError(t, err)
	}

	deleteResult, err := s.Execute("DELETE FROM employees WHERE id = 3;")
	require.NoError(t, err)
	require.Equal(t, int64(1), deleteResult.Count)

	result, err = s.Execute("SELECT * FROM employees;")
	require.NoError(t, err)
	require.Len(t, result.Rows, 4)

	deleteAll, err := s.Execute("DELETE FROM employees;")
	require.NoError(t, err)
	require.Equal(t, int64(4), deleteAll.Count)

	result, err = s.Execute("SELECT * FROM employees;")
	require.NoError(t, err)
	require.Empty(t, result.Rows)
}

func TestInsertMissingDefaultFails(t *testing.T) {
	s := newSession(t)
	_, err := s.Execute("CREATE TABLE t (a INT PRIMARY KEY, b STRING NOT NULL);")
	require.NoError(t, err)

	_, err = s.Execute("INSERT INTO t (a) VALUES (1);")
	require.Error(t, err)

	// The failed statement's transaction must have rolled back cleanly: the
	// table itself is untouched and a later, fully-specified insert works.
	_, err = s.Execute("INSERT INTO t VALUES (1, 'ok');")
	require.NoError(t, err)
}

func TestDuplicatePrimaryKeyRollsBack(t *testing.T) {
	s := newSession(t)
	_, err := s.Execute("CREATE TABLE t (a INT PRIMARY KEY);")
	require.NoError(t, err)
	_, err = s.Execute("INSERT INTO t VALUES (1);")
	require.NoError(t, err)

	_, err = s.Execute("INSERT INTO t VALUES (1);")
	require.Error(t, err)

	result, err := s.Execute("SELECT * FROM t;")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
}

func TestSelectWhereEquality(t *testing.T) {
	s := newSession(t)
	_, err := s.Execute("CREATE TABLE t (a INT PRIMARY KEY, b STRING);")
	require.NoError(t, err)
	_, err = s.Execute("INSERT INTO t VALUES (1, 'x'), (2, 'y');")
	require.NoError(t, err)

	result, err := s.Execute("SELECT * FROM t WHERE b = 'y';")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.Equal(t, int64(2), result.Rows[0][0].Int)
}

func findRow(t *testing.T, result executor.ResultSet, pk int64) table.Row {
	t.Helper()
	for _, r := range result.Rows {
		if r[0].Int == pk {
			return r
		}
	}
	t.Fatalf("no row with pk %d", pk)
	return nil
}

func rowPKs(result executor.ResultSet) []int64 {
	out := make([]int64, len(result.Rows))
	for i, r := range result.Rows {
		out[i] = r[0].Int
	}
	return out
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}
