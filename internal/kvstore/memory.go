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

package kvstore

import (
	"bytes"

	"github.com/google/btree"
)

// item is the btree.Item stored in Memory's tree: a key-value pair ordered
// by Key alone, matching the KeyItem convention the teacher uses for its
// revision index.
type item struct {
	key   []byte
	value []byte
}

func (a item) Less(than btree.Item) bool {
	return bytes.Compare(a.key, than.(item).key) < 0
}

// Memory is an in-memory KvStore backed by an ordered google/btree.BTree.
// No persistence. Not safe for concurrent use without an external lock; the
// MVCC layer above it supplies that lock.
type Memory struct {
	tree *btree.BTree
}

// NewMemory returns an empty in-memory store. Degree 32 matches the
// teacher's internal/mvcc/key_index.go btree sizing.
func NewMemory() *Memory {
	return &Memory{tree: btree.New(32)}
}

func (m *Memory) Set(key, value []byte) error {
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	m.tree.ReplaceOrInsert(item{key: k, value: v})
	return nil
}

func (m *Memory) Get(key []byte) ([]byte, bool, error) {
	found := m.tree.Get(item{key: key})
	if found == nil {
		return nil, false, nil
	}
	it := found.(item)
	return it.value, true, nil
}

func (m *Memory) Delete(key []byte) error {
	m.tree.Delete(item{key: key})
	return nil
}

func (m *Memory) Scan(rng Range) (*Iterator, error) {
	var entries []Entry

	// Start from the first key >= Start.Key (or the very first key when
	// Start is unbounded), then stop as soon as we walk past End. contains
	// re-checks Start too, which is cheap and keeps this branch-free.
	visit := func(i btree.Item) bool {
		it := i.(item)
		switch rng.End.Kind {
		case Included:
			if bytes.Compare(it.key, rng.End.Key) > 0 {
				return false
			}
		case Excluded:
			if bytes.Compare(it.key, rng.End.Key) >= 0 {
				return false
			}
		}
		if rng.contains(it.key) {
			entries = append(entries, Entry{Key: it.key, Value: it.value})
		}
		return true
	}

	if rng.Start.Kind == Unbounded {
		m.tree.Ascend(visit)
	} else {
		m.tree.AscendGreaterOrEqual(item{key: rng.Start.Key}, visit)
	}
	return NewIterator(entries), nil
}

func (m *Memory) ScanPrefix(prefix []byte) (*Iterator, error) {
	return m.Scan(scanPrefixRange(prefix))
}

func (m *Memory) Close() error {
	return nil
}
