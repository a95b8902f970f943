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

package mvcc

import (
	"bytes"
	"math"
	"sort"

	"go.uber.org/zap"

	"kvsql/internal/errs"
)

// visible reports whether version v' is visible to a transaction holding
// version v with active-set active: v' <= v && v' not in active.
func visible(vPrime, v uint64, active map[uint64]struct{}) bool {
	if vPrime > v {
		return false
	}
	_, inActive := active[vPrime]
	return !inActive
}

// Get performs a reverse-scan read: Version(k, 0)..=Version(k, t.version),
// returning the first (highest-version) entry visible to t. A tombstone
// payload yields (nil, false, nil).
func (t *Txn) Get(key []byte) ([]byte, bool, error) {
	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()

	it, err := t.mvcc.store.ScanPrefix(versionPrefix(key))
	if err != nil {
		return nil, false, errs.Internalf("mvcc: get scan: %v", err)
	}

	// Walk from the highest version down (NextBack), returning the first
	// visible one.
	for {
		e, ok := it.NextBack()
		if !ok {
			break
		}
		_, v, err := decodeVersionEntryKey(e.Key)
		if err != nil {
			return nil, false, err
		}
		if !visible(v, t.version, t.active) {
			continue
		}
		value, err := decodePayload(e.Value)
		if err != nil {
			return nil, false, err
		}
		if value == nil {
			return nil, false, nil
		}
		return value, true, nil
	}
	return nil, false, nil
}

// Set writes key=value in this transaction, subject to conflict detection.
func (t *Txn) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()
	return t.writeInnerLocked(key, value, false)
}

// Delete marks key as deleted in this transaction, subject to conflict
// detection.
func (t *Txn) Delete(key []byte) error {
	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()
	return t.writeInnerLocked(key, nil, true)
}

// writeInnerLocked implements the conflict-detection algorithm of spec §4.3:
// scan Version(k, lo)..=Version(k, MAX) where lo = min(active) or
// version+1; if the last entry there is not visible to t, fail with
// WriteConflict. Caller holds mvcc.mu.
func (t *Txn) writeInnerLocked(key, value []byte, tombstone bool) error {
	lo := t.version + 1
	for v := range t.active {
		if v < lo {
			lo = v
		}
	}

	rng := versionRange(key, lo, math.MaxUint64)
	it, err := t.mvcc.store.Scan(rng)
	if err != nil {
		return errs.Internalf("mvcc: write_inner scan: %v", err)
	}
	entries := it.All()
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		_, v, err := decodeVersionEntryKey(last.Key)
		if err != nil {
			return err
		}
		if !visible(v, t.version, t.active) {
			return errs.ErrWriteConflict
		}
	}

	if err := t.mvcc.store.Set(encodeTxnWrite(t.version, key), []byte{}); err != nil {
		return errs.Internalf("mvcc: write txn-write marker: %v", err)
	}

	var payload []byte
	if tombstone {
		payload = encodePayload(nil)
	} else {
		payload = encodePayload(value)
	}
	if err := t.mvcc.store.Set(encodeVersion(key, t.version), payload); err != nil {
		return errs.Internalf("mvcc: write version cell: %v", err)
	}
	return nil
}

// ScanEntry is one live row returned by ScanPrefix: the logical key and its
// visible value.
type ScanEntry struct {
	Key   []byte
	Value []byte
}

// ScanPrefix returns every live (logical_key, value) pair whose logical key
// starts with prefix, visible to t, ascending by logical key. Tombstones
// and non-visible versions are filtered out; only the highest visible
// version per key survives.
func (t *Txn) ScanPrefix(prefix []byte) ([]ScanEntry, error) {
	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()

	encodedPrefix := versionScanPrefix(prefix)
	it, err := t.mvcc.store.ScanPrefix(encodedPrefix)
	if err != nil {
		return nil, errs.Internalf("mvcc: scan_prefix: %v", err)
	}

	type candidate struct {
		version uint64
		payload []byte
	}
	best := make(map[string]candidate)
	var order []string

	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		logicalKey, v, err := decodeVersionEntryKey(e.Key)
		if err != nil {
			return nil, err
		}
		if !visible(v, t.version, t.active) {
			continue
		}
		ks := string(logicalKey)
		cur, seen := best[ks]
		if !seen {
			order = append(order, ks)
		}
		if !seen || v > cur.version {
			best[ks] = candidate{version: v, payload: e.Value}
		}
	}

	var out []ScanEntry
	for _, ks := range order {
		c := best[ks]
		value, err := decodePayload(c.payload)
		if err != nil {
			return nil, err
		}
		if value == nil {
			continue // tombstone
		}
		out = append(out, ScanEntry{Key: []byte(ks), Value: value})
	}
	sortScanPrefixEntries(out)
	return out, nil
}

// Commit deletes every TxnWrite(version, *) marker and the TxnActive(version)
// marker; the Version(*) records this transaction wrote remain and become
// visible to transactions that begin after this point.
func (t *Txn) Commit() error {
	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()
	if t.done {
		return errs.Internalf("mvcc: commit: transaction already finished")
	}

	if err := t.deleteTxnWritesLocked(); err != nil {
		return err
	}
	if err := t.mvcc.store.Delete(encodeTxnActive(t.version)); err != nil {
		return errs.Internalf("mvcc: commit: %v", err)
	}
	t.done = true
	t.mvcc.log.Debug("commit", zap.Uint64("version", t.version))
	return nil
}

// Rollback deletes every Version(k, version) record this transaction wrote,
// then its TxnWrite and TxnActive markers.
func (t *Txn) Rollback() error {
	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()
	if t.done {
		return errs.Internalf("mvcc: rollback: transaction already finished")
	}

	it, err := t.mvcc.store.ScanPrefix(txnWritePrefix(t.version))
	if err != nil {
		return errs.Internalf("mvcc: rollback scan: %v", err)
	}
	for _, e := range it.All() {
		logicalKey, err := decodeTxnWriteKey(e.Key)
		if err != nil {
			return err
		}
		if err := t.mvcc.store.Delete(encodeVersion(logicalKey, t.version)); err != nil {
			return errs.Internalf("mvcc: rollback delete version: %v", err)
		}
		if err := t.mvcc.store.Delete(e.Key); err != nil {
			return errs.Internalf("mvcc: rollback delete txn-write: %v", err)
		}
	}

	if err := t.mvcc.store.Delete(encodeTxnActive(t.version)); err != nil {
		return errs.Internalf("mvcc: rollback: %v", err)
	}
	t.done = true
	t.mvcc.log.Debug("rollback", zap.Uint64("version", t.version))
	return nil
}

// sortScanPrefixEntries orders results ascending by logical key. The
// underlying store iterator is already ascending by encoded key, but
// best/order bookkeeping in ScanPrefix goes through a map keyed by string,
// so the result is re-sorted explicitly rather than relying on map order.
func sortScanPrefixEntries(entries []ScanEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key, entries[j].Key) < 0
	})
}

func (t *Txn) deleteTxnWritesLocked() error {
	it, err := t.mvcc.store.ScanPrefix(txnWritePrefix(t.version))
	if err != nil {
		return errs.Internalf("mvcc: commit scan: %v", err)
	}
	for _, e := range it.All() {
		if err := t.mvcc.store.Delete(e.Key); err != nil {
			return errs.Internalf("mvcc: commit delete txn-write: %v", err)
		}
	}
	return nil
}
