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

// Package bitcask implements the single-file append-log KvStore backend:
// a flat log of length-prefixed records plus an in-memory offset index,
// with crash recovery, caller-initiated compaction, and an exclusive
// advisory file lock.
package bitcask

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"kvsql/internal/errs"
	"kvsql/internal/kvstore"
	"kvsql/pkg/log"
)

// tombstoneLen is the record-format sentinel marking a deleted key: no
// value bytes follow a record whose val_len is this value.
const tombstoneLen uint32 = 0xFFFFFFFF

// headerSize is key_len(4) + val_len(4), little-endian, per record.
const headerSize = 8

// indexEntry locates a logical key's latest live value inside the log file.
type indexEntry struct {
	offset int64 // absolute byte offset of the first value byte
	length uint32
}

// Engine is the append-log backend. One *os.File is held open for both
// appends and reads; all access is serialized by mu, matching the single
// coarse mutex the MVCC layer also assumes at the layer above.
type Engine struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	index map[string]indexEntry
	log   *log.Logger
}

// Open opens (creating if absent) the log file at path, acquires an
// exclusive advisory lock on it, and replays it to rebuild the in-memory
// index. The parent directory is created if missing.
func Open(path string) (*Engine, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.Internalf("bitcask: create dir %s: %v", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errs.Internalf("bitcask: open %s: %v", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, errs.Internalf("bitcask: %s is locked by another process: %v", path, err)
	}

	e := &Engine{
		path:  path,
		file:  f,
		index: make(map[string]indexEntry),
		log:   log.GetLogger().Named("bitcask"),
	}
	if err := e.recover(); err != nil {
		f.Close()
		return nil, err
	}
	e.log.Info("opened log", zap.String("path", path), zap.Int("keys", len(e.index)))
	return e, nil
}

// recover replays the log from offset 0, building the index. A torn tail
// record (partial header or a header promising more bytes than remain) is
// detected via a short read and truncates recovery at the last complete
// record, per spec.
func (e *Engine) recover() error {
	if _, err := e.file.Seek(0, io.SeekStart); err != nil {
		return errs.Internalf("bitcask: seek: %v", err)
	}

	var offset int64
	header := make([]byte, headerSize)
	for {
		n, err := io.ReadFull(e.file, header)
		if err == io.EOF {
			break
		}
		if err != nil || n < headerSize {
			// Torn header: stop, truncate logically at offset.
			break
		}

		keyLen := binary.LittleEndian.Uint32(header[0:4])
		valLen := binary.LittleEndian.Uint32(header[4:8])

		key := make([]byte, keyLen)
		if _, err := io.ReadFull(e.file, key); err != nil {
			break
		}

		valueOffset := offset + headerSize + int64(keyLen)

		if valLen == tombstoneLen {
			delete(e.index, string(key))
			offset = valueOffset
			continue
		}

		if _, err := e.file.Seek(int64(valLen), io.SeekCurrent); err != nil {
			break
		}
		// Confirm the seek didn't run past EOF (a torn value).
		pos, err := e.file.Seek(0, io.SeekCurrent)
		if err != nil {
			break
		}
		if fi, err := e.file.Stat(); err == nil && pos > fi.Size() {
			break
		}

		e.index[string(key)] = indexEntry{offset: valueOffset, length: valLen}
		offset = valueOffset + int64(valLen)
	}

	// Truncate any torn tail so subsequent appends start from a clean point.
	if err := e.file.Truncate(offset); err != nil {
		return errs.Internalf("bitcask: truncate torn tail: %v", err)
	}
	if _, err := e.file.Seek(offset, io.SeekStart); err != nil {
		return errs.Internalf("bitcask: seek to end: %v", err)
	}
	return nil
}

// appendRecord writes one record at the current end of file and returns the
// entry locating its value (length 0/tombstoneLen for a delete).
func (e *Engine) appendRecord(key, value []byte, tombstone bool) (indexEntry, error) {
	end, err := e.file.Seek(0, io.SeekEnd)
	if err != nil {
		return indexEntry{}, errs.Internalf("bitcask: seek end: %v", err)
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(key)))
	valLen := uint32(len(value))
	if tombstone {
		valLen = tombstoneLen
	}
	binary.LittleEndian.PutUint32(header[4:8], valLen)

	if _, err := e.file.Write(header); err != nil {
		return indexEntry{}, errs.Internalf("bitcask: write header: %v", err)
	}
	if _, err := e.file.Write(key); err != nil {
		return indexEntry{}, errs.Internalf("bitcask: write key: %v", err)
	}
	valueOffset := end + headerSize + int64(len(key))
	if !tombstone {
		if _, err := e.file.Write(value); err != nil {
			return indexEntry{}, errs.Internalf("bitcask: write value: %v", err)
		}
	}
	if err := e.file.Sync(); err != nil {
		return indexEntry{}, errs.Internalf("bitcask: flush: %v", err)
	}
	return indexEntry{offset: valueOffset, length: valLen}, nil
}

// Set implements kvstore.KvStore.
func (e *Engine) Set(key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, err := e.appendRecord(key, value, false)
	if err != nil {
		return err
	}
	e.index[string(key)] = ent
	return nil
}

// Get implements kvstore.KvStore.
func (e *Engine) Get(key []byte) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.index[string(key)]
	if !ok {
		return nil, false, nil
	}
	value, err := e.readAt(ent)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (e *Engine) readAt(ent indexEntry) ([]byte, error) {
	value := make([]byte, ent.length)
	if ent.length > 0 {
		if _, err := e.file.ReadAt(value, ent.offset); err != nil {
			return nil, errs.Internalf("bitcask: read value: %v", err)
		}
	}
	return value, nil
}

// Delete implements kvstore.KvStore. Idempotent: deleting an absent key
// appends nothing and is not an error; deleting a live key appends a
// tombstone record.
func (e *Engine) Delete(key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.index[string(key)]; !ok {
		return nil
	}
	if _, err := e.appendRecord(key, nil, true); err != nil {
		return err
	}
	delete(e.index, string(key))
	return nil
}

// Scan implements kvstore.KvStore. Results are read from the file and fully
// materialized before the mutex is released, so the returned Iterator never
// outlives a mutating call on the Engine.
func (e *Engine) Scan(rng kvstore.Range) (*kvstore.Iterator, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := e.sortedLiveKeys()
	var entries []kvstore.Entry
	for _, k := range keys {
		if !rng.Contains([]byte(k)) {
			continue
		}
		ent := e.index[k]
		v, err := e.readAt(ent)
		if err != nil {
			return nil, err
		}
		entries = append(entries, kvstore.Entry{Key: []byte(k), Value: v})
	}
	return kvstore.NewIterator(entries), nil
}

// ScanPrefix implements kvstore.KvStore.
func (e *Engine) ScanPrefix(prefix []byte) (*kvstore.Iterator, error) {
	return e.Scan(kvstore.PrefixRange(prefix))
}

// Close syncs and releases the file (and its advisory lock, released
// implicitly on close).
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Sync(); err != nil {
		return errs.Internalf("bitcask: sync on close: %v", err)
	}
	if err := e.file.Close(); err != nil {
		return errs.Internalf("bitcask: close: %v", err)
	}
	return nil
}

// Compact opens a sibling file, writes every currently live key-value pair
// as a fresh record, renames it over the original, and rebuilds the index
// to point into the new file. Caller-initiated; there is no background
// compactor.
func (e *Engine) Compact() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tmpPath := e.path + ".compact"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return errs.Internalf("bitcask: create compaction file: %v", err)
	}

	keys := e.sortedLiveKeys()
	newIndex := make(map[string]indexEntry, len(keys))
	var offset int64
	for _, k := range keys {
		ent := e.index[k]
		v, err := e.readAt(ent)
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}

		header := make([]byte, headerSize)
		binary.LittleEndian.PutUint32(header[0:4], uint32(len(k)))
		binary.LittleEndian.PutUint32(header[4:8], uint32(len(v)))
		if _, err := tmp.Write(header); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return errs.Internalf("bitcask: write compaction header: %v", err)
		}
		if _, err := tmp.Write([]byte(k)); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return errs.Internalf("bitcask: write compaction key: %v", err)
		}
		valueOffset := offset + headerSize + int64(len(k))
		if len(v) > 0 {
			if _, err := tmp.Write(v); err != nil {
				tmp.Close()
				os.Remove(tmpPath)
				return errs.Internalf("bitcask: write compaction value: %v", err)
			}
		}
		newIndex[k] = indexEntry{offset: valueOffset, length: uint32(len(v))}
		offset = valueOffset + int64(len(v))
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Internalf("bitcask: sync compaction file: %v", err)
	}

	if err := unix.Flock(int(tmp.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Internalf("bitcask: lock compaction file: %v", err)
	}

	if err := os.Rename(tmpPath, e.path); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Internalf("bitcask: rename compaction file: %v", err)
	}

	old := e.file
	e.file = tmp
	e.index = newIndex
	old.Close() // old fd's lock is released on close; the rename already swapped the path.

	e.log.Info("compacted log", zap.String("path", e.path), zap.Int("keys", len(e.index)))
	return nil
}

// sortedLiveKeys returns the live keys in the index in ascending byte order.
func (e *Engine) sortedLiveKeys() []string {
	keys := make([]string, 0, len(e.index))
	for k := range e.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
