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

package bitcask

import (
	"os"
	"path/filepath"
	"testing"

	"kvsql/internal/kvstore"
)

func TestSetGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.log")
	e, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer e.Close()

	if err := e.Set([]byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := e.Get([]byte("k1"))
	if err != nil || !ok || string(v) != "v1" {
		t.Fatalf("get k1 = %q, %v, %v", v, ok, err)
	}

	if err := e.Delete([]byte("k1")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := e.Get([]byte("k1")); err != nil || ok {
		t.Fatalf("expected k1 absent after delete, ok=%v err=%v", ok, err)
	}
}

func TestReopenRecoversIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.log")
	e, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := e.Set([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := e.Set([]byte("b"), []byte("2")); err != nil {
		t.Fatalf("set b: %v", err)
	}
	if err := e.Delete([]byte("a")); err != nil {
		t.Fatalf("delete a: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	e2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer e2.Close()

	if _, ok, err := e2.Get([]byte("a")); err != nil || ok {
		t.Fatalf("expected a absent after reopen, ok=%v err=%v", ok, err)
	}
	v, ok, err := e2.Get([]byte("b"))
	if err != nil || !ok || string(v) != "2" {
		t.Fatalf("get b after reopen = %q, %v, %v", v, ok, err)
	}
}

func TestTornTailTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.log")
	e, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := e.Set([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := e.Set([]byte("b"), []byte("2")); err != nil {
		t.Fatalf("set b: %v", err)
	}
	fullSize, err := e.file.Seek(0, 2)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Simulate a crash mid-append: truncate off the last few bytes of the
	// second record so its key and value are torn.
	if err := os.Truncate(path, fullSize-2); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	e2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen after torn tail: %v", err)
	}
	defer e2.Close()

	v, ok, err := e2.Get([]byte("a"))
	if err != nil || !ok || string(v) != "1" {
		t.Fatalf("expected a=1 to survive torn tail, got %q %v %v", v, ok, err)
	}
	if _, ok, err := e2.Get([]byte("b")); err != nil || ok {
		t.Fatalf("expected torn record b to be dropped, ok=%v err=%v", ok, err)
	}

	// The engine must still be writable after recovery truncated the file.
	if err := e2.Set([]byte("c"), []byte("3")); err != nil {
		t.Fatalf("set after recovery: %v", err)
	}
}

func TestScanPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.log")
	e, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer e.Close()

	for _, k := range []string{"row/2", "row/1", "other", "row/3"} {
		if err := e.Set([]byte(k), []byte(k)); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	it, err := e.ScanPrefix([]byte("row/"))
	if err != nil {
		t.Fatalf("scan prefix: %v", err)
	}
	entries := it.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"row/1", "row/2", "row/3"}
	for i, e := range entries {
		if string(e.Key) != want[i] {
			t.Fatalf("entry %d = %s, want %s", i, e.Key, want[i])
		}
	}
}

func TestCompactPreservesLiveData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.log")
	e, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer e.Close()

	if err := e.Set([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := e.Set([]byte("a"), []byte("2")); err != nil {
		t.Fatalf("overwrite a: %v", err)
	}
	if err := e.Set([]byte("b"), []byte("3")); err != nil {
		t.Fatalf("set b: %v", err)
	}
	if err := e.Delete([]byte("b")); err != nil {
		t.Fatalf("delete b: %v", err)
	}

	if err := e.Compact(); err != nil {
		t.Fatalf("compact: %v", err)
	}

	v, ok, err := e.Get([]byte("a"))
	if err != nil || !ok || string(v) != "2" {
		t.Fatalf("get a after compact = %q, %v, %v", v, ok, err)
	}
	if _, ok, err := e.Get([]byte("b")); err != nil || ok {
		t.Fatalf("expected b absent after compact, ok=%v err=%v", ok, err)
	}

	if err := e.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	e2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen after compact: %v", err)
	}
	defer e2.Close()
	v2, ok, err := e2.Get([]byte("a"))
	if err != nil || !ok || string(v2) != "2" {
		t.Fatalf("get a after reopen = %q, %v, %v", v2, ok, err)
	}
}

func TestSecondOpenFailsWhileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.log")
	e, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer e.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("expected second concurrent Open to fail on the advisory lock")
	}
}

func TestRangeScanHalfOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.log")
	e, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer e.Close()

	for _, k := range []string{"a", "b", "c", "d"} {
		if err := e.Set([]byte(k), []byte(k)); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	rng := kvstore.Range{Start: kvstore.IncludedBound([]byte("b")), End: kvstore.ExcludedBound([]byte("d"))}
	it, err := e.Scan(rng)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	entries := it.All()
	if len(entries) != 2 || string(entries[0].Key) != "b" || string(entries[1].Key) != "c" {
		t.Fatalf("unexpected range scan result: %+v", entries)
	}
}
