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
	"kvsql/internal/keycode"
	"kvsql/internal/kvstore"
)

// Discriminant order fixes the variants' relative sort order; declared here
// in the order spec.md's worked examples expect.
const (
	discNextVersion byte = iota
	discTxnActive
	discTxnWrite
	discVersion
)

// encodeNextVersion is the singleton counter key: just the discriminant.
func encodeNextVersion() []byte {
	return keycode.NewEncoder().Discriminant(discNextVersion).Encode()
}

// encodeTxnActive marks that version v belongs to an in-flight transaction.
func encodeTxnActive(v uint64) []byte {
	return keycode.NewEncoder().Discriminant(discTxnActive).Uint64(v).Encode()
}

// encodeTxnWrite records that transaction v wrote logical key k.
func encodeTxnWrite(v uint64, k []byte) []byte {
	return keycode.NewEncoder().Discriminant(discTxnWrite).Uint64(v).Bytes(k).Encode()
}

// txnWritePrefix is the prefix covering every TxnWrite(v, *) entry.
func txnWritePrefix(v uint64) []byte {
	return keycode.NewEncoder().Discriminant(discTxnWrite).Uint64(v).Encode()
}

// decodeTxnWriteKey extracts the logical key k from an encoded TxnWrite(v, k).
func decodeTxnWriteKey(encoded []byte) ([]byte, error) {
	d := keycode.NewDecoder(encoded)
	if _, err := d.Discriminant(); err != nil {
		return nil, err
	}
	if _, err := d.Uint64(); err != nil {
		return nil, err
	}
	return d.Bytes()
}

// encodeVersion is the versioned cell for logical key k at version v.
func encodeVersion(k []byte, v uint64) []byte {
	return keycode.NewEncoder().Discriminant(discVersion).Bytes(k).Uint64(v).Encode()
}

// versionPrefix is the prefix covering every Version(k, *) entry for a
// fixed logical key k.
func versionPrefix(k []byte) []byte {
	return keycode.NewEncoder().Discriminant(discVersion).Bytes(k).Encode()
}

// decodeVersionKey extracts the logical key from an encoded Version(k, v).
func decodeVersionKey(encoded []byte) ([]byte, error) {
	d := keycode.NewDecoder(encoded)
	if _, err := d.Discriminant(); err != nil {
		return nil, err
	}
	return d.Bytes()
}

// decodeVersionEntryKey extracts both the logical key and the version from
// an encoded Version(k, v) key, as found on entries returned by scanning the
// store directly (as opposed to a prefix scan that already fixes k).
func decodeVersionEntryKey(encoded []byte) ([]byte, uint64, error) {
	d := keycode.NewDecoder(encoded)
	if _, err := d.Discriminant(); err != nil {
		return nil, 0, err
	}
	logicalKey, err := d.Bytes()
	if err != nil {
		return nil, 0, err
	}
	v, err := d.Uint64()
	if err != nil {
		return nil, 0, err
	}
	return logicalKey, v, nil
}

// versionRange builds the kvstore.Range covering Version(k, lo)..=Version(k, hi),
// used by writeInnerLocked to find the most recent write to k at or after lo.
func versionRange(k []byte, lo, hi uint64) kvstore.Range {
	start := keycode.NewEncoder().Discriminant(discVersion).Bytes(k).Uint64(lo).Encode()
	end := keycode.NewEncoder().Discriminant(discVersion).Bytes(k).Uint64(hi).Encode()
	return kvstore.Range{
		Start: kvstore.IncludedBound(start),
		End:   kvstore.IncludedBound(end),
	}
}

// versionScanPrefix is the encoded prefix covering every Version(k, *) entry
// for every logical key k beginning with prefix.
func versionScanPrefix(prefix []byte) []byte {
	return append([]byte{discVersion}, keycode.EncodeBytesPrefix(prefix)...)
}

// txnActivePrefix covers every TxnActive(*) entry.
func txnActivePrefix() []byte {
	return []byte{discTxnActive}
}

// decoderAfterDiscriminant returns a Decoder positioned just past the
// leading discriminant byte, for callers that already know the variant
// (e.g. iterating a prefix scan of one variant) and only need the fields.
func decoderAfterDiscriminant(encoded []byte) *keycode.Decoder {
	d := keycode.NewDecoder(encoded)
	_, _ = d.Discriminant()
	return d
}

// encodeUint64 / decodeUint64 store a bare uint64 (the NextVersion counter
// value itself, not a structured key) as 8 bytes big-endian.
func encodeUint64(v uint64) []byte {
	return keycode.NewEncoder().Uint64(v).Encode()
}

func decodeUint64(raw []byte) (uint64, error) {
	return keycode.NewDecoder(raw).Uint64()
}
