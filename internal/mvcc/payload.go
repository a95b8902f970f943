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

import "kvsql/internal/errs"

// The value stored at a Version(k, v) cell is the serialized form of an
// optional byte string: present means a live write, absent means a
// tombstone. Encoded as a one-byte tag followed by the raw bytes when
// present; unlike keycode.Bytes this payload is never a prefix key, so it
// needs no escaping, just a tag to distinguish "no value" from "empty value".
const (
	payloadTombstone byte = 0
	payloadPresent   byte = 1
)

func encodePayload(value []byte) []byte {
	if value == nil {
		return []byte{payloadTombstone}
	}
	out := make([]byte, 0, 1+len(value))
	out = append(out, payloadPresent)
	out = append(out, value...)
	return out
}

// decodePayload returns (nil, nil) for a tombstone, or the stored bytes.
func decodePayload(encoded []byte) ([]byte, error) {
	if len(encoded) == 0 {
		return nil, errs.Internalf("mvcc: empty version payload")
	}
	switch encoded[0] {
	case payloadTombstone:
		return nil, nil
	case payloadPresent:
		// Non-nil even when empty, so an empty value is not read as a tombstone.
		return append([]byte{}, encoded[1:]...), nil
	default:
		return nil, errs.Internalf("mvcc: invalid version payload tag")
	}
}
