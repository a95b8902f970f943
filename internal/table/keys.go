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
	"math"

	"kvsql/internal/keycode"
)

// The table layer's own pair of logical-key variants, encoded with the same
// order-preserving codec the MVCC layer uses for its keys (spec §4.2): a
// discriminant byte, then fields in declaration order. These are the
// "logical keys" passed down into mvcc.Txn.Get/Set/ScanPrefix -- one more
// layer of structured keys above the MVCC Version(k, v) cells.
const (
	discTable byte = iota
	discRow
)

// tableKey is the logical key for a table's metadata record.
func tableKey(name string) []byte {
	return keycode.NewEncoder().Discriminant(discTable).Bytes([]byte(name)).Encode()
}

// rowKey is the logical key for one row, keyed by its primary-key value.
func rowKey(tableName string, pk Value) []byte {
	return keycode.NewEncoder().Discriminant(discRow).Bytes([]byte(tableName)).Bytes(encodeValueKey(pk)).Encode()
}

// rowPrefix covers every Row(tableName, *) entry.
func rowPrefix(tableName string) []byte {
	return keycode.NewEncoder().Discriminant(discRow).Bytes([]byte(tableName)).Encode()
}

// valueKey tags, used only inside encodeValueKey to
// disambiguate a primary key's scalar type within its byte encoding.
const (
	vkBool byte = iota
	vkInt
	vkFloat
	vkString
)

// encodeValueKey renders a primary-key Value as an order-preserving byte
// string: a one-byte type tag, then the value itself encoded so that byte
// order matches the value's natural order (sign-flipped two's-complement for
// Int, sign/mantissa-flipped IEEE-754 for Float, keycode's escaped-and-
// terminated encoding for String). NULL and Bool primary keys are legal per
// the table layer's type system even though spec §4.4 requires a primary key
// column to be non-nullable, so a NULL primary key can never actually reach
// this function in practice.
func encodeValueKey(v Value) []byte {
	switch v.Kind {
	case KindBool:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		return append([]byte{vkBool}, b)
	case KindInt:
		return append([]byte{vkInt}, keycode.NewEncoder().Uint64(uint64(v.Int)^0x8000000000000000).Encode()...)
	case KindFloat:
		return append([]byte{vkFloat}, keycode.NewEncoder().Uint64(floatOrderedBits(v.Float)).Encode()...)
	case KindString:
		return append([]byte{vkString}, keycode.EncodeBytes([]byte(v.Str))...)
	default:
		return []byte{vkString}
	}
}

// floatOrderedBits maps an IEEE-754 float64's bits to a uint64 whose
// unsigned ordering matches the float's numeric ordering: for non-negative
// floats, flip the sign bit; for negative floats, flip every bit.
func floatOrderedBits(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&0x8000000000000000 != 0 {
		return ^bits
	}
	return bits | 0x8000000000000000
}
