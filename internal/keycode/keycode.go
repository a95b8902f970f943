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

// Package keycode implements the order-preserving byte codec that encodes
// structured keys so that byte order matches the variant's natural order,
// and within a variant, the declared field order.
//
// Rules:
//   - a discriminant byte (the variant index) is emitted first for every
//     variant, unit or tuple;
//   - a uint64 is encoded as 8 bytes big-endian;
//   - a byte string is escaped (0x00 -> 0x00 0xFF) and terminated with
//     0x00 0x00, so it self-delimits inside a longer encoding while
//     preserving byte order;
//   - tuples concatenate the encodings of their fields in declaration order.
package keycode

import (
	"bytes"
	"encoding/binary"

	"kvsql/internal/errs"
)

// Encoder accumulates an encoded key. Zero value is ready to use.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Discriminant emits the single-byte variant tag. It must be called first,
// and at most once, per encoded value.
func (e *Encoder) Discriminant(variant byte) *Encoder {
	e.buf.WriteByte(variant)
	return e
}

// Uint64 appends v as 8 bytes big-endian.
func (e *Encoder) Uint64(v uint64) *Encoder {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
	return e
}

// Bytes appends b escaped and terminated: every 0x00 becomes 0x00 0xFF, then
// a 0x00 0x00 terminator closes the field.
func (e *Encoder) Bytes(b []byte) *Encoder {
	for _, c := range b {
		if c == 0x00 {
			e.buf.WriteByte(0x00)
			e.buf.WriteByte(0xFF)
		} else {
			e.buf.WriteByte(c)
		}
	}
	e.buf.WriteByte(0x00)
	e.buf.WriteByte(0x00)
	return e
}

// Encode returns the accumulated encoding.
func (e *Encoder) Encode() []byte {
	return e.buf.Bytes()
}

// Decoder reads fields off an encoded key in the order they were written.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps buf for sequential field decoding.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Discriminant reads the one-byte variant tag.
func (d *Decoder) Discriminant() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, errs.Internalf("keycode: truncated discriminant")
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// Uint64 reads 8 bytes big-endian.
func (d *Decoder) Uint64() (uint64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, errs.Internalf("keycode: truncated uint64")
	}
	v := binary.BigEndian.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	return v, nil
}

// Bytes reads an escaped, 0x00 0x00-terminated byte string.
func (d *Decoder) Bytes() ([]byte, error) {
	var out []byte
	for {
		if d.pos >= len(d.buf) {
			return nil, errs.Internalf("keycode: unterminated byte string")
		}
		c := d.buf[d.pos]
		if c != 0x00 {
			out = append(out, c)
			d.pos++
			continue
		}
		// c == 0x00: look at the next byte to decide escape vs terminator.
		if d.pos+1 >= len(d.buf) {
			return nil, errs.Internalf("keycode: unterminated byte string")
		}
		switch d.buf[d.pos+1] {
		case 0xFF:
			out = append(out, 0x00)
			d.pos += 2
		case 0x00:
			d.pos += 2
			return out, nil
		default:
			return nil, errs.Internalf("keycode: invalid escape sequence")
		}
	}
}

// Remaining reports whether unconsumed bytes remain.
func (d *Decoder) Remaining() bool {
	return d.pos < len(d.buf)
}

// EncodeBytes is a convenience wrapper for escaping a single byte string,
// used when callers need only the field encoding (e.g. to build a prefix).
func EncodeBytes(b []byte) []byte {
	return NewEncoder().Bytes(b).Encode()
}

// EncodeBytesPrefix escapes b the same way Bytes does but omits the 0x00 0x00
// terminator, so the result is a valid byte-order-preserving prefix matching
// every encoded byte string that begins with b (as opposed to Bytes, whose
// terminator matches only the complete field b).
func EncodeBytesPrefix(b []byte) []byte {
	var out []byte
	for _, c := range b {
		if c == 0x00 {
			out = append(out, 0x00, 0xFF)
		} else {
			out = append(out, c)
		}
	}
	return out
}
