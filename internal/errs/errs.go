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

// Package errs defines the three-kind error taxonomy that crosses every
// component boundary in this database: Parser, Internal, WriteConflict.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies which of the three error categories an Error belongs to.
type Kind int

const (
	// Internal covers I/O failure, lock poisoning, codec failure,
	// schema/validation failure, duplicate primary key, missing table, and
	// any unexpected key variant encountered during a scan.
	Internal Kind = iota
	// Parser covers syntactic misuse at the SQL boundary.
	Parser
	// WriteConflict is raised only by the MVCC layer's write_inner check.
	WriteConflict
)

func (k Kind) String() string {
	switch k {
	case Parser:
		return "parser"
	case WriteConflict:
		return "write conflict"
	default:
		return "internal"
	}
}

// Error is the single error type used across kvstore, mvcc, table and sql
// packages. Kind lets callers decide policy (e.g. retry on WriteConflict)
// without parsing message text.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Kind == WriteConflict {
		return "write conflict"
	}
	return e.Msg
}

// Parserf builds a Parser error.
func Parserf(format string, args ...interface{}) error {
	return &Error{Kind: Parser, Msg: fmt.Sprintf(format, args...)}
}

// Internalf builds an Internal error.
func Internalf(format string, args ...interface{}) error {
	return &Error{Kind: Internal, Msg: fmt.Sprintf(format, args...)}
}

// ErrWriteConflict is the sentinel WriteConflict error; write_inner always
// returns exactly this value so callers can compare with errors.Is.
var ErrWriteConflict = &Error{Kind: WriteConflict, Msg: "write conflict"}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsWriteConflict reports whether err is (or wraps) ErrWriteConflict.
func IsWriteConflict(err error) bool {
	return Is(err, WriteConflict)
}
