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

package ast

import (
	"testing"

	"kvsql/internal/table"
)

func TestValueConvertsEveryLiteralKind(t *testing.T) {
	cases := []struct {
		expr Expression
		want table.Value
	}{
		{NullLiteral{}, table.Null},
		{BoolLiteral(true), table.BoolValue(true)},
		{IntLiteral(7), table.IntValue(7)},
		{FloatLiteral(1.5), table.FloatValue(1.5)},
		{StringLiteral("hi"), table.StringValue("hi")},
	}
	for _, c := range cases {
		got := Value(c.expr)
		if !got.Equal(c.want) {
			t.Fatalf("Value(%#v) = %+v, want %+v", c.expr, got, c.want)
		}
	}
}
