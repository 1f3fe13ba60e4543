/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package aggregates

import (
	"math"
	"testing"

	"github.com/google/tabula/core/tables"
)

func TestLabel(t *testing.T) {
	if got := Label("revenue", Sum); got != "revenue (sum)" {
		t.Errorf("Label() = %q", got)
	}
	got := Labels([]string{"a", "b"}, []Func{Sum, Count})
	want := []string{"a (sum)", "a (count)", "b (sum)", "b (count)"}
	if len(got) != len(want) {
		t.Fatalf("Labels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Labels()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCompute(t *testing.T) {
	rows := []tables.Row{
		{"v": tables.Number(4)},
		{"v": tables.Text("6")},
		{"v": tables.Text("n/a")},
		{"v": tables.Null()},
		{"other": tables.Number(100)},
		{"v": tables.Number(math.Inf(1))},
	}

	tests := []struct {
		fn   Func
		want tables.Value
	}{
		{Sum, tables.Number(10)},
		{Avg, tables.Number(5)},
		{Count, tables.Number(6)},
		{Min, tables.Number(4)},
		{Max, tables.Number(6)},
		{Func("median"), tables.Null()},
	}

	for _, tt := range tests {
		t.Run(string(tt.fn), func(t *testing.T) {
			got := Compute(rows, []string{"v"}, []Func{tt.fn})[Label("v", tt.fn)]
			if !got.Equal(tt.want) {
				t.Errorf("Compute(%s) = %v, want %v", tt.fn, got, tt.want)
			}
		})
	}
}

func TestComputeWithoutNumericValues(t *testing.T) {
	rows := []tables.Row{{"v": tables.Text("x")}, {"v": tables.Null()}}
	got := Compute(rows, []string{"v"}, []Func{Sum, Avg, Count, Min, Max})

	tests := []struct {
		label string
		want  tables.Value
	}{
		{"v (sum)", tables.Number(0)},
		{"v (avg)", tables.Number(0)},
		{"v (count)", tables.Number(2)},
		{"v (min)", tables.Null()},
		{"v (max)", tables.Null()},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if !got[tt.label].Equal(tt.want) {
				t.Errorf("%s = %v, want %v", tt.label, got[tt.label], tt.want)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	a := NewNumericState()
	for _, v := range []float64{1, 2, 3} {
		a.Add(tables.Number(v))
	}
	b := NewNumericState()
	b.Add(tables.Number(-5))
	b.Add(tables.Text("x"))
	empty := NewNumericState()

	a.Combine(b)
	a.Combine(empty)
	a.Combine(nil)

	if a.Rows != 5 || a.Count != 4 {
		t.Errorf("Rows, Count = %d, %d, want 5, 4", a.Rows, a.Count)
	}
	if a.Sum != 1 {
		t.Errorf("Sum = %v, want 1", a.Sum)
	}
	if a.Min != -5 || a.Max != 3 {
		t.Errorf("Min, Max = %v, %v, want -5, 3", a.Min, a.Max)
	}
	if a.Avg() != 0.25 {
		t.Errorf("Avg() = %v, want 0.25", a.Avg())
	}
}

func TestValid(t *testing.T) {
	for _, f := range []Func{Sum, Avg, Count, Min, Max} {
		if !f.Valid() {
			t.Errorf("%q should be valid", f)
		}
	}
	if Func("stddev").Valid() {
		t.Error("stddev should not be valid")
	}
}
