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

package pivot

import (
	"testing"

	"github.com/google/tabula/core/aggregates"
)

func TestDrillIndexRows(t *testing.T) {
	rows := salesRows()
	idx := NewDrillIndex(rows, []string{"region", "product", "region"})

	tests := []struct {
		name string
		key  map[string]string
		want []int
	}{
		{"empty key", map[string]string{}, []int{0, 1, 2, 3, 4}},
		{"nil key", nil, []int{0, 1, 2, 3, 4}},
		{"one column", map[string]string{"region": "North"}, []int{0, 1}},
		{"two columns", map[string]string{"region": "South", "product": "A"}, []int{2, 3}},
		{"no match", map[string]string{"region": "Nowhere"}, nil},
		{"disjoint", map[string]string{"region": "East", "product": "A"}, nil},
		{"unindexed column", map[string]string{"units": "7"}, []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idx.Rows(tt.key)
			if len(got) != len(tt.want) {
				t.Fatalf("Rows() returned %d rows, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i]["units"] != rows[w]["units"] || got[i]["region"] != rows[w]["region"] {
					t.Errorf("Rows()[%d] = %v, want %v", i, got[i], rows[w])
				}
			}
			if c := idx.Match(tt.key).GetCardinality(); c != uint64(len(tt.want)) {
				t.Errorf("Match() cardinality = %d, want %d", c, len(tt.want))
			}
		})
	}
}

func TestDrillMatchesPivotCounts(t *testing.T) {
	rows := salesRows()
	axis := []string{"region", "product"}
	cfg := config(axis, "units")
	cfg.Functions = []aggregates.Func{aggregates.Count}
	res := ComputePivot(rows, cfg)
	idx := NewDrillIndex(rows, axis)

	for _, r := range res.Rows {
		want := number(t, r, "units (count)")
		if got := len(idx.Rows(r.GroupKey)); float64(got) != want {
			t.Errorf("%v: drill returned %d rows, count is %v", r.GroupKey, got, want)
		}
	}
}
