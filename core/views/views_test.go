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

package views

import (
	"strings"
	"testing"

	"github.com/google/tabula/core/buckets"
	"github.com/google/tabula/core/derived"
	"github.com/google/tabula/core/filters"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/tables"
)

func regionRows() []tables.Row {
	return []tables.Row{
		{"region": tables.Text("North"), "revenue": tables.Number(125000), "growth": tables.Number(12)},
		{"region": tables.Text("South"), "revenue": tables.Number(98000), "growth": tables.Number(9)},
		{"region": tables.Text("East"), "revenue": tables.Number(143500), "growth": tables.Number(15)},
		{"region": tables.Text("West"), "revenue": tables.Number(112300), "growth": tables.Number(11)},
	}
}

func regions(rows []tables.Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Get("region").String())
	}
	return out
}

func TestFilteredFlatView(t *testing.T) {
	q := query.New()
	q.Filters.Columns = map[string]filters.Spec{"growth": {Operator: filters.OpGe, Value: "12"}}
	out := Compute(regionRows(), q, nil)

	if got := strings.Join(regions(out.Rows), ","); got != "North,East" {
		t.Errorf("rows = %s, want North,East", got)
	}
	if out.SourceRows != 4 || out.TotalRows != 2 || out.HasMoreRows {
		t.Errorf("SourceRows=%d TotalRows=%d HasMoreRows=%v", out.SourceRows, out.TotalRows, out.HasMoreRows)
	}
	if out.Pivot != nil {
		t.Error("flat view computed a pivot")
	}
}

func TestPivotView(t *testing.T) {
	q, err := query.Load(strings.NewReader(`{
		"pivotView": true,
		"pivot": {"rowAxis": ["region"], "measures": ["revenue"], "functions": ["sum"]}
	}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	out := Compute(regionRows(), q, nil)
	if out.Pivot == nil || !out.Pivot.Ready {
		t.Fatal("pivot not computed")
	}
	if len(out.Pivot.Rows) != 5 {
		t.Fatalf("got %d pivot rows, want 5", len(out.Pivot.Rows))
	}
	grand := out.Pivot.Rows[4]
	if f, _ := grand.Values["revenue (sum)"].Float(); !grand.IsGrandTotal || f != 478800 {
		t.Errorf("grand total = %v (IsGrandTotal=%v), want 478800", f, grand.IsGrandTotal)
	}
	if len(out.Rows) != 0 {
		t.Errorf("pivot view returned %d flat rows", len(out.Rows))
	}

	north := out.Pivot.Rows[1]
	drill := out.DrillRows(north.GroupKey)
	if len(drill) != 1 || drill[0].Get("region").String() != "North" {
		t.Errorf("DrillRows(%v) = %v", north.GroupKey, drill)
	}
}

func TestUnreadyPivot(t *testing.T) {
	q := query.New()
	q.PivotView = true
	out := Compute(regionRows(), q, nil)
	if out.Pivot == nil || out.Pivot.Ready || len(out.Pivot.Rows) != 0 {
		t.Errorf("Pivot = %+v, want not ready and empty", out.Pivot)
	}
}

func TestHeadersAndKinds(t *testing.T) {
	q := query.New()
	q.Derived = []derived.Def{{Name: "k_revenue", Formula: "col('revenue') / 1000"}}
	q.Buckets = []buckets.Spec{{Column: "growth", Kind: buckets.KindEqual, Bins: 2}}
	q.Headers = []string{"notes"}
	out := Compute(regionRows(), q, map[string]string{"notes": "DOUBLE"})

	want := []string{"growth", "region", "revenue", "notes", "k_revenue", "growth (bins:2)"}
	if strings.Join(out.Headers, ",") != strings.Join(want, ",") {
		t.Errorf("Headers = %v, want %v", out.Headers, want)
	}
	kinds := map[string]tables.ColumnKind{
		"growth":    tables.ColumnNumeric,
		"region":    tables.ColumnGeneric,
		"k_revenue": tables.ColumnNumeric,
		"notes":     tables.ColumnNumeric,
	}
	for col, kind := range kinds {
		if out.Kinds[col] != kind {
			t.Errorf("Kinds[%s] = %v, want %v", col, out.Kinds[col], kind)
		}
	}
	if f, _ := out.Rows[0].Get("k_revenue").Float(); f != 125 {
		t.Errorf("k_revenue = %v, want 125", f)
	}
}

func TestSortAndLimit(t *testing.T) {
	q := query.New()
	q.Sort = []sorting.SortKey{{Column: "revenue", Direction: sorting.Desc}}
	q.Limit = 2
	out := Compute(regionRows(), q, nil)

	if got := strings.Join(regions(out.Rows), ","); got != "East,North" {
		t.Errorf("rows = %s, want East,North", got)
	}
	if !out.HasMoreRows || out.TotalRows != 4 {
		t.Errorf("HasMoreRows=%v TotalRows=%d", out.HasMoreRows, out.TotalRows)
	}

	q.Sort = nil
	out = Compute(regionRows(), q, nil)
	if got := strings.Join(regions(out.Rows), ","); got != "North,South" {
		t.Errorf("unsorted rows = %s, want North,South", got)
	}
}

func TestTimings(t *testing.T) {
	out := Compute(regionRows(), nil, nil)
	var stages []string
	for _, s := range out.Timings {
		stages = append(stages, s.Stage)
	}
	if got := strings.Join(stages, ","); got != "filter,derive,bucket,sort" {
		t.Errorf("stages = %s", got)
	}
}
