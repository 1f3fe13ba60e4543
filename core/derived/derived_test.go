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

package derived

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/google/tabula/core/expr"
	"github.com/google/tabula/core/tables"
)

func boolPtr(b bool) *bool { return &b }

func TestEvaluateDerivedRoundTrip(t *testing.T) {
	rows := []tables.Row{
		{"a": tables.Number(2), "b": tables.Number(3)},
		{"a": tables.Number(5), "b": tables.Number(1)},
	}
	got := EvaluateDerived(rows, []Def{{Name: "sum_ab", Formula: "col('a')+col('b')"}})
	want := []tables.Row{
		{"a": tables.Number(2), "b": tables.Number(3), "sum_ab": tables.Number(5)},
		{"a": tables.Number(5), "b": tables.Number(1), "sum_ab": tables.Number(6)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EvaluateDerived() = %v, want %v", got, want)
	}
	if rows[0].Has("sum_ab") {
		t.Errorf("input rows must not be modified")
	}
}

func TestEvaluateDerivedFailSoft(t *testing.T) {
	rows := []tables.Row{{"a": tables.Number(4), "b": tables.Number(0), "s": tables.Text("x")}}
	defs := []Def{
		{Name: "parse_error", Formula: "col('a') +"},
		{Name: "unknown_column", Formula: "col('zzz') * 2"},
		{Name: "type_error", Formula: "col('s') * 2"},
		{Name: "div_zero", Formula: "col('a') / col('b')"},
		{Name: "non_finite", Formula: "Math.log(0)"},
		{Name: "ok", Formula: "row.a * 10"},
	}
	got := EvaluateDerived(rows, defs)[0]
	for _, name := range []string{"parse_error", "unknown_column", "type_error", "div_zero", "non_finite"} {
		if !got.Has(name) || !got.Get(name).IsNull() {
			t.Errorf("%s = %v, want null", name, got.Get(name))
		}
	}
	if !got.Get("ok").Equal(tables.Number(40)) {
		t.Errorf("ok = %v, want 40", got.Get("ok"))
	}
}

func TestEvaluateDerivedSkipsDisabledAndUnnamed(t *testing.T) {
	rows := []tables.Row{{"a": tables.Number(1)}}
	defs := []Def{
		{Name: "off", Formula: "1", Enabled: boolPtr(false)},
		{Name: "", Formula: "2"},
		{Name: "on", Formula: "3", Enabled: boolPtr(true)},
	}
	got := EvaluateDerived(rows, defs)[0]
	if got.Has("off") || got.Has("") {
		t.Errorf("disabled or unnamed definitions must be skipped: %v", got)
	}
	if !got.Get("on").Equal(tables.Number(3)) {
		t.Errorf("on = %v, want 3", got.Get("on"))
	}
	if !reflect.DeepEqual(Names(defs), []string{"on"}) {
		t.Errorf("Names() = %v", Names(defs))
	}
}

func TestDerivedReadsOnlyInputRow(t *testing.T) {
	rows := []tables.Row{{"a": tables.Number(1)}}
	defs := []Def{
		{Name: "first", Formula: "col('a') + 1"},
		{Name: "second", Formula: "col('first') + 1"},
	}
	got := EvaluateDerived(rows, defs)[0]
	if !got.Get("first").Equal(tables.Number(2)) {
		t.Errorf("first = %v, want 2", got.Get("first"))
	}
	if !got.Get("second").IsNull() {
		t.Errorf("second = %v, want null: derived columns do not see each other", got.Get("second"))
	}
}

func TestEvaluatorCachesBySource(t *testing.T) {
	cache := expr.NewCache()
	e := NewEvaluator(cache)
	rows := []tables.Row{{"a": tables.Number(1)}, {"a": tables.Number(2)}}
	defs := []Def{{Name: "x", Formula: "col('a') * 2"}, {Name: "y", Formula: "col('a') * 2"}}
	e.Evaluate(rows, defs)
	e.Evaluate(rows, defs)
	if cache.Len() != 1 {
		t.Errorf("cache holds %d entries, want 1", cache.Len())
	}
	if got := e.EvalCell("col('a') * 2", rows[1]); !got.Equal(tables.Number(4)) {
		t.Errorf("EvalCell() = %v, want 4", got)
	}
}

func TestDefJSON(t *testing.T) {
	var defs []Def
	if err := json.Unmarshal([]byte(`[{"name":"a","formula":"1"},{"name":"b","formula":"2","enabled":false}]`), &defs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !defs[0].IsEnabled() || defs[1].IsEnabled() {
		t.Errorf("enabled flags decoded wrong: %+v", defs)
	}
}
