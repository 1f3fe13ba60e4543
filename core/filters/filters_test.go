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

package filters

import (
	"encoding/json"
	"reflect"
	"testing"

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

var regionHeaders = tables.Headers{"region", "revenue", "growth"}

func regions(rows []tables.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Get("region").String())
	}
	return out
}

func TestColumnFilters(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"growth >= 12", Config{Columns: map[string]Spec{"growth": {Operator: ">=", Value: "12"}}}, []string{"North", "East"}},
		{"numeric on text column", Config{Columns: map[string]Spec{"region": {Operator: ">", Value: "1"}}}, []string{}},
		{"between reversed bounds", Config{Columns: map[string]Spec{"revenue": {Operator: "between", Value: "120000", Value2: "100000"}}}, []string{"West"}},
		{"between open bound", Config{Columns: map[string]Spec{"revenue": {Operator: "between", Value: "x", Value2: "1"}}}, []string{"North", "South", "East", "West"}},
		{"contains folds case", Config{Columns: map[string]Spec{"region": {Operator: "contains", Value: "ST"}}}, []string{"East", "West"}},
		{"startsWith", Config{Columns: map[string]Spec{"region": {Operator: "startsWith", Value: "n"}}}, []string{"North"}},
		{"endsWith", Config{Columns: map[string]Spec{"region": {Operator: "endsWith", Value: "TH"}}}, []string{"North", "South"}},
		{"notContains", Config{Columns: map[string]Spec{"region": {Operator: "notContains", Value: "o"}}}, []string{"East", "West"}},
		{"equals", Config{Columns: map[string]Spec{"region": {Operator: "equals", Value: "south"}}}, []string{"South"}},
		{"inactive filter skipped", Config{Columns: map[string]Spec{"region": {Operator: "contains"}}}, []string{"North", "South", "East", "West"}},
		{"unknown operator passes", Config{Columns: map[string]Spec{"region": {Operator: "sounds-like", Value: "x"}}}, []string{"North", "South", "East", "West"}},
		{"columns AND", Config{Columns: map[string]Spec{
			"growth":  {Operator: ">", Value: "10"},
			"revenue": {Operator: "<", Value: "130000"},
		}}, []string{"North", "West"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := regions(ApplyFilters(regionRows(), tt.cfg, regionHeaders))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmptinessOperators(t *testing.T) {
	rows := []tables.Row{
		{"note": tables.Text("x")},
		{"note": tables.Text("")},
		{},
		{"note": tables.Null()},
	}
	empty := ApplyFilters(rows, Config{Columns: map[string]Spec{"note": {Operator: "isEmpty"}}}, tables.Headers{"note"})
	if len(empty) != 3 {
		t.Errorf("isEmpty kept %d rows, want 3", len(empty))
	}
	nonEmpty := ApplyFilters(rows, Config{Columns: map[string]Spec{"note": {Operator: "notEmpty"}}}, tables.Headers{"note"})
	if len(nonEmpty) != 1 {
		t.Errorf("notEmpty kept %d rows, want 1", len(nonEmpty))
	}
}

func TestNumericOperatorRejectsNonNumericCells(t *testing.T) {
	rows := []tables.Row{
		{"v": tables.Text("5")},
		{"v": tables.Text("")},
		{"v": tables.Null()},
		{"v": tables.Text("five")},
	}
	got := ApplyFilters(rows, Config{Columns: map[string]Spec{"v": {Operator: "!=", Value: "3"}}}, tables.Headers{"v"})
	if len(got) != 1 || got[0].Get("v").String() != "5" {
		t.Errorf("got %v, want only the numeric row", got)
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name   string
		search Search
		want   []string
	}{
		{"substring folds case", Search{Query: "EAS"}, []string{"East"}},
		{"substring case sensitive", Search{Query: "eas", CaseSensitive: true}, []string{}},
		{"substring matches numbers", Search{Query: "125"}, []string{"North"}},
		{"exact", Search{Query: "west", Mode: SearchExact}, []string{"West"}},
		{"exact needs whole cell", Search{Query: "wes", Mode: SearchExact}, []string{}},
		{"regex", Search{Query: "^(n|s)", Mode: SearchRegex}, []string{"North", "South"}},
		{"regex case sensitive", Search{Query: "^n", Mode: SearchRegex, CaseSensitive: true}, []string{}},
		{"invalid regex disables search", Search{Query: "(", Mode: SearchRegex}, []string{"North", "South", "East", "West"}},
		{"visible only", Search{Query: "9", VisibleOnly: true, Visible: []string{"growth"}}, []string{"South"}},
		{"visible scope without match", Search{Query: "North", VisibleOnly: true, Visible: []string{"growth", "not-a-header"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := regions(ApplyFilters(regionRows(), Config{Search: tt.search}, regionHeaders))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdvancedRules(t *testing.T) {
	rules := []Rule{
		{Column: "growth", Operator: ">", Value: "14"},
		{Column: "region", Operator: "equals", Value: "south"},
	}
	and := regions(ApplyFilters(regionRows(), Config{Advanced: rules, Combine: CombineAnd}, regionHeaders))
	if len(and) != 0 {
		t.Errorf("AND: got %v, want none", and)
	}
	or := regions(ApplyFilters(regionRows(), Config{Advanced: rules, Combine: CombineOr}, regionHeaders))
	if !reflect.DeepEqual(or, []string{"South", "East"}) {
		t.Errorf("OR: got %v, want [South East]", or)
	}
	def := regions(ApplyFilters(regionRows(), Config{Advanced: rules}, regionHeaders))
	if len(def) != 0 {
		t.Errorf("default combine must be AND, got %v", def)
	}
}

func TestValueFilters(t *testing.T) {
	tests := []struct {
		name   string
		values map[string][]string
		want   []string
	}{
		{"nil means no filter", map[string][]string{"region": nil}, []string{"North", "South", "East", "West"}},
		{"empty set excludes all", map[string][]string{"region": {}}, []string{}},
		{"allow set", map[string][]string{"region": {"East", "North"}}, []string{"North", "East"}},
		{"stringified numbers", map[string][]string{"growth": {"9", "15"}}, []string{"South", "East"}},
		{"AND across columns", map[string][]string{"region": {"East", "North"}, "growth": {"12"}}, []string{"North"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := regions(ApplyFilters(regionRows(), Config{Values: tt.values}, regionHeaders))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStageOrder(t *testing.T) {
	cfg := Config{
		Search:  Search{Query: "o"},
		Columns: map[string]Spec{"growth": {Operator: "<", Value: "12"}},
		Values:  map[string][]string{"region": {"South", "North"}},
	}
	got := regions(ApplyFilters(regionRows(), cfg, regionHeaders))
	if !reflect.DeepEqual(got, []string{"South"}) {
		t.Errorf("got %v, want [South]", got)
	}
}

func TestFilterIdempotentAndOrderPreserving(t *testing.T) {
	configs := []Config{
		{},
		{Search: Search{Query: "t"}},
		{Columns: map[string]Spec{"growth": {Operator: ">=", Value: "11"}}},
		{Advanced: []Rule{{Column: "revenue", Operator: ">", Value: "100000"}, {Column: "region", Operator: "contains", Value: "s"}}, Combine: CombineOr},
		{Values: map[string][]string{"region": {"West", "North", "East"}}},
	}
	rows := regionRows()
	position := map[string]int{}
	for i, r := range rows {
		position[r.Get("region").String()] = i
	}
	for i, cfg := range configs {
		once := ApplyFilters(rows, cfg, regionHeaders)
		twice := ApplyFilters(once, cfg, regionHeaders)
		if !reflect.DeepEqual(regions(once), regions(twice)) {
			t.Errorf("config %d: not idempotent: %v then %v", i, regions(once), regions(twice))
		}
		last := -1
		for _, name := range regions(once) {
			if position[name] <= last {
				t.Errorf("config %d: order not preserved: %v", i, regions(once))
			}
			last = position[name]
		}
	}
}

func TestMatchIndices(t *testing.T) {
	cfg := Config{Columns: map[string]Spec{"growth": {Operator: ">=", Value: "12"}}}
	got := MatchIndices(regionRows(), cfg, regionHeaders).ToArray()
	if !reflect.DeepEqual(got, []uint32{0, 2}) {
		t.Errorf("MatchIndices() = %v, want [0 2]", got)
	}
	if n := MatchIndices(nil, cfg, regionHeaders).GetCardinality(); n != 0 {
		t.Errorf("empty input matched %d rows", n)
	}
}

func TestConfigJSON(t *testing.T) {
	data := []byte(`{
		"search": {"query": "", "mode": "substring"},
		"columns": {"growth": {"op": ">=", "value": 12}},
		"advanced": [{"column": "region", "op": "contains", "value": "t"}],
		"combine": "OR",
		"values": {"region": ["North", "East"], "growth": null}
	}`)
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Columns["growth"].Value != "12" {
		t.Errorf("numeric operand decoded as %q", cfg.Columns["growth"].Value)
	}
	if cfg.Values["growth"] != nil {
		t.Errorf("null value filter must decode as no filter")
	}
	got := regions(ApplyFilters(regionRows(), cfg, regionHeaders))
	if !reflect.DeepEqual(got, []string{"North", "East"}) {
		t.Errorf("got %v, want [North East]", got)
	}
}
