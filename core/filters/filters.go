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

// Package filters reduces a row set through global search, per-column
// filters, advanced rules and value filters, always in that order.
// Surviving rows keep their input order.
package filters

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/text/cases"

	"github.com/google/tabula/core/tables"
)

// SearchMode selects how the global search query matches cells.
type SearchMode string

const (
	SearchSubstring SearchMode = "substring"
	SearchExact     SearchMode = "exact"
	SearchRegex     SearchMode = "regex"
)

// Search is the global search box state.
type Search struct {
	Query         string     `json:"query"`
	Mode          SearchMode `json:"mode,omitempty"`
	CaseSensitive bool       `json:"caseSensitive,omitempty"`
	// VisibleOnly restricts matching to the Visible columns.
	VisibleOnly bool     `json:"visibleOnly,omitempty"`
	Visible     []string `json:"visible,omitempty"`
}

// Operand is a filter comparison value. It decodes from a JSON string,
// number or boolean so persisted configurations round-trip.
type Operand string

// UnmarshalJSON accepts any JSON scalar.
func (o *Operand) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*o = Operand(s)
		return nil
	}
	var v tables.Value
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Operand(v.String())
	return nil
}

// Spec is a filter on one column.
type Spec struct {
	Operator string  `json:"op"`
	Value    Operand `json:"value,omitempty"`
	Value2   Operand `json:"value2,omitempty"`
}

// Active reports whether the filter takes part in filtering: emptiness
// checks always do, other operators only once they have a value.
func (s Spec) Active() bool {
	switch s.Operator {
	case "":
		return false
	case OpIsEmpty, OpNotEmpty:
		return true
	}
	return s.Value != ""
}

// Rule is one advanced filter rule.
type Rule struct {
	Column   string  `json:"column"`
	Operator string  `json:"op"`
	Value    Operand `json:"value,omitempty"`
	Value2   Operand `json:"value2,omitempty"`
}

func (r Rule) spec() Spec {
	return Spec{Operator: r.Operator, Value: r.Value, Value2: r.Value2}
}

// Combine joins the advanced rules.
type Combine string

const (
	CombineAnd Combine = "AND"
	CombineOr  Combine = "OR"
)

// Config is the complete filter state.
type Config struct {
	Search   Search          `json:"search"`
	Columns  map[string]Spec `json:"columns,omitempty"`
	Advanced []Rule          `json:"advanced,omitempty"`
	Combine  Combine         `json:"combine,omitempty"`
	// Values holds per-column allow-sets of stringified values. A nil slice
	// means no filter; an empty slice lets nothing through.
	Values map[string][]string `json:"values,omitempty"`
}

// ApplyFilters returns the rows that pass every stage, in input order.
func ApplyFilters(rows []tables.Row, cfg Config, headers tables.Headers) []tables.Row {
	matches := MatchIndices(rows, cfg, headers)
	out := make([]tables.Row, 0, matches.GetCardinality())
	it := matches.Iterator()
	for it.HasNext() {
		out = append(out, rows[it.Next()])
	}
	return out
}

// MatchIndices returns the indices of the rows that pass every stage.
func MatchIndices(rows []tables.Row, cfg Config, headers tables.Headers) *roaring.Bitmap {
	live := roaring.New()
	live.AddRange(0, uint64(len(rows)))
	if len(rows) == 0 {
		return live
	}

	f := &filterer{rows: rows, fold: cases.Fold()}

	if match := f.searchMatcher(cfg.Search, headers); match != nil {
		live = f.keep(live, match)
	}

	if active := activeSpecs(cfg.Columns); len(active) > 0 {
		live = f.keep(live, func(row tables.Row) bool {
			for col, spec := range active {
				if !f.matches(row.Get(col), spec) {
					return false
				}
			}
			return true
		})
	}

	if len(cfg.Advanced) > 0 {
		either := cfg.Combine == CombineOr
		live = f.keep(live, func(row tables.Row) bool {
			for _, r := range cfg.Advanced {
				ok := f.matches(row.Get(r.Column), r.spec())
				if either && ok {
					return true
				}
				if !either && !ok {
					return false
				}
			}
			return !either
		})
	}

	if allow := allowSets(cfg.Values); len(allow) > 0 {
		live = f.keep(live, func(row tables.Row) bool {
			for col, set := range allow {
				if _, ok := set[row.Get(col).String()]; !ok {
					return false
				}
			}
			return true
		})
	}
	return live
}

type filterer struct {
	rows []tables.Row
	fold cases.Caser
}

// keep returns the subset of live whose rows satisfy pred.
func (f *filterer) keep(live *roaring.Bitmap, pred func(tables.Row) bool) *roaring.Bitmap {
	out := roaring.New()
	it := live.Iterator()
	for it.HasNext() {
		i := it.Next()
		if pred(f.rows[i]) {
			out.Add(i)
		}
	}
	return out
}

func (f *filterer) lower(s string) string {
	return f.fold.String(s)
}

// searchMatcher builds the row predicate for the global search, or nil when
// search is off. An invalid regular expression turns search off.
func (f *filterer) searchMatcher(s Search, headers tables.Headers) func(tables.Row) bool {
	if s.Query == "" {
		return nil
	}
	cols := []string(headers)
	if s.VisibleOnly {
		visible := make(map[string]bool, len(s.Visible))
		for _, v := range s.Visible {
			visible[v] = true
		}
		cols = cols[:0:0]
		for _, h := range headers {
			if visible[h] {
				cols = append(cols, h)
			}
		}
	}

	var cell func(string) bool
	switch s.Mode {
	case SearchRegex:
		pattern := s.Query
		if !s.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil
		}
		cell = re.MatchString
	case SearchExact:
		if s.CaseSensitive {
			cell = func(v string) bool { return v == s.Query }
		} else {
			q := f.lower(s.Query)
			cell = func(v string) bool { return f.lower(v) == q }
		}
	default:
		if s.CaseSensitive {
			cell = func(v string) bool { return strings.Contains(v, s.Query) }
		} else {
			q := f.lower(s.Query)
			cell = func(v string) bool { return strings.Contains(f.lower(v), q) }
		}
	}

	return func(row tables.Row) bool {
		for _, h := range cols {
			if cell(row.Get(h).String()) {
				return true
			}
		}
		return false
	}
}

func activeSpecs(specs map[string]Spec) map[string]Spec {
	active := make(map[string]Spec, len(specs))
	for col, s := range specs {
		if s.Active() {
			active[col] = s
		}
	}
	return active
}

func allowSets(values map[string][]string) map[string]map[string]struct{} {
	sets := make(map[string]map[string]struct{}, len(values))
	for col, allowed := range values {
		if allowed == nil {
			continue
		}
		set := make(map[string]struct{}, len(allowed))
		for _, v := range allowed {
			set[v] = struct{}{}
		}
		sets[col] = set
	}
	return sets
}
