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

// Package query holds the view state of a table: which transforms apply to
// the rows and how the result is laid out. A Query is loaded from JSON or
// from URL parameters and can be written back to a URL.
package query

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/buckets"
	"github.com/google/tabula/core/derived"
	"github.com/google/tabula/core/filters"
	"github.com/google/tabula/core/pivot"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/tables"
)

// Query is the complete view state applied to a row set.
type Query struct {
	// Table names the row source the view applies to.
	Table string `json:"table,omitempty"`
	// Columns are the visible columns in display order; empty shows all.
	Columns []string `json:"columns,omitempty"`
	// Headers are extra column names appended after discovered ones.
	Headers []string          `json:"headers,omitempty"`
	Filters filters.Config    `json:"filters"`
	Derived []derived.Def     `json:"derived,omitempty"`
	Buckets []buckets.Spec    `json:"buckets,omitempty"`
	Sort    []sorting.SortKey `json:"sort,omitempty"`
	// Limit caps the number of flat rows shown; 0 shows all.
	Limit     int           `json:"limit,omitempty"`
	Pivot     *pivot.Config `json:"pivot,omitempty"`
	PivotView bool          `json:"pivotView"`
}

// New returns an empty query with pivot defaults.
func New() *Query {
	p := pivot.DefaultConfig()
	return &Query{Pivot: &p}
}

// Load decodes a JSON query over the defaults of New, so omitted fields
// keep their default values.
func Load(r io.Reader) (*Query, error) {
	q := New()
	dec := json.NewDecoder(r)
	if err := dec.Decode(q); err != nil {
		return nil, fmt.Errorf("failed to decode query: %w", err)
	}
	return q, nil
}

// Clone creates a deep copy of the Query
func (q *Query) Clone() *Query {
	clone := &Query{
		Table:     q.Table,
		Columns:   append([]string(nil), q.Columns...),
		Headers:   append([]string(nil), q.Headers...),
		Filters:   cloneFilters(q.Filters),
		Derived:   make([]derived.Def, len(q.Derived)),
		Buckets:   append([]buckets.Spec(nil), q.Buckets...),
		Sort:      append([]sorting.SortKey(nil), q.Sort...),
		Limit:     q.Limit,
		PivotView: q.PivotView,
	}
	for i, d := range q.Derived {
		if d.Enabled != nil {
			e := *d.Enabled
			d.Enabled = &e
		}
		clone.Derived[i] = d
	}
	if q.Pivot != nil {
		p := q.Pivot.Clone()
		clone.Pivot = &p
	}
	return clone
}

func cloneFilters(c filters.Config) filters.Config {
	out := c
	out.Search.Visible = append([]string(nil), c.Search.Visible...)
	out.Advanced = append([]filters.Rule(nil), c.Advanced...)
	if c.Columns != nil {
		out.Columns = make(map[string]filters.Spec, len(c.Columns))
		for k, v := range c.Columns {
			out.Columns[k] = v
		}
	}
	if c.Values != nil {
		out.Values = make(map[string][]string, len(c.Values))
		for k, v := range c.Values {
			if v == nil {
				out.Values[k] = nil
				continue
			}
			out.Values[k] = append(make([]string, 0, len(v)), v...)
		}
	}
	return out
}

// PivotActive reports whether the pivot view is selected.
func (q *Query) PivotActive() bool {
	return q.PivotView && q.Pivot != nil
}

// VisibleColumns returns the configured columns that exist in headers, or
// all headers when no columns are configured.
func (q *Query) VisibleColumns(headers tables.Headers) []string {
	if len(q.Columns) == 0 {
		return headers
	}
	out := make([]string, 0, len(q.Columns))
	for _, c := range q.Columns {
		if headers.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// FromURL creates a Query from URL parameters over the defaults of New.
//
//	table=sales
//	columns=region,revenue
//	search=north
//	filter:region=contains:No         (op:value; a bare value means contains)
//	filter:revenue=between:10,20
//	derived=margin=col('rev')-col('cost');flag=col('x')>1
//	bucket:revenue=5                   (equal-width bins)
//	bucket:date=month                  (time grain)
//	sort=revenue:desc,region
//	limit=25
//	view=pivot&rows=region&cols=year&measures=revenue&funcs=sum,avg
func FromURL(u *url.URL) *Query {
	q := New()
	q.ApplyValues(u.Query())
	return q
}

// ApplyValues overrides the query with URL parameters. Unknown parameters
// are ignored.
func (q *Query) ApplyValues(v url.Values) {
	if t := v.Get("table"); t != "" {
		q.Table = t
	}
	if c := v.Get("columns"); c != "" {
		q.Columns = splitList(c, ",")
	}
	if s := v.Get("search"); s != "" {
		q.Filters.Search.Query = s
	}
	if l := v.Get("limit"); l != "" {
		if limit, err := strconv.Atoi(l); err == nil && limit >= 0 {
			q.Limit = limit
		}
	}
	if d := v.Get("derived"); d != "" {
		q.Derived = parseDerived(d)
	}
	if s := v.Get("sort"); s != "" {
		q.Sort = parseSort(s)
	}

	// Prefixed keys are applied in sorted order so the result is stable.
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := v.Get(key)
		switch {
		case strings.HasPrefix(key, "filter:"):
			col := strings.TrimPrefix(key, "filter:")
			if q.Filters.Columns == nil {
				q.Filters.Columns = make(map[string]filters.Spec)
			}
			q.Filters.Columns[col] = parseFilter(value)
		case strings.HasPrefix(key, "bucket:"):
			q.Buckets = append(q.Buckets, parseBucket(strings.TrimPrefix(key, "bucket:"), value))
		}
	}

	if view := v.Get("view"); view != "" {
		q.PivotView = view == "pivot"
	}
	if q.Pivot == nil && (v.Has("rows") || v.Has("measures")) {
		p := pivot.DefaultConfig()
		q.Pivot = &p
	}
	if q.Pivot == nil {
		return
	}
	if r := v.Get("rows"); r != "" {
		q.Pivot.RowAxis = splitList(r, ",")
	}
	if c := v.Get("cols"); c != "" {
		q.Pivot.ColAxis = splitList(c, ",")
	}
	if m := v.Get("measures"); m != "" {
		q.Pivot.Measures = splitList(m, ",")
	}
	if f := v.Get("funcs"); f != "" {
		q.Pivot.Functions = nil
		for _, name := range splitList(f, ",") {
			if fn := aggregates.Func(name); fn.Valid() {
				q.Pivot.Functions = append(q.Pivot.Functions, fn)
			}
		}
	}
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseDerived parses name=formula definitions separated by semicolons.
// Only the first '=' separates the name, so formulas may compare with ==.
func parseDerived(s string) []derived.Def {
	var defs []derived.Def
	for _, def := range strings.Split(s, ";") {
		name, formula, ok := strings.Cut(def, "=")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		defs = append(defs, derived.Def{Name: strings.TrimSpace(name), Formula: formula})
	}
	return defs
}

// parseSort parses col[:asc|desc] keys separated by commas.
func parseSort(s string) []sorting.SortKey {
	var keys []sorting.SortKey
	for _, part := range splitList(s, ",") {
		dir := sorting.Asc
		if i := strings.LastIndex(part, ":"); i != -1 {
			switch sorting.Direction(part[i+1:]) {
			case sorting.Asc:
				part = part[:i]
			case sorting.Desc:
				part, dir = part[:i], sorting.Desc
			}
		}
		keys = append(keys, sorting.SortKey{Column: part, Direction: dir})
	}
	return keys
}

// parseFilter parses op:value[,value2]. A value without a known operator
// prefix is a contains filter.
func parseFilter(s string) filters.Spec {
	op, rest, ok := strings.Cut(s, ":")
	if !ok || !filters.IsOperator(op) {
		return filters.Spec{Operator: filters.OpContains, Value: filters.Operand(s)}
	}
	if op == filters.OpBetween {
		lo, hi, _ := strings.Cut(rest, ",")
		return filters.Spec{Operator: op, Value: filters.Operand(lo), Value2: filters.Operand(hi)}
	}
	return filters.Spec{Operator: op, Value: filters.Operand(rest)}
}

// parseBucket reads a grain name as a time bucket and a number as a bin
// count.
func parseBucket(col, value string) buckets.Spec {
	if bins, err := strconv.Atoi(value); err == nil {
		return buckets.Spec{Column: col, Kind: buckets.KindEqual, Bins: bins}
	}
	if value == "" {
		return buckets.Spec{Column: col, Kind: buckets.KindEqual}
	}
	return buckets.Spec{Column: col, Kind: buckets.KindTime, Grain: buckets.Grain(value)}
}

// ToURL converts the URL-expressible part of the query back to a URL
// string: table, columns, search, column filters, derived columns,
// buckets, sort, limit and the pivot axes.
func (q *Query) ToURL(path string) string {
	u := &url.URL{Path: path}
	v := url.Values{}
	if q.Table != "" {
		v.Set("table", q.Table)
	}
	if len(q.Columns) > 0 {
		v.Set("columns", strings.Join(q.Columns, ","))
	}
	if q.Filters.Search.Query != "" {
		v.Set("search", q.Filters.Search.Query)
	}
	for col, spec := range q.Filters.Columns {
		if !spec.Active() {
			continue
		}
		value := spec.Operator + ":" + string(spec.Value)
		if spec.Operator == filters.OpBetween {
			value += "," + string(spec.Value2)
		}
		v.Set("filter:"+col, value)
	}
	if len(q.Derived) > 0 {
		parts := make([]string, 0, len(q.Derived))
		for _, d := range derived.Active(q.Derived) {
			parts = append(parts, d.Name+"="+d.Formula)
		}
		v.Set("derived", strings.Join(parts, ";"))
	}
	for _, b := range q.Buckets {
		if b.Kind == buckets.KindTime {
			v.Set("bucket:"+b.Column, string(b.Grain))
		} else {
			v.Set("bucket:"+b.Column, strconv.Itoa(b.Bins))
		}
	}
	if len(q.Sort) > 0 {
		parts := make([]string, len(q.Sort))
		for i, k := range q.Sort {
			parts[i] = k.Column
			if k.Direction == sorting.Desc {
				parts[i] += ":desc"
			}
		}
		v.Set("sort", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.PivotView {
		v.Set("view", "pivot")
	}
	if p := q.Pivot; p != nil && (len(p.RowAxis) > 0 || len(p.Measures) > 0) {
		if len(p.RowAxis) > 0 {
			v.Set("rows", strings.Join(p.RowAxis, ","))
		}
		if len(p.ColAxis) > 0 {
			v.Set("cols", strings.Join(p.ColAxis, ","))
		}
		if len(p.Measures) > 0 {
			v.Set("measures", strings.Join(p.Measures, ","))
		}
		funcs := make([]string, len(p.Functions))
		for i, f := range p.Functions {
			funcs[i] = string(f)
		}
		v.Set("funcs", strings.Join(funcs, ","))
	}
	u.RawQuery = v.Encode()
	return u.String()
}

// WithSortToggled returns a copy of the query with column toggled in the
// sort order. Without multi the column becomes the only sort key.
func (q *Query) WithSortToggled(column string, multi bool) *Query {
	clone := q.Clone()
	clone.Sort = sorting.ToggleSort(q.Sort, column, multi)
	return clone
}

// WithColumnToggled returns a copy of the query with column shown if it was
// hidden and hidden if it was shown.
func (q *Query) WithColumnToggled(column string) *Query {
	clone := q.Clone()
	found := false
	columns := make([]string, 0, len(q.Columns)+1)
	for _, c := range q.Columns {
		if c == column {
			found = true
			continue
		}
		columns = append(columns, c)
	}
	if !found {
		columns = append(columns, column)
	}
	clone.Columns = columns
	return clone
}

// WithPivotAxisToggled returns a copy of the query with column added to or
// removed from the pivot row axis.
func (q *Query) WithPivotAxisToggled(column string) *Query {
	clone := q.Clone()
	if clone.Pivot == nil {
		p := pivot.DefaultConfig()
		clone.Pivot = &p
	}
	found := false
	axis := make([]string, 0, len(clone.Pivot.RowAxis)+1)
	for _, c := range clone.Pivot.RowAxis {
		if c == column {
			found = true
			continue
		}
		axis = append(axis, c)
	}
	if !found {
		axis = append(axis, column)
	}
	clone.Pivot.RowAxis = axis
	return clone
}

// WithDrillFilter returns a flat view of the rows behind a pivot group:
// the group key becomes exact-match value filters and the pivot view is
// switched off.
func (q *Query) WithDrillFilter(groupKey map[string]string) *Query {
	clone := q.Clone()
	clone.PivotView = false
	if len(groupKey) == 0 {
		return clone
	}
	if clone.Filters.Values == nil {
		clone.Filters.Values = make(map[string][]string, len(groupKey))
	}
	for col, value := range groupKey {
		clone.Filters.Values[col] = []string{value}
	}
	return clone
}
