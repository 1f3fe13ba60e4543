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

// Package buckets derives grouping columns from numeric columns (equal-width
// bins) and date columns (time grains).
package buckets

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/google/tabula/core/tables"
)

// Kind is the bucketing strategy.
type Kind string

const (
	KindEqual Kind = "equal"
	KindTime  Kind = "time"
)

// Grain is the coarsening unit of a time bucket.
type Grain string

const (
	GrainYear    Grain = "year"
	GrainQuarter Grain = "quarter"
	GrainMonth   Grain = "month"
	GrainWeek    Grain = "week"
	GrainDay     Grain = "day"
)

// DefaultBins is used when a spec has no positive bin count.
const DefaultBins = 5

// Spec describes one synthetic bucket column.
type Spec struct {
	Column string `json:"column"`
	Kind   Kind   `json:"type"`
	Bins   int    `json:"bins,omitempty"`
	Grain  Grain  `json:"grain,omitempty"`
}

func (s Spec) bins() int {
	if s.Bins < 1 {
		return DefaultBins
	}
	return s.Bins
}

func (s Spec) grain() Grain {
	if s.Grain == "" {
		return GrainMonth
	}
	return s.Grain
}

// Header returns the name of the column the spec produces, or "" for an
// unknown kind.
func (s Spec) Header() string {
	switch s.Kind {
	case KindEqual:
		return fmt.Sprintf("%s (bins:%d)", s.Column, s.bins())
	case KindTime:
		return fmt.Sprintf("%s (%s)", s.Column, s.grain())
	}
	return ""
}

// Headers returns the produced column names in application order.
func Headers(specs []Spec) []string {
	var out []string
	for _, s := range ordered(specs) {
		if h := s.Header(); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// ordered sorts specs by source column so results do not depend on the
// order the caller listed them in.
func ordered(specs []Spec) []Spec {
	out := append([]Spec(nil), specs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Column < out[j].Column })
	return out
}

type numericRange struct {
	min, max float64
	ok       bool
}

// ApplyBuckets returns shallow copies of rows with one extra column per
// spec. Existing columns are never removed or renamed. Equal-width ranges
// come from the rows given, so bins follow the current row set.
func ApplyBuckets(rows []tables.Row, specs []Spec) []tables.Row {
	specs = ordered(specs)
	var live []Spec
	for _, s := range specs {
		if s.Header() != "" {
			live = append(live, s)
		}
	}
	if len(live) == 0 || len(rows) == 0 {
		return rows
	}

	ranges := make(map[string]numericRange)
	for _, s := range live {
		if s.Kind == KindEqual {
			ranges[s.Column] = scanRange(rows, s.Column)
		}
	}

	out := make([]tables.Row, len(rows))
	for i, r := range rows {
		row := r.Clone(len(live))
		for _, s := range live {
			switch s.Kind {
			case KindEqual:
				row[s.Header()] = tables.Text(equalBinLabel(r.Get(s.Column), ranges[s.Column], s.bins()))
			case KindTime:
				row[s.Header()] = tables.Text(TimeLabel(r.Get(s.Column), s.grain()))
			}
		}
		out[i] = row
	}
	return out
}

func scanRange(rows []tables.Row, column string) numericRange {
	var rg numericRange
	for _, r := range rows {
		n, ok := r.Get(column).Float()
		if !ok {
			continue
		}
		if !rg.ok {
			rg = numericRange{min: n, max: n, ok: true}
			continue
		}
		rg.min = math.Min(rg.min, n)
		rg.max = math.Max(rg.max, n)
	}
	return rg
}

// equalBinLabel labels v with its interval "[start – end)". Values that are
// not finite numbers, or a column without any, get "".
func equalBinLabel(v tables.Value, rg numericRange, bins int) string {
	n, ok := v.Float()
	if !ok || !rg.ok {
		return ""
	}
	span := rg.max - rg.min
	if span == 0 {
		span = 1
	}
	idx := int(math.Floor((n - rg.min) / span * float64(bins)))
	if idx >= bins {
		idx = bins - 1
	}
	if idx < 0 {
		idx = 0
	}
	width := span / float64(bins)
	start := rg.min + width*float64(idx)
	end := rg.min + width*float64(idx+1)
	return fmt.Sprintf("[%s – %s)", round2(start), round2(end))
}

func round2(f float64) string {
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 2, 64), 64)
	if err != nil {
		r = f
	}
	return tables.FormatNumber(r)
}

// TimeLabel coarsens a date-like value to grain. Numbers are not dates and,
// like unparseable text, get "".
func TimeLabel(v tables.Value, grain Grain) string {
	t, ok := v.Time()
	if !ok {
		return ""
	}
	switch grain {
	case GrainYear:
		return strconv.Itoa(t.Year())
	case GrainQuarter:
		return fmt.Sprintf("Q%d %d", (int(t.Month())-1)/3+1, t.Year())
	case GrainMonth:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
	case GrainWeek:
		return fmt.Sprintf("%04d-W%02d", t.Year(), weekOfYear(t.YearDay()))
	default:
		return t.Format("2006-01-02")
	}
}

// weekOfYear numbers weeks from January 1st: days 1-7 are week 1.
func weekOfYear(yearDay int) int {
	return (yearDay + 6) / 7
}
