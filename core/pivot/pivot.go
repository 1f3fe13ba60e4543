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

// Package pivot computes multi-level pivot tables: hierarchical row groups
// with subtotals, an optional cross-tab column axis, calculated measures,
// top-N truncation, rank and running totals, percentages and time
// intelligence deltas.
package pivot

import (
	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/tables"
)

// Position places a subtotal row relative to its children.
type Position string

const (
	Above Position = "above"
	Below Position = "below"
)

// LabelMode selects how row-axis values are laid out.
type LabelMode string

const (
	// Separate writes each group value into its own row-axis column.
	Separate LabelMode = "separate"
	// Single writes every group value into the RowLabelsColumn.
	Single LabelMode = "single"
)

const (
	// GrandTotalLabel marks the grand-total row and the grand-total column.
	GrandTotalLabel = "Grand Total"
	// RowLabelsColumn holds group values in Single mode.
	RowLabelsColumn = "Row Labels"
	// DefaultTopN is used when top-N is enabled without a positive N.
	DefaultTopN = 10
)

// TimeFunc is a time intelligence function.
type TimeFunc string

const (
	MoM TimeFunc = "MoM"
	YoY TimeFunc = "YoY"
	YTD TimeFunc = "YTD"
	MTD TimeFunc = "MTD"
)

// TopN keeps the first N groups of one row-axis level.
type TopN struct {
	Enabled bool `json:"enabled"`
	Level   int  `json:"level"`
	N       int  `json:"n"`
	// Measure defaults to the sibling sort measure.
	Measure   string            `json:"measure,omitempty"`
	Direction sorting.Direction `json:"direction,omitempty"`
}

// TimeIntelligence derives period deltas across a time-valued column axis.
type TimeIntelligence struct {
	Enabled bool `json:"enabled"`
	// Field must be empty or equal to the only column-axis field.
	Field     string     `json:"field,omitempty"`
	Functions []TimeFunc `json:"functions,omitempty"`
}

func (ti TimeIntelligence) has(f TimeFunc) bool {
	for _, x := range ti.Functions {
		if x == f {
			return true
		}
	}
	return false
}

// CalculatedMeasure is a formula over the aggregate labels of a group,
// e.g. m("revenue (sum)") / m("units (sum)").
type CalculatedMeasure struct {
	Name    string `json:"name"`
	Formula string `json:"formula"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// IsEnabled reports whether the measure is computed
func (c CalculatedMeasure) IsEnabled() bool {
	return c.Name != "" && (c.Enabled == nil || *c.Enabled)
}

// Options control layout, ordering and derived values.
type Options struct {
	ShowSubtotals    bool              `json:"showSubtotals"`
	ShowGrandTotal   bool              `json:"showGrand"`
	SubtotalPosition Position          `json:"subtotalPosition,omitempty"`
	RowLabels        LabelMode         `json:"rowLabels,omitempty"`
	SortMeasure      string            `json:"sortMeasure,omitempty"`
	SortDirection    sorting.Direction `json:"sortDir,omitempty"`
	TopN             TopN              `json:"topN"`
	PercentOfTotal   bool              `json:"pctTotal"`
	PercentOfParent  bool              `json:"pctParent"`
	PercentOfRow     bool              `json:"pctRow"`
	Rank             bool              `json:"rank"`
	RunningTotal     bool              `json:"running"`
	TimeIntelligence TimeIntelligence  `json:"timeIntel"`
}

// Config describes a pivot.
type Config struct {
	RowAxis    []string            `json:"rowAxis"`
	ColAxis    []string            `json:"colAxis,omitempty"`
	Measures   []string            `json:"measures"`
	Functions  []aggregates.Func   `json:"functions"`
	Calculated []CalculatedMeasure `json:"calculatedMeasures,omitempty"`
	Options    Options             `json:"options"`
}

// DefaultConfig returns a config with subtotals and grand totals shown,
// subtotals below their children, siblings sorted descending and sum as
// the only function. Axes and measures are left empty.
func DefaultConfig() Config {
	return Config{
		Functions: []aggregates.Func{aggregates.Sum},
		Options: Options{
			ShowSubtotals:    true,
			ShowGrandTotal:   true,
			SubtotalPosition: Below,
			RowLabels:        Separate,
			SortDirection:    sorting.Desc,
			TopN:             TopN{N: DefaultTopN, Direction: sorting.Desc},
		},
	}
}

// Ready reports whether the config can produce a pivot: it needs a row
// axis and at least one measure and function.
func (c Config) Ready() bool {
	return len(nonEmpty(c.RowAxis)) > 0 && len(nonEmpty(c.Measures)) > 0 && len(c.Functions) > 0
}

// Clone returns a deep copy of the config.
func (c Config) Clone() Config {
	out := c
	out.RowAxis = append([]string(nil), c.RowAxis...)
	out.ColAxis = append([]string(nil), c.ColAxis...)
	out.Measures = append([]string(nil), c.Measures...)
	out.Functions = append([]aggregates.Func(nil), c.Functions...)
	out.Calculated = make([]CalculatedMeasure, len(c.Calculated))
	for i, cm := range c.Calculated {
		if cm.Enabled != nil {
			e := *cm.Enabled
			cm.Enabled = &e
		}
		out.Calculated[i] = cm
	}
	out.Options.TimeIntelligence.Functions = append([]TimeFunc(nil), c.Options.TimeIntelligence.Functions...)
	return out
}

func nonEmpty(names []string) []string {
	var out []string
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// ResultRow is one subtotal or grand-total row of a pivot.
type ResultRow struct {
	Values       tables.Row
	IsSubtotal   bool
	IsGrandTotal bool
	// Level is the row-axis depth of a subtotal.
	Level int
	// GroupKey assigns a value to every row-axis column above and at Level.
	// It is empty for the grand total.
	GroupKey map[string]string
}

// Flatten returns the row values annotated with _isSubtotal, _isGrandTotal,
// _level and _groupKey, ready for JSON encoding.
func (r ResultRow) Flatten() map[string]any {
	out := make(map[string]any, len(r.Values)+4)
	for k, v := range r.Values {
		out[k] = v
	}
	key := r.GroupKey
	if key == nil {
		key = map[string]string{}
	}
	out["_groupKey"] = key
	if r.IsGrandTotal {
		out["_isGrandTotal"] = true
		return out
	}
	out["_isSubtotal"] = r.IsSubtotal
	out["_level"] = r.Level
	return out
}

// Result is the output of ComputePivot.
type Result struct {
	// Ready is false when the config lacks a row axis, measure or function.
	Ready bool
	Rows  []ResultRow
	// MeasureLabels are the aggregate labels followed by calculated measure
	// names.
	MeasureLabels []string
	// ColumnLabels are the cross-tab column labels in display order.
	ColumnLabels []string
}

// Flatten returns every row in annotated form
func (r *Result) Flatten() []map[string]any {
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Flatten()
	}
	return out
}
