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

// Package rendering writes computed views as plain-text tables or JSON.
package rendering

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/width"

	"github.com/google/tabula/core/pivot"
	"github.com/google/tabula/core/tables"
)

// DefaultMaxCellWidth caps the display width of a text cell.
const DefaultMaxCellWidth = 40

// TextRenderer writes tables with ASCII borders:
//
//	|region|revenue (sum)|
//	|------|-------------|
//	|East  |       143500|
type TextRenderer struct {
	// MaxCellWidth truncates longer cells; 0 disables truncation.
	MaxCellWidth int
}

// NewTextRenderer creates a renderer with the default cell width cap
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{MaxCellWidth: DefaultMaxCellWidth}
}

// cell is one rendered table cell.
type cell struct {
	text    string
	numeric bool
}

// RenderRows writes columns of rows. Numbers are right-aligned.
func (r *TextRenderer) RenderRows(w io.Writer, columns []string, rows []tables.Row) error {
	grid := make([][]cell, len(rows))
	for i, row := range rows {
		grid[i] = make([]cell, len(columns))
		for j, c := range columns {
			v := row.Get(c)
			grid[i][j] = cell{text: r.clip(v.String()), numeric: v.IsNumber()}
		}
	}
	return r.write(w, columns, grid)
}

// RenderPivot writes a pivot result. axis are the row-axis columns shown on
// the left, see AxisColumns. In single label mode group labels are indented
// two spaces per level.
func (r *TextRenderer) RenderPivot(w io.Writer, res *pivot.Result, axis []string) error {
	if res == nil || !res.Ready {
		_, err := fmt.Fprintln(w, "pivot needs configuration: choose row fields, measures and functions")
		return err
	}
	columns := append(append([]string(nil), axis...), ValueColumns(res, axis)...)
	grid := make([][]cell, len(res.Rows))
	for i, row := range res.Rows {
		grid[i] = make([]cell, len(columns))
		for j, c := range columns {
			v := row.Values.Get(c)
			text := v.String()
			if c == pivot.RowLabelsColumn && !row.IsGrandTotal {
				text = strings.Repeat("  ", row.Level) + text
			}
			grid[i][j] = cell{text: r.clip(text), numeric: v.IsNumber()}
		}
	}
	return r.write(w, columns, grid)
}

// AxisColumns returns the columns holding group labels for cfg.
func AxisColumns(cfg pivot.Config) []string {
	if cfg.Options.RowLabels == pivot.Single {
		return []string{pivot.RowLabelsColumn}
	}
	var out []string
	for _, c := range cfg.RowAxis {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// ValueColumns returns every value key of the result rows except axis
// columns. Keys are ordered by cross-tab column, then measure label, then
// suffix such as " (% total)".
func ValueColumns(res *pivot.Result, axis []string) []string {
	skip := make(map[string]bool, len(axis)+1)
	for _, a := range axis {
		skip[a] = true
	}
	for _, r := range res.Rows {
		for k := range r.Values {
			if !skip[k] && isAxisCell(k, res) {
				skip[k] = true
			}
		}
	}
	seen := make(map[string]bool)
	var keys []string
	for _, r := range res.Rows {
		for k := range r.Values {
			if skip[k] || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	orders := make(map[string]keyOrder, len(keys))
	for _, k := range keys {
		orders[k] = orderOf(res, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := orders[keys[i]], orders[keys[j]]
		if a.column != b.column {
			return a.column < b.column
		}
		if a.label != b.label {
			return a.label < b.label
		}
		if a.suffix != b.suffix {
			return a.suffix < b.suffix
		}
		return keys[i] < keys[j]
	})
	return keys
}

// isAxisCell reports whether key holds group labels rather than values:
// the row-axis columns of separate mode and the Row Labels column.
func isAxisCell(key string, res *pivot.Result) bool {
	if key == pivot.RowLabelsColumn {
		return true
	}
	for _, r := range res.Rows {
		if v, ok := r.Values[key]; ok && v.IsNumber() {
			return false
		}
	}
	return orderOf(res, key).label == len(res.MeasureLabels)
}

type keyOrder struct {
	column int
	label  int
	suffix string
}

// orderOf splits key into its cross-tab column, measure label and suffix.
// Unknown parts sort last.
func orderOf(res *pivot.Result, key string) keyOrder {
	o := keyOrder{column: -1, label: len(res.MeasureLabels)}
	rest := key
	if len(res.ColumnLabels) > 0 {
		o.column = len(res.ColumnLabels)
		for i, c := range res.ColumnLabels {
			if strings.HasPrefix(key, c+" | ") {
				o.column = i
				rest = key[len(c)+3:]
				break
			}
		}
	}
	best := -1
	for i, l := range res.MeasureLabels {
		if strings.HasPrefix(rest, l) && len(l) > best {
			best = len(l)
			o.label = i
			o.suffix = rest[len(l):]
		}
	}
	if best < 0 {
		o.suffix = rest
	}
	return o
}

func (r *TextRenderer) clip(s string) string {
	if r.MaxCellWidth <= 0 || displayWidth(s) <= r.MaxCellWidth {
		return s
	}
	var sb strings.Builder
	w := 0
	for _, c := range s {
		cw := runeWidth(c)
		if w+cw > r.MaxCellWidth-1 {
			break
		}
		sb.WriteRune(c)
		w += cw
	}
	sb.WriteString("…")
	return sb.String()
}

func (r *TextRenderer) write(w io.Writer, columns []string, grid [][]cell) error {
	widths := make([]int, len(columns))
	for j, c := range columns {
		widths[j] = max(1, displayWidth(c))
	}
	for _, row := range grid {
		for j, c := range row {
			widths[j] = max(widths[j], displayWidth(c.text))
		}
	}

	var sb strings.Builder
	writeLine := func(cells []cell) {
		for j, c := range cells {
			sb.WriteString("|")
			sb.WriteString(pad(c.text, widths[j], c.numeric))
		}
		sb.WriteString("|\n")
	}

	header := make([]cell, len(columns))
	for j, c := range columns {
		header[j] = cell{text: c}
	}
	writeLine(header)
	for j := range columns {
		sb.WriteString("|")
		sb.WriteString(strings.Repeat("-", widths[j]))
	}
	sb.WriteString("|\n")
	for _, row := range grid {
		writeLine(row)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func pad(s string, w int, right bool) string {
	fill := strings.Repeat(" ", max(0, w-displayWidth(s)))
	if right {
		return fill + s
	}
	return s + fill
}

// displayWidth counts terminal columns: wide and fullwidth runes take two.
func displayWidth(s string) int {
	n := 0
	for _, c := range s {
		n += runeWidth(c)
	}
	return n
}

func runeWidth(c rune) int {
	switch width.LookupRune(c).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}
