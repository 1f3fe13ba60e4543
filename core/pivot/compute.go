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
	"sort"
	"strings"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/expr"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/tables"
)

var formulaCache = expr.NewCache()

// ComputePivot groups rows by the row axis and aggregates every group. An
// unready config yields a Result with Ready false and no rows. The input
// rows are not modified.
func ComputePivot(rows []tables.Row, cfg Config) *Result {
	p := newPivoter(rows, cfg)
	res := &Result{
		MeasureLabels: append(append([]string(nil), p.labels...), p.calcNames...),
	}
	if !cfg.Ready() {
		return res
	}
	res.Ready = true
	for _, c := range p.columns {
		res.ColumnLabels = append(res.ColumnLabels, c.label)
	}
	res.Rows = p.groups(rows, 0, map[string]string{}, nil)
	if len(res.Rows) > 0 && p.opts.ShowGrandTotal {
		res.Rows = append(res.Rows, p.grandRow(rows))
	}
	return res
}

type compiledMeasure struct {
	name string
	expr *expr.Expression
}

// columnKey is one cross-tab column: a distinct tuple of column-axis values.
type columnKey struct {
	key   string
	label string
	grand bool
}

// pivoter holds the read-only context of one pivot computation.
type pivoter struct {
	opts      Options
	rowAxis   []string
	colAxis   []string
	measures  []string
	funcs     []aggregates.Func
	labels    []string
	calc      []compiledMeasure
	calcNames []string
	grand     tables.Row

	// columns are the cross-tab columns in display order; the grand-total
	// column, when shown, is last.
	columns []columnKey
	// timeIntel is set when column labels are periods; periods and
	// periodIndex then describe the non-grand columns.
	timeIntel   bool
	periods     []period
	periodIndex map[period]int
}

func newPivoter(rows []tables.Row, cfg Config) *pivoter {
	p := &pivoter{
		opts:     cfg.Options,
		rowAxis:  nonEmpty(cfg.RowAxis),
		colAxis:  nonEmpty(cfg.ColAxis),
		measures: nonEmpty(cfg.Measures),
		funcs:    cfg.Functions,
	}
	if p.opts.SubtotalPosition == "" {
		p.opts.SubtotalPosition = Below
	}
	if p.opts.RowLabels == "" {
		p.opts.RowLabels = Separate
	}
	p.labels = aggregates.Labels(p.measures, p.funcs)
	for _, cm := range cfg.Calculated {
		if !cm.IsEnabled() {
			continue
		}
		// A formula that does not compile leaves a nil expression: null.
		compiled, _ := formulaCache.Compile(strings.TrimSpace(cm.Formula))
		p.calc = append(p.calc, compiledMeasure{name: cm.Name, expr: compiled})
		p.calcNames = append(p.calcNames, cm.Name)
	}
	if !cfg.Ready() {
		return p
	}
	p.grand = p.aggregate(rows)
	if len(p.colAxis) > 0 {
		ti := p.opts.TimeIntelligence
		p.timeIntel = ti.Enabled && len(ti.Functions) > 0 && len(p.colAxis) == 1 &&
			(ti.Field == "" || ti.Field == p.colAxis[0])
		p.columns = p.columnKeys(rows)
	}
	return p
}

// aggregate computes every aggregate label and then every calculated
// measure, in order, so a calculated measure can read earlier ones.
func (p *pivoter) aggregate(rows []tables.Row) tables.Row {
	return p.results(aggregates.Accumulate(rows, p.measures))
}

// results renders measure states as aggregate labels plus calculated
// measures.
func (p *pivoter) results(states map[string]*aggregates.NumericState) tables.Row {
	out := aggregates.Results(states, p.measures, p.funcs)
	for _, cm := range p.calc {
		out[cm.name] = evalMeasure(cm.expr, out)
	}
	return out
}

func evalMeasure(e *expr.Expression, aggs tables.Row) tables.Value {
	if e == nil {
		return tables.Null()
	}
	v, err := e.Eval(expr.MeasureEnv(aggs))
	if err != nil {
		return tables.Null()
	}
	return v.Cell()
}

// group is one distinct value of a row-axis column among sibling rows.
type group struct {
	key  string
	rows []tables.Row
	aggs tables.Row
	row  ResultRow
}

// groups builds the result rows for rows at level. prefix is the group key
// of the enclosing group and parent its aggregates (nil at the top level).
func (p *pivoter) groups(rows []tables.Row, level int, prefix map[string]string, parent tables.Row) []ResultRow {
	col := p.rowAxis[level]
	var items []*group
	index := make(map[string]*group)
	for _, r := range rows {
		k := r.Get(col).String()
		g, ok := index[k]
		if !ok {
			g = &group{key: k}
			index[k] = g
			items = append(items, g)
		}
		g.rows = append(g.rows, r)
	}

	for _, g := range items {
		g.aggs = p.aggregate(g.rows)
		g.row = p.subtotalRow(g, level, withKey(prefix, col, g.key), parent)
	}

	primary := p.sortMeasure()
	p.sortGroups(items, primary, p.opts.SortDirection)
	if tn := p.opts.TopN; tn.Enabled && tn.Level == level {
		by := tn.Measure
		if by == "" {
			by = primary
		}
		dir := tn.Direction
		if dir == "" {
			dir = sorting.Desc
		}
		p.sortGroups(items, by, dir)
		n := tn.N
		if n <= 0 {
			n = DefaultTopN
		}
		if len(items) > n {
			items = items[:n]
		}
	}

	if p.opts.Rank || p.opts.RunningTotal {
		running := 0.0
		for i, g := range items {
			if p.opts.Rank {
				g.row.Values[primary+" (Rank)"] = tables.Number(float64(i + 1))
			}
			if p.opts.RunningTotal {
				running += p.sortValue(g, primary)
				g.row.Values[primary+" (Running)"] = tables.Number(running)
			}
		}
	}

	var out []ResultRow
	deepest := level == len(p.rowAxis)-1
	for _, g := range items {
		if deepest {
			out = append(out, g.row)
			continue
		}
		children := p.groups(g.rows, level+1, g.row.GroupKey, g.aggs)
		switch {
		case !p.opts.ShowSubtotals:
			out = append(out, children...)
		case p.opts.SubtotalPosition == Above:
			out = append(out, g.row)
			out = append(out, children...)
		default:
			out = append(out, children...)
			out = append(out, g.row)
		}
	}
	return out
}

func withKey(prefix map[string]string, col, value string) map[string]string {
	out := make(map[string]string, len(prefix)+1)
	for k, v := range prefix {
		out[k] = v
	}
	out[col] = value
	return out
}

// sortMeasure is the label siblings are ordered by.
func (p *pivoter) sortMeasure() string {
	if p.opts.SortMeasure != "" {
		return p.opts.SortMeasure
	}
	if len(p.labels) > 0 {
		return p.labels[0]
	}
	return ""
}

// sortValue reads label from a group's result row as a number; missing and
// non-numeric values count as 0. A bare aggregate label that the row does
// not carry, as in a cross-tab, is read from the group's own aggregates.
func (p *pivoter) sortValue(g *group, label string) float64 {
	v, ok := g.row.Values[label]
	if !ok {
		v = g.aggs[label]
	}
	f, _ := v.Float()
	return f
}

// sortGroups orders siblings by label, descending unless dir is Asc. Ties
// keep their current order.
func (p *pivoter) sortGroups(items []*group, label string, dir sorting.Direction) {
	if label == "" {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		a := p.sortValue(items[i], label)
		b := p.sortValue(items[j], label)
		if dir == sorting.Asc {
			return a < b
		}
		return a > b
	})
}

// axisCells lays out the row-axis columns of a result row showing label
// at level.
func (p *pivoter) axisCells(label string, level int) tables.Row {
	values := make(tables.Row, len(p.rowAxis)+len(p.labels)+len(p.calcNames)+1)
	for i, c := range p.rowAxis {
		if p.opts.RowLabels != Single && i == level {
			values[c] = tables.Text(label)
		} else {
			values[c] = tables.Text("")
		}
	}
	if p.opts.RowLabels == Single {
		values[RowLabelsColumn] = tables.Text(label)
	}
	return values
}

func (p *pivoter) subtotalRow(g *group, level int, key map[string]string, parent tables.Row) ResultRow {
	values := p.axisCells(g.key, level)
	if len(p.colAxis) == 0 {
		p.fillSimple(values, g.aggs, parent)
	} else {
		p.fillCrossTab(values, g.rows)
	}
	return ResultRow{Values: values, IsSubtotal: true, Level: level, GroupKey: key}
}

func (p *pivoter) grandRow(rows []tables.Row) ResultRow {
	values := p.axisCells(GrandTotalLabel, 0)
	if len(p.colAxis) == 0 {
		p.fillSimple(values, p.grand, nil)
	} else {
		p.fillCrossTab(values, rows)
	}
	return ResultRow{Values: values, IsGrandTotal: true, GroupKey: map[string]string{}}
}

// fillSimple writes aggregates and percentages of a group without a column
// axis. parent is nil for top-level groups and the grand total.
func (p *pivoter) fillSimple(values, aggs, parent tables.Row) {
	for _, l := range p.labels {
		values[l] = aggs[l]
	}
	for _, n := range p.calcNames {
		values[n] = aggs[n]
	}
	if p.opts.PercentOfTotal {
		for _, l := range p.labels {
			setRatio(values, l+" (% total)", aggs[l], p.grand[l])
		}
	}
	if p.opts.PercentOfParent && parent != nil {
		for _, l := range p.labels {
			setRatio(values, l+" (% parent)", aggs[l], parent[l])
		}
	}
}

// setRatio stores num / den under key. The key is omitted when the
// denominator is zero or not a finite number.
func setRatio(values tables.Row, key string, num, den tables.Value) {
	d, ok := den.Float()
	if !ok || d == 0 {
		return
	}
	n, _ := num.Float()
	values[key] = tables.Number(n / d)
}

func cellKey(column, label string) string {
	return column + " | " + label
}
