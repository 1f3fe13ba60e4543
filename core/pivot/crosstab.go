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
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/tables"
)

// tupleSep joins column-axis values into a column key.
const tupleSep = "\x1f"

// columnOf returns the column key and label of a row, e.g.
// "region: North | year: 2024".
func (p *pivoter) columnOf(r tables.Row) (key, label string) {
	values := make([]string, len(p.colAxis))
	parts := make([]string, len(p.colAxis))
	for i, c := range p.colAxis {
		values[i] = r.Get(c).String()
		parts[i] = c + ": " + values[i]
	}
	return strings.Join(values, tupleSep), strings.Join(parts, " | ")
}

// columnKeys collects the distinct column keys of rows. Keys sort by
// collation of their labels, or chronologically when the labels are time
// periods. The grand-total column comes last.
func (p *pivoter) columnKeys(rows []tables.Row) []columnKey {
	seen := make(map[string]bool)
	var keys []columnKey
	for _, r := range rows {
		key, label := p.columnOf(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, columnKey{key: key, label: label})
	}

	cmp := sorting.NewComparer()
	sort.SliceStable(keys, func(i, j int) bool {
		return cmp.Compare(tables.Text(keys[i].label), tables.Text(keys[j].label)) < 0
	})

	if p.timeIntel {
		periods := make(map[string]period, len(keys))
		for _, k := range keys {
			periods[k.key] = parsePeriod(k.label)
		}
		sort.SliceStable(keys, func(i, j int) bool {
			return periods[keys[i].key].before(periods[keys[j].key])
		})
		p.periods = make([]period, len(keys))
		p.periodIndex = make(map[period]int, len(keys))
		for i, k := range keys {
			pd := periods[k.key]
			p.periods[i] = pd
			if pd.grain != grainUnknown {
				p.periodIndex[pd] = i
			}
		}
	}

	if p.opts.ShowGrandTotal {
		keys = append(keys, columnKey{label: GrandTotalLabel, grand: true})
	}
	return keys
}

// partition splits rows by column key.
func (p *pivoter) partition(rows []tables.Row) map[string][]tables.Row {
	parts := make(map[string][]tables.Row)
	for _, r := range rows {
		key, _ := p.columnOf(r)
		parts[key] = append(parts[key], r)
	}
	return parts
}

// fillCrossTab writes one cell per column and aggregate label, keyed
// "<column label> | <label>". The grand-total column combines the states of
// the other columns.
func (p *pivoter) fillCrossTab(values tables.Row, rows []tables.Row) {
	parts := p.partition(rows)
	total := make(map[string]*aggregates.NumericState, len(p.measures))
	for _, m := range p.measures {
		total[m] = aggregates.NewNumericState()
	}
	cells := make(map[string]tables.Row, len(p.columns))
	for _, c := range p.columns {
		if c.grand {
			continue
		}
		states := aggregates.Accumulate(parts[c.key], p.measures)
		for m, st := range states {
			total[m].Combine(st)
		}
		cells[c.key] = p.results(states)
	}
	for _, c := range p.columns {
		aggs := cells[c.key]
		if c.grand {
			aggs = p.results(total)
		}
		for _, l := range p.labels {
			values[cellKey(c.label, l)] = aggs[l]
		}
		for _, n := range p.calcNames {
			values[cellKey(c.label, n)] = aggs[n]
		}
	}

	if p.timeIntel {
		p.fillTimeIntelligence(values)
	}

	if p.opts.PercentOfRow {
		for _, l := range p.labels {
			total := 0.0
			for _, c := range p.columns {
				if c.grand {
					continue
				}
				f, _ := values[cellKey(c.label, l)].Float()
				total += f
			}
			for _, c := range p.columns {
				key := cellKey(c.label, l)
				setRatio(values, key+" (% row)", values[key], tables.Number(total))
			}
		}
	}
}
