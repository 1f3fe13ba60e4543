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
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/tabula/core/tables"
)

type grain int

const (
	grainUnknown grain = iota
	grainYear
	grainQuarter
	grainMonth
	grainWeek
	grainDay
)

// period is a parsed time-grain label such as "2024", "Q1 2024",
// "2024-03", "2024-W09" or "2024-03-05". part is the quarter, month or
// week; day grain keeps the month in part.
type period struct {
	grain grain
	year  int
	part  int
	day   int
}

var (
	yearPattern    = regexp.MustCompile(`^(\d{4})$`)
	quarterPattern = regexp.MustCompile(`^Q([1-4]) (\d{4})$`)
	monthPattern   = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	weekPattern    = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)
	dayPattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// parsePeriod reads the value part of a column label "field: value".
func parsePeriod(label string) period {
	value := label
	if _, rest, ok := strings.Cut(label, ": "); ok {
		value = rest
	}
	value = strings.TrimSpace(value)

	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	if m := yearPattern.FindStringSubmatch(value); m != nil {
		return period{grain: grainYear, year: atoi(m[1])}
	}
	if m := quarterPattern.FindStringSubmatch(value); m != nil {
		return period{grain: grainQuarter, year: atoi(m[2]), part: atoi(m[1])}
	}
	if m := monthPattern.FindStringSubmatch(value); m != nil {
		if month := atoi(m[2]); month >= 1 && month <= 12 {
			return period{grain: grainMonth, year: atoi(m[1]), part: month}
		}
	}
	if m := weekPattern.FindStringSubmatch(value); m != nil {
		if week := atoi(m[2]); week >= 1 && week <= 53 {
			return period{grain: grainWeek, year: atoi(m[1]), part: week}
		}
	}
	if dayPattern.MatchString(value) {
		if t, err := time.Parse("2006-01-02", value); err == nil {
			return period{grain: grainDay, year: t.Year(), part: int(t.Month()), day: t.Day()}
		}
	}
	return period{}
}

// start returns the first instant of the period in UTC.
func (pd period) start() time.Time {
	switch pd.grain {
	case grainYear:
		return time.Date(pd.year, time.January, 1, 0, 0, 0, 0, time.UTC)
	case grainQuarter:
		return time.Date(pd.year, time.Month((pd.part-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	case grainMonth:
		return time.Date(pd.year, time.Month(pd.part), 1, 0, 0, 0, 0, time.UTC)
	case grainWeek:
		return time.Date(pd.year, time.January, 1+(pd.part-1)*7, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(pd.year, time.Month(pd.part), pd.day, 0, 0, 0, 0, time.UTC)
	}
}

// before orders periods chronologically with unparseable ones last.
func (pd period) before(o period) bool {
	if pd.grain == grainUnknown || o.grain == grainUnknown {
		return pd.grain != grainUnknown && o.grain == grainUnknown
	}
	return pd.start().Before(o.start())
}

// priorYear returns the same period one year earlier.
func (pd period) priorYear() period {
	out := pd
	out.year--
	return out
}

// fillTimeIntelligence derives MoM%, YoY%, YTD and MTD cells from the
// period columns of a row. Deltas without a prior period of the same grain,
// or whose prior value is zero, are omitted, as are deltas of labels that
// are not periods.
func (p *pivoter) fillTimeIntelligence(values tables.Row) {
	ti := p.opts.TimeIntelligence
	n := len(p.periods)
	for i := 0; i < n; i++ {
		pd := p.periods[i]
		label := p.columns[i].label
		for _, l := range p.labels {
			base := cellKey(label, l)
			cur, _ := values[base].Float()

			if ti.has(MoM) && i > 0 && pd.grain != grainUnknown && p.periods[i-1].grain == pd.grain {
				prev := values[cellKey(p.columns[i-1].label, l)]
				setDelta(values, base+" (MoM%)", cur, prev)
			}
			if ti.has(YoY) && pd.grain != grainUnknown {
				if j, ok := p.periodIndex[pd.priorYear()]; ok {
					setDelta(values, base+" (YoY%)", cur, values[cellKey(p.columns[j].label, l)])
				}
			}
			if ti.has(YTD) {
				switch pd.grain {
				case grainYear:
					values[base+" (YTD)"] = tables.Number(cur)
				case grainQuarter, grainMonth, grainWeek, grainDay:
					values[base+" (YTD)"] = tables.Number(p.accumulate(values, l, i, func(o period) bool {
						return o.grain == pd.grain && o.year == pd.year
					}))
				}
			}
			if ti.has(MTD) && pd.grain == grainDay {
				values[base+" (MTD)"] = tables.Number(p.accumulate(values, l, i, func(o period) bool {
					return o.grain == grainDay && o.year == pd.year && o.part == pd.part
				}))
			}
		}
	}
}

// accumulate sums label over columns 0..i whose period matches.
func (p *pivoter) accumulate(values tables.Row, label string, i int, match func(period) bool) float64 {
	acc := 0.0
	for j := 0; j <= i; j++ {
		if !match(p.periods[j]) {
			continue
		}
		f, _ := values[cellKey(p.columns[j].label, label)].Float()
		acc += f
	}
	return acc
}

// setDelta stores (cur - prev) / prev under key unless prev is zero or not
// a number.
func setDelta(values tables.Row, key string, cur float64, prev tables.Value) {
	pv, ok := prev.Float()
	if !ok || pv == 0 {
		return
	}
	values[key] = tables.Number((cur - pv) / pv)
}
