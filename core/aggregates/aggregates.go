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

// Package aggregates provides the aggregation primitives used by pivots.
// A NumericState accumulates one measure over a group of rows and can be
// combined with sibling states to form the state of a parent group.
package aggregates

import (
	"fmt"
	"math"

	"github.com/google/tabula/core/tables"
)

// Func names an aggregation function.
type Func string

const (
	Sum   Func = "sum"
	Avg   Func = "avg"
	Count Func = "count"
	Min   Func = "min"
	Max   Func = "max"
)

// Valid reports whether f is a known function
func (f Func) Valid() bool {
	switch f {
	case Sum, Avg, Count, Min, Max:
		return true
	}
	return false
}

// Label returns the result key of a (measure, function) pair, e.g.
// "revenue (sum)".
func Label(measure string, fn Func) string {
	return fmt.Sprintf("%s (%s)", measure, fn)
}

// Labels returns the labels of every measure and function pair, measures
// outermost.
func Labels(measures []string, funcs []Func) []string {
	labels := make([]string, 0, len(measures)*len(funcs))
	for _, m := range measures {
		for _, f := range funcs {
			labels = append(labels, Label(m, f))
		}
	}
	return labels
}

// NumericState stores intermediate state for one measure.
// Rows counts every row seen; Count only those with a numeric value.
type NumericState struct {
	Rows  int64   // Number of rows
	Count int64   // Number of numeric values
	Sum   float64 // Sum of numeric values
	Min   float64 // Minimum numeric value
	Max   float64 // Maximum numeric value
}

// NewNumericState creates a new empty state.
func NewNumericState() *NumericState {
	return &NumericState{
		Min: math.MaxFloat64,
		Max: -math.MaxFloat64,
	}
}

// Add adds one cell. Cells that do not coerce to a finite number are
// counted as rows but excluded from sum, avg, min and max.
func (s *NumericState) Add(v tables.Value) {
	s.Rows++
	if f, ok := v.Float(); ok {
		s.AddFloat(f)
	}
}

// AddFloat adds a numeric value without counting a row.
func (s *NumericState) AddFloat(value float64) {
	s.Count++
	s.Sum += value
	if value < s.Min {
		s.Min = value
	}
	if value > s.Max {
		s.Max = value
	}
}

// Combine merges another state into this one.
func (s *NumericState) Combine(o *NumericState) {
	if o == nil {
		return
	}
	s.Rows += o.Rows
	if o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.Sum += o.Sum
	if o.Min < s.Min {
		s.Min = o.Min
	}
	if o.Max > s.Max {
		s.Max = o.Max
	}
}

// Avg returns the mean of the numeric values, or 0 when there are none.
func (s *NumericState) Avg() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Result returns the value of fn over the state. Min and max of a state
// with no numeric values are null, as is any unknown function.
func (s *NumericState) Result(fn Func) tables.Value {
	switch fn {
	case Sum:
		return tables.Number(s.Sum)
	case Avg:
		return tables.Number(s.Avg())
	case Count:
		return tables.Number(float64(s.Rows))
	case Min:
		if s.Count == 0 {
			return tables.Null()
		}
		return tables.Number(s.Min)
	case Max:
		if s.Count == 0 {
			return tables.Null()
		}
		return tables.Number(s.Max)
	default:
		return tables.Null()
	}
}

// Accumulate builds one state per measure over rows.
func Accumulate(rows []tables.Row, measures []string) map[string]*NumericState {
	states := make(map[string]*NumericState, len(measures))
	for _, m := range measures {
		if _, ok := states[m]; !ok {
			states[m] = NewNumericState()
		}
	}
	for _, r := range rows {
		for m, s := range states {
			s.Add(r.Get(m))
		}
	}
	return states
}

// Compute aggregates rows into a map from label to value for every measure
// and function pair.
func Compute(rows []tables.Row, measures []string, funcs []Func) tables.Row {
	return Results(Accumulate(rows, measures), measures, funcs)
}

// Results renders accumulated states as a label to value map.
func Results(states map[string]*NumericState, measures []string, funcs []Func) tables.Row {
	out := make(tables.Row, len(measures)*len(funcs))
	for _, m := range measures {
		s := states[m]
		if s == nil {
			s = NewNumericState()
		}
		for _, f := range funcs {
			out[Label(m, f)] = s.Result(f)
		}
	}
	return out
}
