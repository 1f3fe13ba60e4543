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

// Package views runs a query over a row set: filter, derive, bucket, then
// either sort or pivot.
package views

import (
	"log"
	"time"

	"github.com/google/tabula/core/buckets"
	"github.com/google/tabula/core/derived"
	"github.com/google/tabula/core/filters"
	"github.com/google/tabula/core/pivot"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/tables"
)

// Debug enables per-stage timing logs.
var Debug = false

// StageTiming records how long one stage took and how many rows it produced.
type StageTiming struct {
	Stage    string
	Duration time.Duration
	Rows     int
}

// Output is the computed view.
type Output struct {
	// Headers are the base headers followed by derived and bucket columns.
	Headers tables.Headers
	// Columns are the visible headers in display order.
	Columns []string
	Kinds   map[string]tables.ColumnKind

	// Rows are the flat rows after sorting and limiting. They are empty in
	// the pivot view.
	Rows []tables.Row
	// SourceRows counts the input rows, TotalRows the rows that passed the
	// filters.
	SourceRows  int
	TotalRows   int
	HasMoreRows bool

	// Pivot and Drill are set in the pivot view. Drill resolves the group
	// key of a pivot row to the rows behind it.
	Pivot *pivot.Result
	Drill *pivot.DrillIndex

	Timings []StageTiming
}

// Compute applies q to rows. hints are the source-declared column types used
// when sampling cannot tell a column's kind. rows are not modified.
func Compute(rows []tables.Row, q *query.Query, hints map[string]string) *Output {
	if q == nil {
		q = query.New()
	}
	out := &Output{SourceRows: len(rows)}
	start := time.Now()

	base := tables.CollectHeaders(rows, tables.DefaultHeaderSample, q.Headers...)

	filtered := out.stage("filter", func() []tables.Row {
		return filters.ApplyFilters(rows, q.Filters, base)
	})
	out.TotalRows = len(filtered)

	prepared := out.stage("derive", func() []tables.Row {
		return derived.EvaluateDerived(filtered, q.Derived)
	})
	prepared = out.stage("bucket", func() []tables.Row {
		return buckets.ApplyBuckets(prepared, q.Buckets)
	})

	headers := append(tables.Headers(nil), base...)
	for _, name := range derived.Names(q.Derived) {
		if !headers.Contains(name) {
			headers = append(headers, name)
		}
	}
	for _, name := range buckets.Headers(q.Buckets) {
		if !headers.Contains(name) {
			headers = append(headers, name)
		}
	}
	out.Headers = headers
	out.Columns = q.VisibleColumns(headers)
	out.Kinds = tables.InferColumnKinds(prepared, headers, hints)

	if q.PivotActive() {
		cfg := *q.Pivot
		out.stage("pivot", func() []tables.Row {
			out.Pivot = pivot.ComputePivot(prepared, cfg)
			return nil
		})
		out.Drill = pivot.NewDrillIndex(prepared, cfg.RowAxis)
		if Debug {
			log.Printf("[views] pivot ready=%v rows=%d levels=%d labels=%d columns=%d",
				out.Pivot.Ready, len(out.Pivot.Rows), len(cfg.RowAxis), len(out.Pivot.MeasureLabels), len(out.Pivot.ColumnLabels))
		}
	} else {
		out.Rows = out.stage("sort", func() []tables.Row {
			if q.Limit > 0 && len(q.Sort) > 0 {
				return sorting.TopRows(prepared, q.Sort, q.Limit)
			}
			sorted := sorting.SortRows(prepared, q.Sort)
			if q.Limit > 0 && len(sorted) > q.Limit {
				sorted = sorted[:q.Limit]
			}
			return sorted
		})
		out.HasMoreRows = len(out.Rows) < len(prepared)
	}

	if Debug {
		log.Printf("[views] computed in %v (source=%d, filtered=%d, headers=%d)",
			time.Since(start), out.SourceRows, out.TotalRows, len(out.Headers))
	}
	return out
}

// stage runs fn, records its timing and returns its rows.
func (o *Output) stage(name string, fn func() []tables.Row) []tables.Row {
	start := time.Now()
	rows := fn()
	t := StageTiming{Stage: name, Duration: time.Since(start), Rows: len(rows)}
	o.Timings = append(o.Timings, t)
	if Debug {
		log.Printf("[views] %s: %v (rows=%d)", t.Stage, t.Duration, t.Rows)
	}
	return rows
}

// DrillRows returns the prepared rows behind a pivot row's group key, or
// nil outside the pivot view.
func (o *Output) DrillRows(groupKey map[string]string) []tables.Row {
	if o.Drill == nil {
		return nil
	}
	return o.Drill.Rows(groupKey)
}
