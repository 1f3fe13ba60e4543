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

// Package tables holds the row data model shared by every transform stage:
// tagged cell values, schemaless rows, header discovery and column kinds.
package tables

import "sort"

// Row maps column names to cell values. Rows of one dataset need not share
// the same key set.
type Row map[string]Value

// Get returns the value for column, or null if the row has no such key.
func (r Row) Get(column string) Value {
	return r[column]
}

// Has reports whether the row carries the column at all.
func (r Row) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// Clone returns a shallow copy of the row with room for extra columns.
func (r Row) Clone(extra int) Row {
	out := make(Row, len(r)+extra)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Headers is the ordered list of effective column names.
type Headers []string

// Contains reports whether name is one of the headers.
func (h Headers) Contains(name string) bool {
	for _, x := range h {
		if x == name {
			return true
		}
	}
	return false
}

// DefaultHeaderSample is the number of leading rows scanned for column names.
const DefaultHeaderSample = 50

// CollectHeaders returns the union of keys of the first sample rows in
// first-seen order, keys of a single row taken in sorted order, followed by
// each extra name not already present. A sample <= 0 scans every row.
func CollectHeaders(rows []Row, sample int, extras ...string) Headers {
	if sample <= 0 || sample > len(rows) {
		sample = len(rows)
	}
	seen := make(map[string]bool)
	var headers Headers
	for _, row := range rows[:sample] {
		keys := make([]string, 0, len(row))
		for k := range row {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			headers = append(headers, k)
		}
	}
	for _, e := range extras {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		headers = append(headers, e)
	}
	return headers
}

// RowSet is a materialized collection of rows produced by a row source.
type RowSet struct {
	Headers Headers
	Rows    []Row
	// Hints maps a header to a source-declared type name (e.g. "DOUBLE").
	Hints map[string]string
}

// Len returns the number of rows
func (rs *RowSet) Len() int {
	return len(rs.Rows)
}
