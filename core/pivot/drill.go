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
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/google/tabula/core/tables"
)

// DrillIndex finds the rows behind a pivot row. It keeps one posting
// bitmap per (column, value) of the indexed columns, usually the row axis.
// A DrillIndex is read-only after construction and safe for concurrent use.
type DrillIndex struct {
	rows     []tables.Row
	postings map[string]map[string]*roaring.Bitmap
}

// NewDrillIndex indexes columns over rows. Rows must be the same slice the
// pivot was computed from.
func NewDrillIndex(rows []tables.Row, columns []string) *DrillIndex {
	d := &DrillIndex{
		rows:     rows,
		postings: make(map[string]map[string]*roaring.Bitmap, len(columns)),
	}
	for _, c := range columns {
		if _, ok := d.postings[c]; ok {
			continue
		}
		byValue := make(map[string]*roaring.Bitmap)
		for i, r := range rows {
			v := r.Get(c).String()
			bm, ok := byValue[v]
			if !ok {
				bm = roaring.New()
				byValue[v] = bm
			}
			bm.Add(uint32(i))
		}
		d.postings[c] = byValue
	}
	return d
}

// Match returns the positions of rows matching every entry of groupKey.
// An empty key matches every row.
func (d *DrillIndex) Match(groupKey map[string]string) *roaring.Bitmap {
	result := roaring.New()
	result.AddRange(0, uint64(len(d.rows)))
	for col, want := range groupKey {
		byValue, ok := d.postings[col]
		if !ok {
			result.And(d.scan(col, want))
			continue
		}
		bm, ok := byValue[want]
		if !ok {
			return roaring.New()
		}
		result.And(bm)
	}
	return result
}

// scan matches a column that was not indexed.
func (d *DrillIndex) scan(col, want string) *roaring.Bitmap {
	bm := roaring.New()
	for i, r := range d.rows {
		if r.Get(col).String() == want {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// Rows returns the rows matching groupKey in input order.
func (d *DrillIndex) Rows(groupKey map[string]string) []tables.Row {
	m := d.Match(groupKey)
	out := make([]tables.Row, 0, m.GetCardinality())
	it := m.Iterator()
	for it.HasNext() {
		out = append(out, d.rows[it.Next()])
	}
	return out
}
