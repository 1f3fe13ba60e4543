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

// Package sorting orders rows by a prioritized list of keys.
package sorting

import (
	"cmp"
	"container/heap"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/google/tabula/core/tables"
)

// Direction of a sort key.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortKey is one column of the sort order. The first key is the primary one.
type SortKey struct {
	Column    string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Comparer compares cells the way the grid does: numbers numerically,
// dates chronologically and everything else by root-locale collation.
// A Comparer is not safe for concurrent use.
type Comparer struct {
	collator *collate.Collator
}

// NewComparer creates a comparer for the root locale
func NewComparer() *Comparer {
	return &Comparer{collator: collate.New(language.Und)}
}

// Compare returns -1, 0 or 1.
func (c *Comparer) Compare(a, b tables.Value) int {
	if a.Equal(b) {
		return 0
	}
	if x, ok := a.Float(); ok {
		if y, ok := b.Float(); ok {
			return compareFloat64s(x, y)
		}
	}
	if x, ok := a.Time(); ok {
		if y, ok := b.Time(); ok {
			return x.Compare(y)
		}
	}
	return c.collator.CompareString(a.String(), b.String())
}

func compareFloat64s(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// compareRows applies keys in priority order; the first difference decides.
func (c *Comparer) compareRows(a, b tables.Row, keys []SortKey) int {
	for _, k := range keys {
		d := c.Compare(a.Get(k.Column), b.Get(k.Column))
		if d == 0 {
			continue
		}
		if k.Direction == Desc {
			return -d
		}
		return d
	}
	return 0
}

// SortRows returns a stably sorted copy of rows. Rows equal on every key keep
// their input order; the input slice is left untouched.
func SortRows(rows []tables.Row, keys []SortKey) []tables.Row {
	out := append([]tables.Row(nil), rows...)
	if len(keys) == 0 {
		return out
	}
	c := NewComparer()
	sort.SliceStable(out, func(i, j int) bool {
		return c.compareRows(out[i], out[j], keys) < 0
	})
	return out
}

// topKHeap keeps the k best rows with the worst one on top. Ties are broken
// by input position so the selection matches SortRows.
type topKHeap struct {
	pos  []int
	rows []tables.Row
	keys []SortKey
	c    *Comparer
}

func (h *topKHeap) Len() int { return len(h.pos) }

func (h *topKHeap) Less(i, j int) bool { return h.compare(h.pos[i], h.pos[j]) > 0 }

func (h *topKHeap) Swap(i, j int) { h.pos[i], h.pos[j] = h.pos[j], h.pos[i] }

func (h *topKHeap) Push(x interface{}) { h.pos = append(h.pos, x.(int)) }

func (h *topKHeap) Pop() interface{} {
	old := h.pos
	n := len(old)
	x := old[n-1]
	h.pos = old[:n-1]
	return x
}

func (h *topKHeap) compare(i, j int) int {
	if c := h.c.compareRows(h.rows[i], h.rows[j], h.keys); c != 0 {
		return c
	}
	return cmp.Compare(i, j)
}

// TopRows returns the first limit rows of SortRows(rows, keys) without
// sorting the whole input.
func TopRows(rows []tables.Row, keys []SortKey, limit int) []tables.Row {
	if limit <= 0 || len(rows) == 0 {
		return []tables.Row{}
	}
	if limit >= len(rows) || len(keys) == 0 {
		sorted := SortRows(rows, keys)
		if limit < len(sorted) {
			sorted = sorted[:limit]
		}
		return sorted
	}

	h := &topKHeap{pos: make([]int, 0, limit), rows: rows, keys: keys, c: NewComparer()}
	for i := 0; i < limit; i++ {
		h.pos = append(h.pos, i)
	}
	heap.Init(h)
	for i := limit; i < len(rows); i++ {
		if h.compare(i, h.pos[0]) < 0 {
			heap.Pop(h)
			heap.Push(h, i)
		}
	}

	sort.Slice(h.pos, func(a, b int) bool { return h.compare(h.pos[a], h.pos[b]) < 0 })
	out := make([]tables.Row, len(h.pos))
	for i, p := range h.pos {
		out[i] = rows[p]
	}
	return out
}

// ToggleSort applies a header click to the current keys. Clicking a sorted
// column flips its direction; clicking a new column adds it ascending. Unless
// multi is set the result holds only the clicked column.
func ToggleSort(keys []SortKey, column string, multi bool) []SortKey {
	var toggled SortKey
	found := false
	out := make([]SortKey, 0, len(keys)+1)
	for _, k := range keys {
		if k.Column == column {
			found = true
			toggled = k
			if toggled.Direction == Asc || toggled.Direction == "" {
				toggled.Direction = Desc
			} else {
				toggled.Direction = Asc
			}
			out = append(out, toggled)
			continue
		}
		out = append(out, k)
	}
	if !found {
		toggled = SortKey{Column: column, Direction: Asc}
		out = append(out, toggled)
	}
	if !multi {
		return []SortKey{toggled}
	}
	return out
}
