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

package rendering

import (
	"encoding/json"
	"io"

	"github.com/google/tabula/core/tables"
	"github.com/google/tabula/core/views"
)

type jsonPivot struct {
	Ready         bool             `json:"ready"`
	MeasureLabels []string         `json:"measureLabels"`
	ColumnLabels  []string         `json:"columnLabels,omitempty"`
	Rows          []map[string]any `json:"rows"`
}

type jsonView struct {
	Headers     []string                     `json:"headers"`
	Columns     []string                     `json:"columns"`
	Kinds       map[string]tables.ColumnKind `json:"kinds"`
	Rows        []map[string]tables.Value    `json:"rows,omitempty"`
	SourceRows  int                          `json:"sourceRows"`
	TotalRows   int                          `json:"totalRows"`
	HasMoreRows bool                         `json:"hasMoreRows"`
	Pivot       *jsonPivot                   `json:"pivot,omitempty"`
}

// RenderJSON writes the view as one indented JSON document. Flat rows carry
// only the visible columns; pivot rows are flattened with their
// _isSubtotal, _isGrandTotal, _level and _groupKey annotations.
func RenderJSON(w io.Writer, out *views.Output) error {
	v := jsonView{
		Headers:     out.Headers,
		Columns:     out.Columns,
		Kinds:       out.Kinds,
		SourceRows:  out.SourceRows,
		TotalRows:   out.TotalRows,
		HasMoreRows: out.HasMoreRows,
	}
	if out.Pivot != nil {
		v.Pivot = &jsonPivot{
			Ready:         out.Pivot.Ready,
			MeasureLabels: out.Pivot.MeasureLabels,
			ColumnLabels:  out.Pivot.ColumnLabels,
			Rows:          out.Pivot.Flatten(),
		}
	} else {
		v.Rows = make([]map[string]tables.Value, len(out.Rows))
		for i, r := range out.Rows {
			row := make(map[string]tables.Value, len(out.Columns))
			for _, c := range out.Columns {
				row[c] = r.Get(c)
			}
			v.Rows[i] = row
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
