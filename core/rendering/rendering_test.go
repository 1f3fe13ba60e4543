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
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/tabula/core/pivot"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/tables"
	"github.com/google/tabula/core/views"
)

func sampleRows() []tables.Row {
	return []tables.Row{
		{"region": tables.Text("North"), "revenue": tables.Number(125000)},
		{"region": tables.Text("South"), "revenue": tables.Number(98000)},
	}
}

func TestRenderRows(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextRenderer().RenderRows(&buf, []string{"region", "revenue"}, sampleRows()); err != nil {
		t.Fatalf("RenderRows() error = %v", err)
	}
	want := "" +
		"|region|revenue|\n" +
		"|------|-------|\n" +
		"|North | 125000|\n" +
		"|South |  98000|\n"
	if got := buf.String(); got != want {
		t.Errorf("RenderRows() =\n%s\nwant\n%s", got, want)
	}
}

func TestClipAndWidth(t *testing.T) {
	tests := []struct {
		name string
		max  int
		in   string
		want string
	}{
		{"short", 10, "abc", "abc"},
		{"clipped", 4, "abcdef", "abc…"},
		{"wide runes", 5, "日本語です", "日本…"},
		{"no cap", 0, "abcdef", "abcdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &TextRenderer{MaxCellWidth: tt.max}
			if got := r.clip(tt.in); got != tt.want {
				t.Errorf("clip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
	if got := displayWidth("日本"); got != 4 {
		t.Errorf("displayWidth() = %d, want 4", got)
	}
}

func TestRenderPivot(t *testing.T) {
	cfg := pivot.DefaultConfig()
	cfg.RowAxis = []string{"region"}
	cfg.Measures = []string{"revenue"}
	cfg.Options.PercentOfTotal = true
	res := pivot.ComputePivot(sampleRows(), cfg)

	if got := ValueColumns(res, AxisColumns(cfg)); strings.Join(got, ",") != "revenue (sum),revenue (sum) (% total)" {
		t.Errorf("ValueColumns() = %v", got)
	}

	var buf bytes.Buffer
	if err := NewTextRenderer().RenderPivot(&buf, res, AxisColumns(cfg)); err != nil {
		t.Fatalf("RenderPivot() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[4], "|Grand Total|") {
		t.Errorf("last line = %q", lines[4])
	}
}

func TestRenderPivotSingleLabels(t *testing.T) {
	rows := []tables.Row{
		{"region": tables.Text("North"), "product": tables.Text("A"), "units": tables.Number(1)},
	}
	cfg := pivot.DefaultConfig()
	cfg.RowAxis = []string{"region", "product"}
	cfg.Measures = []string{"units"}
	cfg.Options.RowLabels = pivot.Single
	cfg.Options.SubtotalPosition = pivot.Above
	res := pivot.ComputePivot(rows, cfg)

	axis := AxisColumns(cfg)
	if got := ValueColumns(res, axis); strings.Join(got, ",") != "units (sum)" {
		t.Errorf("ValueColumns() = %v", got)
	}
	var buf bytes.Buffer
	if err := NewTextRenderer().RenderPivot(&buf, res, axis); err != nil {
		t.Fatalf("RenderPivot() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 || !strings.HasPrefix(lines[2], "|North ") || !strings.HasPrefix(lines[3], "|  A ") {
		t.Errorf("unexpected layout:\n%s", buf.String())
	}
}

func TestCrossTabValueColumns(t *testing.T) {
	rows := []tables.Row{
		{"region": tables.Text("North"), "year": tables.Number(2024), "rev": tables.Number(1)},
		{"region": tables.Text("North"), "year": tables.Number(2023), "rev": tables.Number(2)},
	}
	cfg := pivot.DefaultConfig()
	cfg.RowAxis = []string{"region"}
	cfg.ColAxis = []string{"year"}
	cfg.Measures = []string{"rev"}
	cfg.Options.PercentOfRow = true
	res := pivot.ComputePivot(rows, cfg)

	want := []string{
		"year: 2023 | rev (sum)", "year: 2023 | rev (sum) (% row)",
		"year: 2024 | rev (sum)", "year: 2024 | rev (sum) (% row)",
		"Grand Total | rev (sum)", "Grand Total | rev (sum) (% row)",
	}
	if got := ValueColumns(res, AxisColumns(cfg)); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ValueColumns() = %v, want %v", got, want)
	}
}

func TestRenderUnreadyPivot(t *testing.T) {
	var buf bytes.Buffer
	res := pivot.ComputePivot(sampleRows(), pivot.DefaultConfig())
	if err := NewTextRenderer().RenderPivot(&buf, res, nil); err != nil {
		t.Fatalf("RenderPivot() error = %v", err)
	}
	if !strings.Contains(buf.String(), "needs configuration") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestRenderJSON(t *testing.T) {
	q := query.New()
	q.Columns = []string{"region"}
	out := views.Compute(sampleRows(), q, nil)

	var buf bytes.Buffer
	if err := RenderJSON(&buf, out); err != nil {
		t.Fatalf("RenderJSON() error = %v", err)
	}
	var decoded struct {
		Kinds map[string]string   `json:"kinds"`
		Rows  []map[string]any    `json:"rows"`
		Pivot *struct{ Ready bool } `json:"pivot"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(decoded.Rows) != 2 || decoded.Rows[0]["region"] != "North" {
		t.Errorf("rows = %v", decoded.Rows)
	}
	if _, ok := decoded.Rows[0]["revenue"]; ok {
		t.Error("hidden column rendered")
	}
	if decoded.Kinds["revenue"] != "numeric" || decoded.Pivot != nil {
		t.Errorf("kinds = %v, pivot = %v", decoded.Kinds, decoded.Pivot)
	}
}
