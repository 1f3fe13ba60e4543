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

// Package derived adds formula-computed columns to rows.
package derived

import (
	"github.com/google/tabula/core/expr"
	"github.com/google/tabula/core/tables"
)

// Def is a user-defined derived column.
type Def struct {
	Name    string `json:"name"`
	Formula string `json:"formula"`
	// Enabled is a pointer so that an omitted field means enabled.
	Enabled *bool `json:"enabled,omitempty"`
}

// IsEnabled reports whether the column is computed.
func (d Def) IsEnabled() bool {
	return d.Name != "" && (d.Enabled == nil || *d.Enabled)
}

// Active returns the enabled, named definitions in order.
func Active(defs []Def) []Def {
	var out []Def
	for _, d := range defs {
		if d.IsEnabled() {
			out = append(out, d)
		}
	}
	return out
}

// Names returns the names of the active definitions.
func Names(defs []Def) []string {
	var names []string
	for _, d := range Active(defs) {
		names = append(names, d.Name)
	}
	return names
}

var sharedCache = expr.NewCache()

// Evaluator computes derived columns using a compile cache.
type Evaluator struct {
	cache *expr.Cache
}

// NewEvaluator creates an evaluator over cache. A nil cache uses the
// package-wide cache.
func NewEvaluator(cache *expr.Cache) *Evaluator {
	if cache == nil {
		cache = sharedCache
	}
	return &Evaluator{cache: cache}
}

// EvaluateDerived adds the active definitions to copies of rows using the
// package-wide cache.
func EvaluateDerived(rows []tables.Row, defs []Def) []tables.Row {
	return NewEvaluator(nil).Evaluate(rows, defs)
}

// Evaluate returns shallow copies of rows with one extra key per active
// definition. Formulas see only the input row, so a derived column cannot
// read another derived column of the same pass. Any failure yields null.
func (e *Evaluator) Evaluate(rows []tables.Row, defs []Def) []tables.Row {
	active := Active(defs)
	if len(active) == 0 || len(rows) == 0 {
		return rows
	}

	compiled := make([]*expr.Expression, len(active))
	for i, d := range active {
		// A failed compile leaves nil and the column is null throughout.
		compiled[i], _ = e.cache.Compile(d.Formula)
	}

	out := make([]tables.Row, len(rows))
	for i, r := range rows {
		row := r.Clone(len(active))
		env := expr.RowEnv(r)
		for j, d := range active {
			row[d.Name] = evalCell(compiled[j], env)
		}
		out[i] = row
	}
	return out
}

// EvalCell evaluates one formula against one row with fail-soft semantics.
func (e *Evaluator) EvalCell(formula string, row tables.Row) tables.Value {
	compiled, _ := e.cache.Compile(formula)
	return evalCell(compiled, expr.RowEnv(row))
}

func evalCell(compiled *expr.Expression, env expr.Env) tables.Value {
	if compiled == nil {
		return tables.Null()
	}
	v, err := compiled.Eval(env)
	if err != nil {
		return tables.Null()
	}
	return v.Cell()
}
