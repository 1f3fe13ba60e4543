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

package tables

import "strings"

// ColumnKind classifies a column for comparison and aggregation.
type ColumnKind int

const (
	ColumnGeneric ColumnKind = iota
	ColumnNumeric
)

// String returns "numeric" or "generic"
func (k ColumnKind) String() string {
	if k == ColumnNumeric {
		return "numeric"
	}
	return "generic"
}

// MarshalText encodes the kind by name so kind maps serialize readably.
func (k ColumnKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// KindSampleSize is the number of leading rows inspected per column.
const KindSampleSize = 50

// numericHintWords mark a schema type name as numeric.
var numericHintWords = []string{"number", "numeric", "float", "double", "decimal", "integer", "int"}

// IsNumericHint reports whether a source-declared type name denotes numbers.
func IsNumericHint(typeName string) bool {
	t := strings.ToLower(typeName)
	for _, w := range numericHintWords {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

// InferColumnKinds classifies each header by sampling up to KindSampleSize
// rows. A column is numeric when it has at least one non-empty sample and all
// non-empty samples coerce to a finite number. A column without a single
// numeric sample falls back to hints, when present.
func InferColumnKinds(rows []Row, headers Headers, hints map[string]string) map[string]ColumnKind {
	n := len(rows)
	if n > KindSampleSize {
		n = KindSampleSize
	}
	sample := rows[:n]

	kinds := make(map[string]ColumnKind, len(headers))
	for _, h := range headers {
		nonEmpty, numeric := 0, 0
		for _, row := range sample {
			v := row.Get(h)
			if v.IsNull() || v.String() == "" {
				continue
			}
			nonEmpty++
			if _, ok := v.Float(); ok {
				numeric++
			}
		}
		switch {
		case numeric > 0 && numeric == nonEmpty:
			kinds[h] = ColumnNumeric
		case numeric == 0 && hints != nil && IsNumericHint(hints[h]):
			kinds[h] = ColumnNumeric
		default:
			kinds[h] = ColumnGeneric
		}
	}
	return kinds
}
