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

package filters

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/tabula/core/tables"
)

// Numeric operators
const (
	OpEq      = "="
	OpNe      = "!="
	OpGt      = ">"
	OpGe      = ">="
	OpLt      = "<"
	OpLe      = "<="
	OpBetween = "between"
)

// String operators
const (
	OpContains    = "contains"
	OpEquals      = "equals"
	OpStartsWith  = "startsWith"
	OpEndsWith    = "endsWith"
	OpNotContains = "notContains"
	OpIsEmpty     = "isEmpty"
	OpNotEmpty    = "notEmpty"
)

// IsNumericOperator reports whether op compares numerically.
func IsNumericOperator(op string) bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe, OpBetween:
		return true
	}
	return false
}

// IsOperator reports whether op is a known filter operator.
func IsOperator(op string) bool {
	switch op {
	case OpContains, OpEquals, OpStartsWith, OpEndsWith, OpNotContains, OpIsEmpty, OpNotEmpty:
		return true
	}
	return IsNumericOperator(op)
}

// matches evaluates one filter against a cell. Numeric operators compare
// numerically whatever the column kind, and a cell that is not a finite
// number fails them. Unknown operators pass.
func (f *filterer) matches(cell tables.Value, s Spec) bool {
	if s.Operator == "" {
		return true
	}
	if IsNumericOperator(s.Operator) {
		n, ok := cell.Float()
		if !ok {
			return false
		}
		a := operandFloat(s.Value)
		switch s.Operator {
		case OpEq:
			return n == a
		case OpNe:
			return n != a
		case OpGt:
			return n > a
		case OpGe:
			return n >= a
		case OpLt:
			return n < a
		case OpLe:
			return n <= a
		case OpBetween:
			b := operandFloat(s.Value2)
			if !isFinite(a) || !isFinite(b) {
				return true
			}
			return n >= math.Min(a, b) && n <= math.Max(a, b)
		}
		return true
	}

	v := f.lower(cell.String())
	t := f.lower(string(s.Value))
	switch s.Operator {
	case OpContains:
		return strings.Contains(v, t)
	case OpEquals:
		return v == t
	case OpStartsWith:
		return strings.HasPrefix(v, t)
	case OpEndsWith:
		return strings.HasSuffix(v, t)
	case OpNotContains:
		return !strings.Contains(v, t)
	case OpIsEmpty:
		return v == ""
	case OpNotEmpty:
		return v != ""
	}
	return true
}

// operandFloat parses a comparison value; anything unparsable is NaN so
// that ordered comparisons fail.
func operandFloat(o Operand) float64 {
	s := strings.TrimSpace(string(o))
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
