/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors
*/

package expr

import (
	"math"

	"github.com/google/tabula/core/tables"
)

// FromCell converts a table cell into an expression value. Dates and
// large-object previews become strings.
func FromCell(v tables.Value) Value {
	switch v.Kind() {
	case tables.KindNumber:
		f, _ := v.Float()
		return NewNumber(f)
	case tables.KindBool:
		f, _ := v.Float()
		return NewBool(f == 1)
	case tables.KindText, tables.KindDate, tables.KindLargeObject:
		return NewString(v.String())
	default:
		return NilValue()
	}
}

// Cell converts an evaluation result back into a table cell. Non-finite
// numbers and non-scalar results become null.
func (v Value) Cell() tables.Value {
	switch v.typ {
	case typeNumber:
		if math.IsNaN(v.numVal) || math.IsInf(v.numVal, 0) {
			return tables.Null()
		}
		return tables.Number(v.numVal)
	case typeString:
		return tables.Text(v.strVal)
	case typeBool:
		return tables.Bool(v.boolVal)
	default:
		return tables.Null()
	}
}

// rowRecord exposes a table row as a Record
type rowRecord tables.Row

func (r rowRecord) Field(name string) (Value, bool) {
	v, ok := r[name]
	if !ok {
		return NilValue(), false
	}
	return FromCell(v), true
}

// RowEnv binds a row for derived-column formulas: col(name), row.name,
// row["name"] and bare field names.
func RowEnv(row tables.Row) Env {
	return Env{Record: rowRecord(row), LookupFunc: "col", RecordName: "row"}
}

// MeasureEnv binds an aggregate map for calculated measures: m(label) and
// m["label"].
func MeasureEnv(aggs tables.Row) Env {
	return Env{Record: rowRecord(aggs), LookupFunc: "m", RecordName: "m"}
}
