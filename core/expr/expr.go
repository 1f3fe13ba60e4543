/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors

Package expr provides the sandboxed formula language used by derived columns
and calculated pivot measures.
It supports:
  - Field lookup through a function binding: col("price"), m("revenue (sum)")
  - Record access: row.price, row["unit price"], bare field names
  - Arithmetic operators: +, -, *, /, //, %, **
  - Comparison operators: ==, ===, !=, !==, <, >, <=, >=
  - Logical operators: and, or, not, &&, ||, !
  - Conditionals: cond ? a : b
  - String concatenation with +
  - Literals: 123, 3.14, 1e6, "hello", 'hello', true, false, null
  - The Math namespace: Math.abs(), Math.round(), Math.pow(), Math.PI, ...
  - Built-in functions: len(), str(), int(), float(), abs(), round(), min(), max(),
    concat(), upper(), lower(), strip(), replace(), substr(), coalesce(),
    year(), month(), quarter(), day(), date_diff()
  - String methods: .upper(), .lower(), .strip(), .startswith(), .endswith(),
    .contains(), .replace(), .capitalize(), .count(), .find()
*/
package expr

import "fmt"

// Record is a set of named fields visible to an expression.
type Record interface {
	Field(name string) (Value, bool)
}

// Env declares the bindings of one evaluation. LookupFunc names the function
// that reads a field by name and fails when it is missing. RecordName names
// the identifier bound to the record itself, whose attribute and subscript
// access yield null for missing fields.
type Env struct {
	Record     Record
	LookupFunc string
	RecordName string
}

// Expression represents a compiled expression ready for evaluation
type Expression struct {
	source string
	ast    Node
}

// Compile parses and compiles an expression string
func Compile(source string) (*Expression, error) {
	if source == "" {
		return nil, fmt.Errorf("empty expression")
	}

	parser := NewParser(source)
	ast, err := parser.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return &Expression{
		source: source,
		ast:    ast,
	}, nil
}

// Source returns the original expression source
func (e *Expression) Source() string {
	return e.source
}

// Eval evaluates the expression in env
func (e *Expression) Eval(env Env) (Value, error) {
	return NewEvaluator(e.ast, env).Eval()
}

// EvalNumber evaluates the expression and returns the result as a number
func (e *Expression) EvalNumber(env Env) (float64, error) {
	val, err := e.Eval(env)
	if err != nil {
		return 0, err
	}
	if !val.IsNumber() {
		return 0, fmt.Errorf("expression result is not a number")
	}
	return val.AsNumber(), nil
}
