/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors
*/

package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/tabula/core/tables"
)

// Value represents a runtime value
type Value struct {
	typ     valueType
	numVal  float64
	strVal  string
	boolVal bool
	rec     Record
}

type valueType int

const (
	typeNil       valueType = iota // Nil/null value
	typeNumber                     // Floating-point value
	typeString                     // String value
	typeBool                       // Boolean value
	typeRecord                     // Field lookup (row or aggregate map)
	typeNamespace                  // Built-in namespace such as Math
)

// NewNumber creates a numeric value
func NewNumber(n float64) Value {
	return Value{typ: typeNumber, numVal: n}
}

// NewString creates a string value
func NewString(s string) Value {
	return Value{typ: typeString, strVal: s}
}

// NewBool creates a boolean value
func NewBool(b bool) Value {
	return Value{typ: typeBool, boolVal: b}
}

// NilValue returns a nil value
func NilValue() Value {
	return Value{typ: typeNil}
}

func recordValue(r Record) Value {
	return Value{typ: typeRecord, rec: r}
}

func namespaceValue(name string) Value {
	return Value{typ: typeNamespace, strVal: name}
}

// IsNumber checks if value is a number
func (v Value) IsNumber() bool { return v.typ == typeNumber }

// IsString checks if value is a string
func (v Value) IsString() bool { return v.typ == typeString }

// IsBool checks if value is a boolean
func (v Value) IsBool() bool { return v.typ == typeBool }

// IsNil checks if value is nil
func (v Value) IsNil() bool { return v.typ == typeNil }

// AsNumber returns the numeric value
func (v Value) AsNumber() float64 {
	if v.typ == typeNumber {
		return v.numVal
	}
	return 0
}

// TypeName returns a human-readable name for the value's type
func (v Value) TypeName() string {
	switch v.typ {
	case typeNumber:
		return "number"
	case typeString:
		return "string"
	case typeBool:
		return "bool"
	case typeNil:
		return "null"
	case typeRecord:
		return "record"
	case typeNamespace:
		return "namespace"
	default:
		return "unknown"
	}
}

// AsString returns the string value
func (v Value) AsString() string {
	switch v.typ {
	case typeString:
		return v.strVal
	case typeNumber:
		return tables.FormatNumber(v.numVal)
	case typeBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	case typeRecord:
		return "[record]"
	case typeNamespace:
		return v.strVal
	default:
		return ""
	}
}

// AsBool returns the boolean value (truthy evaluation)
func (v Value) AsBool() bool {
	switch v.typ {
	case typeBool:
		return v.boolVal
	case typeNumber:
		return v.numVal != 0 && !math.IsNaN(v.numVal)
	case typeString:
		return v.strVal != ""
	case typeRecord, typeNamespace:
		return true
	default:
		return false
	}
}

// toNumber coerces an operand for arithmetic. Numeric text and booleans
// convert; everything else is a type error.
func toNumber(v Value) (float64, bool) {
	switch v.typ {
	case typeNumber:
		return v.numVal, true
	case typeBool:
		if v.boolVal {
			return 1, true
		}
		return 0, true
	case typeString:
		s := strings.TrimSpace(v.strVal)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		return n, err == nil
	}
	return 0, false
}

// Evaluator evaluates an expression AST against an environment
type Evaluator struct {
	ast Node
	env Env
}

// NewEvaluator creates a new evaluator
func NewEvaluator(ast Node, env Env) *Evaluator {
	return &Evaluator{ast: ast, env: env}
}

// Eval evaluates the expression
func (e *Evaluator) Eval() (Value, error) {
	return e.eval(e.ast)
}

func (e *Evaluator) eval(node Node) (Value, error) {
	switch n := node.(type) {
	case *NumberLit:
		return NewNumber(n.Value), nil

	case *StringLit:
		return NewString(n.Value), nil

	case *BoolLit:
		return NewBool(n.Value), nil

	case *NullLit:
		return NilValue(), nil

	case *Ident:
		return e.resolve(n.Name)

	case *UnaryOp:
		val, err := e.eval(n.Expr)
		if err != nil {
			return NilValue(), err
		}
		switch n.Op {
		case TOKEN_MINUS:
			f, ok := toNumber(val)
			if !ok {
				return NilValue(), fmt.Errorf("cannot negate %s", val.TypeName())
			}
			return NewNumber(-f), nil
		case TOKEN_PLUS:
			f, ok := toNumber(val)
			if !ok {
				return NilValue(), fmt.Errorf("cannot convert %s to number", val.TypeName())
			}
			return NewNumber(f), nil
		case TOKEN_NOT, TOKEN_BANG:
			return NewBool(!val.AsBool()), nil
		}

	case *BinaryOp:
		left, err := e.eval(n.Left)
		if err != nil {
			return NilValue(), err
		}

		// Short-circuit for and/or
		if n.Op == TOKEN_AND {
			if !left.AsBool() {
				return NewBool(false), nil
			}
			right, err := e.eval(n.Right)
			if err != nil {
				return NilValue(), err
			}
			return NewBool(right.AsBool()), nil
		}
		if n.Op == TOKEN_OR {
			if left.AsBool() {
				return NewBool(true), nil
			}
			right, err := e.eval(n.Right)
			if err != nil {
				return NilValue(), err
			}
			return NewBool(right.AsBool()), nil
		}

		right, err := e.eval(n.Right)
		if err != nil {
			return NilValue(), err
		}

		return evalBinaryOp(n.Op, left, right)

	case *CondExpr:
		cond, err := e.eval(n.Cond)
		if err != nil {
			return NilValue(), err
		}
		if cond.AsBool() {
			return e.eval(n.Then)
		}
		return e.eval(n.Else)

	case *CallExpr:
		return e.evalCall(n)

	case *AttrAccess:
		obj, err := e.eval(n.Obj)
		if err != nil {
			return NilValue(), err
		}
		return evalAttr(obj, n.Attr)

	case *IndexExpr:
		obj, err := e.eval(n.Obj)
		if err != nil {
			return NilValue(), err
		}
		idx, err := e.eval(n.Index)
		if err != nil {
			return NilValue(), err
		}
		return evalIndex(obj, idx)
	}

	return NilValue(), fmt.Errorf("unknown node type")
}

// resolve looks up a bare identifier: the record binding, the Math
// namespace, or else a field of the record.
func (e *Evaluator) resolve(name string) (Value, error) {
	if e.env.RecordName != "" && name == e.env.RecordName {
		if e.env.Record == nil {
			return NilValue(), fmt.Errorf("%s is not bound", name)
		}
		return recordValue(e.env.Record), nil
	}
	if name == "Math" {
		return namespaceValue("Math"), nil
	}
	if e.env.Record != nil {
		if v, ok := e.env.Record.Field(name); ok {
			return v, nil
		}
	}
	return NilValue(), fmt.Errorf("unknown identifier: %s", name)
}

func evalBinaryOp(op TokenType, left, right Value) (Value, error) {
	// String concatenation with +
	if op == TOKEN_PLUS && (left.IsString() || right.IsString()) {
		return NewString(left.AsString() + right.AsString()), nil
	}

	// Comparison operators work on both numbers and strings
	switch op {
	case TOKEN_EQ:
		return NewBool(valuesEqual(left, right)), nil

	case TOKEN_NE:
		return NewBool(!valuesEqual(left, right)), nil

	case TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE:
		if left.IsString() && right.IsString() {
			c := strings.Compare(left.AsString(), right.AsString())
			return NewBool(compareResult(op, c)), nil
		}
		l, lok := toNumber(left)
		r, rok := toNumber(right)
		if lok && rok {
			switch {
			case l < r:
				return NewBool(compareResult(op, -1)), nil
			case l > r:
				return NewBool(compareResult(op, 1)), nil
			case l == r:
				return NewBool(compareResult(op, 0)), nil
			}
			return NewBool(false), nil // NaN
		}
		return NilValue(), fmt.Errorf("cannot compare %s and %s", left.TypeName(), right.TypeName())
	}

	// Arithmetic operators require numbers
	l, lok := toNumber(left)
	r, rok := toNumber(right)
	if !lok || !rok {
		return NilValue(), fmt.Errorf("arithmetic operations require numbers, got %s and %s", left.TypeName(), right.TypeName())
	}

	switch op {
	case TOKEN_PLUS:
		return NewNumber(l + r), nil
	case TOKEN_MINUS:
		return NewNumber(l - r), nil
	case TOKEN_STAR:
		return NewNumber(l * r), nil
	case TOKEN_SLASH:
		if r == 0 {
			return NilValue(), fmt.Errorf("division by zero")
		}
		return NewNumber(l / r), nil
	case TOKEN_FLOOR_DIV:
		if r == 0 {
			return NilValue(), fmt.Errorf("division by zero")
		}
		return NewNumber(math.Floor(l / r)), nil
	case TOKEN_PERCENT:
		if r == 0 {
			return NilValue(), fmt.Errorf("modulo by zero")
		}
		return NewNumber(math.Mod(l, r)), nil
	case TOKEN_POWER:
		return NewNumber(math.Pow(l, r)), nil
	}
	return NilValue(), fmt.Errorf("unknown operator %v", op)
}

func compareResult(op TokenType, c int) bool {
	switch op {
	case TOKEN_LT:
		return c < 0
	case TOKEN_GT:
		return c > 0
	case TOKEN_LE:
		return c <= 0
	case TOKEN_GE:
		return c >= 0
	}
	return false
}

func valuesEqual(left, right Value) bool {
	if left.IsNumber() && right.IsNumber() {
		return left.numVal == right.numVal
	}
	if left.typ != right.typ {
		return false
	}
	switch left.typ {
	case typeNil:
		return true
	case typeString, typeNamespace:
		return left.strVal == right.strVal
	case typeBool:
		return left.boolVal == right.boolVal
	}
	return false
}

func (e *Evaluator) evalCall(call *CallExpr) (Value, error) {
	// Handle method calls
	if call.Func == "__method__" && len(call.Args) >= 2 {
		obj, err := e.eval(call.Args[0])
		if err != nil {
			return NilValue(), err
		}
		methodName := call.Args[1].(*StringLit).Value
		args, err := e.evalArgs(call.Args[2:])
		if err != nil {
			return NilValue(), err
		}
		if obj.typ == typeNamespace && obj.strVal == "Math" {
			return evalMath(methodName, args)
		}
		return evalMethod(obj, methodName, args)
	}

	args, err := e.evalArgs(call.Args)
	if err != nil {
		return NilValue(), err
	}

	if e.env.LookupFunc != "" && call.Func == e.env.LookupFunc {
		return e.lookup(args)
	}
	return evalFunc(call.Func, args)
}

func (e *Evaluator) evalArgs(nodes []Node) ([]Value, error) {
	args := make([]Value, 0, len(nodes))
	for _, arg := range nodes {
		val, err := e.eval(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	return args, nil
}

// lookup implements col(name) and m(name). Unlike subscripts, a missing
// field is an error.
func (e *Evaluator) lookup(args []Value) (Value, error) {
	fn := e.env.LookupFunc
	if len(args) != 1 {
		return NilValue(), fmt.Errorf("%s() takes 1 argument", fn)
	}
	name := args[0].AsString()
	if e.env.Record == nil {
		return NilValue(), fmt.Errorf("%s(%q): nothing to look up", fn, name)
	}
	v, ok := e.env.Record.Field(name)
	if !ok {
		return NilValue(), fmt.Errorf("%s(%q): unknown field", fn, name)
	}
	return v, nil
}

func evalAttr(obj Value, attr string) (Value, error) {
	switch obj.typ {
	case typeRecord:
		if v, ok := obj.rec.Field(attr); ok {
			return v, nil
		}
		return NilValue(), nil
	case typeNamespace:
		if obj.strVal == "Math" {
			switch attr {
			case "PI":
				return NewNumber(math.Pi), nil
			case "E":
				return NewNumber(math.E), nil
			case "LN2":
				return NewNumber(math.Ln2), nil
			case "LN10":
				return NewNumber(math.Ln10), nil
			case "SQRT2":
				return NewNumber(math.Sqrt2), nil
			}
		}
		return NilValue(), fmt.Errorf("unknown constant %s.%s", obj.strVal, attr)
	case typeString:
		if attr == "length" {
			return NewNumber(float64(len([]rune(obj.strVal)))), nil
		}
	}
	return NilValue(), fmt.Errorf("attribute access not supported on %s: %s", obj.TypeName(), attr)
}

func evalIndex(obj Value, idx Value) (Value, error) {
	switch obj.typ {
	case typeRecord:
		if v, ok := obj.rec.Field(idx.AsString()); ok {
			return v, nil
		}
		return NilValue(), nil
	case typeString:
		i, ok := toNumber(idx)
		runes := []rune(obj.strVal)
		if !ok || i < 0 || int(i) >= len(runes) {
			return NilValue(), nil
		}
		return NewString(string(runes[int(i)])), nil
	}
	return NilValue(), fmt.Errorf("cannot index %s", obj.TypeName())
}

func evalMath(name string, args []Value) (Value, error) {
	nums := make([]float64, len(args))
	for i, a := range args {
		f, ok := toNumber(a)
		if !ok {
			return NilValue(), fmt.Errorf("Math.%s() argument %d must be number, got %s", name, i+1, a.TypeName())
		}
		nums[i] = f
	}
	one := func(f func(float64) float64) (Value, error) {
		if len(nums) != 1 {
			return NilValue(), fmt.Errorf("Math.%s() takes 1 argument", name)
		}
		return NewNumber(f(nums[0])), nil
	}

	switch name {
	case "abs":
		return one(math.Abs)
	case "floor":
		return one(math.Floor)
	case "ceil":
		return one(math.Ceil)
	case "trunc":
		return one(math.Trunc)
	case "sqrt":
		return one(math.Sqrt)
	case "cbrt":
		return one(math.Cbrt)
	case "exp":
		return one(math.Exp)
	case "log":
		return one(math.Log)
	case "log10":
		return one(math.Log10)
	case "log2":
		return one(math.Log2)
	case "round":
		// Halves round up, -2.5 becomes -2
		return one(func(x float64) float64 { return math.Floor(x + 0.5) })
	case "sign":
		return one(func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			}
			return x
		})
	case "pow":
		if len(nums) != 2 {
			return NilValue(), fmt.Errorf("Math.pow() takes 2 arguments")
		}
		return NewNumber(math.Pow(nums[0], nums[1])), nil
	case "min", "max":
		if len(nums) == 0 {
			if name == "min" {
				return NewNumber(math.Inf(1)), nil
			}
			return NewNumber(math.Inf(-1)), nil
		}
		out := nums[0]
		for _, n := range nums[1:] {
			if name == "min" {
				out = math.Min(out, n)
			} else {
				out = math.Max(out, n)
			}
		}
		return NewNumber(out), nil
	}
	return NilValue(), fmt.Errorf("unknown function: Math.%s", name)
}

func evalFunc(name string, args []Value) (Value, error) {
	switch name {
	case "len":
		if len(args) != 1 {
			return NilValue(), fmt.Errorf("len() takes 1 argument")
		}
		if args[0].IsString() {
			return NewNumber(float64(len([]rune(args[0].AsString())))), nil
		}
		return NilValue(), fmt.Errorf("len() argument must be string")

	case "str", "String":
		if len(args) != 1 {
			return NilValue(), fmt.Errorf("str() takes 1 argument")
		}
		return NewString(args[0].AsString()), nil

	case "int":
		if len(args) != 1 {
			return NilValue(), fmt.Errorf("int() takes 1 argument")
		}
		n, ok := toNumber(args[0])
		if !ok {
			return NilValue(), fmt.Errorf("cannot convert '%s' to int", args[0].AsString())
		}
		return NewNumber(math.Trunc(n)), nil

	case "float", "Number", "parseFloat":
		if len(args) != 1 {
			return NilValue(), fmt.Errorf("%s() takes 1 argument", name)
		}
		n, ok := toNumber(args[0])
		if !ok {
			return NilValue(), fmt.Errorf("cannot convert '%s' to number", args[0].AsString())
		}
		return NewNumber(n), nil

	case "bool", "Boolean":
		if len(args) != 1 {
			return NilValue(), fmt.Errorf("bool() takes 1 argument")
		}
		return NewBool(args[0].AsBool()), nil

	case "abs":
		if len(args) != 1 {
			return NilValue(), fmt.Errorf("abs() takes 1 argument")
		}
		n, ok := toNumber(args[0])
		if !ok {
			return NilValue(), fmt.Errorf("abs() argument must be number")
		}
		return NewNumber(math.Abs(n)), nil

	case "round":
		if len(args) < 1 || len(args) > 2 {
			return NilValue(), fmt.Errorf("round() takes 1 or 2 arguments")
		}
		n, ok := toNumber(args[0])
		if !ok {
			return NilValue(), fmt.Errorf("round() first argument must be number")
		}
		digits := 0.0
		if len(args) == 2 {
			d, ok := toNumber(args[1])
			if !ok {
				return NilValue(), fmt.Errorf("round() second argument must be number")
			}
			digits = d
		}
		mult := math.Pow(10, digits)
		return NewNumber(math.Round(n*mult) / mult), nil

	case "min", "max":
		if len(args) < 1 {
			return NilValue(), fmt.Errorf("%s() requires at least 1 argument", name)
		}
		best := args[0]
		for _, arg := range args[1:] {
			var better bool
			if arg.IsNumber() && best.IsNumber() {
				better = arg.numVal < best.numVal
			} else if arg.IsString() && best.IsString() {
				better = arg.strVal < best.strVal
			} else {
				continue
			}
			if name == "max" {
				better = !better && !valuesEqual(arg, best)
			}
			if better {
				best = arg
			}
		}
		return best, nil

	case "concat":
		var sb strings.Builder
		for _, arg := range args {
			sb.WriteString(arg.AsString())
		}
		return NewString(sb.String()), nil

	case "upper":
		if len(args) != 1 {
			return NilValue(), fmt.Errorf("upper() takes 1 argument")
		}
		return NewString(strings.ToUpper(args[0].AsString())), nil

	case "lower":
		if len(args) != 1 {
			return NilValue(), fmt.Errorf("lower() takes 1 argument")
		}
		return NewString(strings.ToLower(args[0].AsString())), nil

	case "strip", "trim":
		if len(args) != 1 {
			return NilValue(), fmt.Errorf("%s() takes 1 argument", name)
		}
		return NewString(strings.TrimSpace(args[0].AsString())), nil

	case "replace":
		if len(args) != 3 {
			return NilValue(), fmt.Errorf("replace() takes 3 arguments")
		}
		return NewString(strings.ReplaceAll(args[0].AsString(), args[1].AsString(), args[2].AsString())), nil

	case "substr", "substring":
		if len(args) < 2 || len(args) > 3 {
			return NilValue(), fmt.Errorf("substr() takes 2 or 3 arguments")
		}
		s := []rune(args[0].AsString())
		startF, _ := toNumber(args[1])
		start := int(startF)
		if start < 0 {
			start = len(s) + start
		}
		if start < 0 {
			start = 0
		}
		if start >= len(s) {
			return NewString(""), nil
		}
		if len(args) == 3 {
			endF, _ := toNumber(args[2])
			end := int(endF)
			if end < 0 {
				end = len(s) + end
			}
			if end > len(s) {
				end = len(s)
			}
			if end <= start {
				return NewString(""), nil
			}
			return NewString(string(s[start:end])), nil
		}
		return NewString(string(s[start:])), nil

	case "isnull", "isNull":
		if len(args) != 1 {
			return NilValue(), fmt.Errorf("%s() takes 1 argument", name)
		}
		return NewBool(args[0].IsNil()), nil

	case "coalesce":
		for _, arg := range args {
			if !arg.IsNil() && !(arg.IsString() && arg.strVal == "") {
				return arg, nil
			}
		}
		return NilValue(), nil

	case "year", "month", "day", "quarter":
		if len(args) != 1 {
			return NilValue(), fmt.Errorf("%s() takes 1 argument", name)
		}
		t, ok := tables.ParseDate(args[0].AsString())
		if !ok || args[0].IsNumber() {
			return NilValue(), fmt.Errorf("%s(): cannot parse date %q", name, args[0].AsString())
		}
		switch name {
		case "year":
			return NewNumber(float64(t.Year())), nil
		case "month":
			return NewNumber(float64(t.Month())), nil
		case "quarter":
			return NewNumber(float64((int(t.Month())-1)/3 + 1)), nil
		default:
			return NewNumber(float64(t.Day())), nil
		}

	case "date_diff":
		// date_diff(end, start[, unit]) in days unless a unit is given
		if len(args) < 2 || len(args) > 3 {
			return NilValue(), fmt.Errorf("date_diff() takes 2 or 3 arguments")
		}
		end, ok := tables.ParseDate(args[0].AsString())
		if !ok {
			return NilValue(), fmt.Errorf("date_diff(): first argument is not a date")
		}
		start, ok := tables.ParseDate(args[1].AsString())
		if !ok {
			return NilValue(), fmt.Errorf("date_diff(): second argument is not a date")
		}
		diff := end.Sub(start)
		unit := "days"
		if len(args) == 3 {
			unit = strings.ToLower(args[2].AsString())
		}
		switch unit {
		case "seconds", "s":
			return NewNumber(diff.Seconds()), nil
		case "minutes", "m":
			return NewNumber(diff.Minutes()), nil
		case "hours", "h":
			return NewNumber(diff.Hours()), nil
		case "days", "d":
			return NewNumber(diff.Hours() / 24), nil
		case "weeks", "w":
			return NewNumber(diff.Hours() / (24 * 7)), nil
		default:
			return NilValue(), fmt.Errorf("date_diff(): unknown unit: %s", unit)
		}

	default:
		return NilValue(), fmt.Errorf("unknown function: %s", name)
	}
}

func evalMethod(obj Value, method string, args []Value) (Value, error) {
	if obj.IsNumber() && method == "toFixed" {
		digits := 0.0
		if len(args) == 1 {
			digits, _ = toNumber(args[0])
		}
		return NewString(strconv.FormatFloat(obj.numVal, 'f', int(digits), 64)), nil
	}
	if !obj.IsString() {
		return NilValue(), fmt.Errorf("unknown method %s on %s", method, obj.TypeName())
	}

	s := obj.AsString()
	oneArg := func() (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("%s() takes 1 argument", method)
		}
		return args[0].AsString(), nil
	}

	switch method {
	case "upper", "toUpperCase":
		return NewString(strings.ToUpper(s)), nil
	case "lower", "toLowerCase":
		return NewString(strings.ToLower(s)), nil
	case "strip", "trim":
		return NewString(strings.TrimSpace(s)), nil
	case "lstrip":
		return NewString(strings.TrimLeft(s, " \t\n\r")), nil
	case "rstrip":
		return NewString(strings.TrimRight(s, " \t\n\r")), nil
	case "startswith", "startsWith":
		a, err := oneArg()
		if err != nil {
			return NilValue(), err
		}
		return NewBool(strings.HasPrefix(s, a)), nil
	case "endswith", "endsWith":
		a, err := oneArg()
		if err != nil {
			return NilValue(), err
		}
		return NewBool(strings.HasSuffix(s, a)), nil
	case "contains", "includes":
		a, err := oneArg()
		if err != nil {
			return NilValue(), err
		}
		return NewBool(strings.Contains(s, a)), nil
	case "replace":
		if len(args) != 2 {
			return NilValue(), fmt.Errorf("replace() takes 2 arguments")
		}
		return NewString(strings.ReplaceAll(s, args[0].AsString(), args[1].AsString())), nil
	case "capitalize":
		if len(s) == 0 {
			return NewString(""), nil
		}
		r := []rune(s)
		return NewString(strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))), nil
	case "count":
		a, err := oneArg()
		if err != nil {
			return NilValue(), err
		}
		return NewNumber(float64(strings.Count(s, a))), nil
	case "find", "index", "indexOf":
		a, err := oneArg()
		if err != nil {
			return NilValue(), err
		}
		return NewNumber(float64(runeOffset(s, strings.Index(s, a)))), nil
	case "rfind", "rindex":
		a, err := oneArg()
		if err != nil {
			return NilValue(), err
		}
		return NewNumber(float64(runeOffset(s, strings.LastIndex(s, a)))), nil
	case "isdigit":
		for _, r := range s {
			if r < '0' || r > '9' {
				return NewBool(false), nil
			}
		}
		return NewBool(len(s) > 0), nil
	}
	return NilValue(), fmt.Errorf("unknown method: %s", method)
}

// runeOffset converts a byte offset into s to a character offset. -1 is kept.
func runeOffset(s string, i int) int {
	if i < 0 {
		return i
	}
	return utf8.RuneCountInString(s[:i])
}
