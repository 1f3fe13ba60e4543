/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors
*/

package expr

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/google/tabula/core/tables"
)

var testRow = tables.Row{
	"price":      tables.Number(10.5),
	"qty":        tables.Number(5),
	"name":       tables.Text("Apple"),
	"unit price": tables.Number(2),
	"note":       tables.Null(),
	"count_text": tables.Text("7"),
}

func evalRow(t *testing.T, src string) Value {
	t.Helper()
	compiled, err := Compile(src)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	val, err := compiled.Eval(RowEnv(testRow))
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	return val
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		expr     string
		expected float64
	}{
		{"1 + 2", 3},
		{"10 - 3", 7},
		{"4 * 5", 20},
		{"20 / 4", 5},
		{"7 // 2", 3},
		{"7 % 3", 1},
		{"2 ** 3", 8},
		{"2 ** 3 ** 2", 512},
		{"(1 + 2) * 3", 9},
		{"-5", -5},
		{"--5", 5},
		{"+'4'", 4},
		{"1e3 + 2.5E-1", 1000.25},
		{"col('count_text') * 2", 14},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			val := evalRow(t, tt.expr)
			if !val.IsNumber() || val.AsNumber() != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, val.AsString())
			}
		})
	}
}

func TestStringOperations(t *testing.T) {
	tests := []struct {
		expr     string
		expected string
	}{
		{`"hello" + " " + "world"`, "hello world"},
		{`"HELLO".lower()`, "hello"},
		{`"hello".upper()`, "HELLO"},
		{`"hello".toUpperCase()`, "HELLO"},
		{`"  trim  ".strip()`, "trim"},
		{`"hello".startswith("he")`, "true"},
		{`"hello".endsWith("lo")`, "true"},
		{`"hello".includes("ll")`, "true"},
		{`"hello world".replace("world", "there")`, "hello there"},
		{`len("hello")`, "5"},
		{`"hello".length`, "5"},
		{`str(123)`, "123"},
		{`col('name') + "!"`, "Apple!"},
		{`"n=" + 3`, "n=3"},
		{`(3.14159).toFixed(2)`, "3.14"},
		{`"héllo".find("l")`, "2"},
		{`"héllo".rfind("l")`, "3"},
		{`"日本語".index("語")`, "2"},
		{`"héllo".find("z")`, "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			val := evalRow(t, tt.expr)
			if val.AsString() != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, val.AsString())
			}
		})
	}
}

func TestComparisonsAndLogic(t *testing.T) {
	tests := []struct {
		expr     string
		expected bool
	}{
		{"1 == 1", true},
		{"1 === 1", true},
		{"1 != 2", true},
		{"1 !== 1", false},
		{"1 < 2", true},
		{"2 > 1", true},
		{"1 <= 1", true},
		{"2 >= 2", true},
		{`"a" < "b"`, true},
		{`"hello" == "hello"`, true},
		{`1 == "1"`, false},
		{"null == None", true},
		{"1 and 0", false},
		{"0 or 1", true},
		{"not 0", true},
		{"!1", false},
		{"true && false", false},
		{"false || true", true},
		{"price > 10 && qty == 5", true},
		{"!(price > 100)", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			val := evalRow(t, tt.expr)
			if val.AsBool() != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, val.AsBool())
			}
		})
	}
}

func TestConditional(t *testing.T) {
	tests := []struct {
		expr     string
		expected string
	}{
		{`price > 10 ? "high" : "low"`, "high"},
		{`price > 100 ? "high" : "low"`, "low"},
		{`qty > 10 ? "a" : qty > 3 ? "b" : "c"`, "b"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := evalRow(t, tt.expr).AsString(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestRecordAccess(t *testing.T) {
	tests := []struct {
		expr     string
		expected string
	}{
		{"price * qty", "52.5"},
		{"col('price') * col('qty')", "52.5"},
		{"row.price + 1", "11.5"},
		{`row["unit price"] * 3`, "6"},
		{"row.missing", ""},
		{`isnull(row["missing"])`, "true"},
		{`coalesce(row.note, "n/a")`, "n/a"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := evalRow(t, tt.expr).AsString(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestMathNamespace(t *testing.T) {
	tests := []struct {
		expr     string
		expected float64
	}{
		{"Math.abs(-3)", 3},
		{"Math.round(2.5)", 3},
		{"Math.round(-2.5)", -2},
		{"Math.floor(2.7)", 2},
		{"Math.ceil(2.1)", 3},
		{"Math.sqrt(16)", 4},
		{"Math.pow(2, 10)", 1024},
		{"Math.max(1, 7, 3)", 7},
		{"Math.min(4, -1)", -1},
		{"Math.sign(-9)", -1},
		{"Math.trunc(-2.7)", -2},
		{"Math.log10(1000)", 3},
		{"Math.PI", math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			val := evalRow(t, tt.expr)
			if math.Abs(val.AsNumber()-tt.expected) > 1e-12 {
				t.Errorf("expected %v, got %v", tt.expected, val.AsNumber())
			}
		})
	}
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		expr     string
		expected string
	}{
		{"abs(-5)", "5"},
		{"round(3.7)", "4"},
		{"round(3.14159, 2)", "3.14"},
		{"min(5, 3, 8)", "3"},
		{"max(5, 3, 8)", "8"},
		{`concat("a", "b", "c")`, "abc"},
		{`upper("hello")`, "HELLO"},
		{"int(3.9)", "3"},
		{`float("2.5")`, "2.5"},
		{`substr("hello", 1, 3)`, "el"},
		{`substr("hello", -3)`, "llo"},
		{`year("2024-03-15")`, "2024"},
		{`quarter("2024-08-01")`, "3"},
		{`date_diff("2024-01-10", "2024-01-01")`, "9"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := evalRow(t, tt.expr).AsString(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []string{
		"col('nope')",
		"missing_column + 1",
		"1 / 0",
		"5 % 0",
		`"a" - 1`,
		"unknown_fn(1)",
		"Math.nope(1)",
		"name.frobnicate()",
		"col('note') * 2",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			compiled, err := Compile(src)
			if err != nil {
				t.Fatalf("compile error: %v", err)
			}
			if _, err := compiled.Eval(RowEnv(testRow)); err == nil {
				t.Errorf("expected an evaluation error for %q", src)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"1 +",
		"(1 + 2",
		"a = b",
		"1 2",
		`"unterminated`,
		"a ? b",
		"row[1",
		"1e+",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if _, err := Compile(src); err == nil {
				t.Errorf("expected a parse error for %q", src)
			}
		})
	}
}

func TestMeasureEnv(t *testing.T) {
	aggs := tables.Row{
		"revenue (sum)": tables.Number(200),
		"cost (sum)":    tables.Number(150),
	}
	tests := []struct {
		expr     string
		expected float64
	}{
		{"m('revenue (sum)') - m('cost (sum)')", 50},
		{`m["revenue (sum)"] / m["cost (sum)"] * 3`, 4},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			compiled, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("compile error: %v", err)
			}
			got, err := compiled.EvalNumber(MeasureEnv(aggs))
			if err != nil {
				t.Fatalf("eval error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}

	compiled, _ := Compile("col('revenue (sum)')")
	if _, err := compiled.Eval(MeasureEnv(aggs)); err == nil {
		t.Errorf("col() must not be bound in measure formulas")
	}
}

func TestCellConversion(t *testing.T) {
	if !NewNumber(math.Inf(1)).Cell().IsNull() {
		t.Errorf("infinite result must become a null cell")
	}
	if !NewNumber(math.NaN()).Cell().IsNull() {
		t.Errorf("NaN result must become a null cell")
	}
	if got := NewNumber(5).Cell(); !got.Equal(tables.Number(5)) {
		t.Errorf("Cell() = %v, want 5", got)
	}
	if got := FromCell(tables.DateText("2024-01-02")); got.AsString() != "2024-01-02" {
		t.Errorf("date cell = %q", got.AsString())
	}
	if got := FromCell(tables.Bool(true)); !got.IsBool() || !got.AsBool() {
		t.Errorf("bool cell not converted: %v", got.TypeName())
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	a, err := c.Compile("1 + 1")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	b, _ := c.Compile("1 + 1")
	if a != b {
		t.Errorf("expected the same compiled expression for identical source")
	}
	if _, err := c.Compile("1 +"); err == nil {
		t.Errorf("expected cached parse error")
	}
	if _, err := c.Compile("1 +"); err == nil || !strings.Contains(err.Error(), "parse error") {
		t.Errorf("expected the cached parse error to repeat, got %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := c.Compile("price * 2")
			if err != nil {
				t.Errorf("compile error: %v", err)
				return
			}
			if v, _ := e.Eval(RowEnv(testRow)); v.AsNumber() != 21 {
				t.Errorf("got %v, want 21", v.AsNumber())
			}
		}()
	}
	wg.Wait()
}

func TestCacheLimit(t *testing.T) {
	c := NewCache()
	c.limit = 3
	for i := 0; i < 10; i++ {
		if _, err := c.Compile(fmt.Sprintf("%d + 1", i)); err != nil {
			t.Fatalf("compile error: %v", err)
		}
		if c.Len() > 3 {
			t.Fatalf("Len() = %d after %d sources, want at most 3", c.Len(), i+1)
		}
	}
	e, err := c.Compile("9 + 1")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if v, _ := e.Eval(RowEnv(testRow)); v.AsNumber() != 10 {
		t.Errorf("got %v, want 10", v.AsNumber())
	}
}
