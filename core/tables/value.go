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

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Kind is the runtime tag of a cell value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
	KindDate
	KindLargeObject
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindLargeObject:
		return "large_object"
	default:
		return "unknown"
	}
}

// Text values longer than LargeObjectLimit bytes are stored as large-object
// placeholders holding only a preview of PreviewLength bytes.
const (
	LargeObjectLimit = 4096
	PreviewLength    = 256
)

// Value is a single cell. The zero Value is null.
type Value struct {
	kind      Kind
	num       float64
	str       string // text, date text or large-object preview
	boolVal   bool
	truncated bool
}

// Null returns the null value
func Null() Value { return Value{} }

// Number creates a numeric value
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Text creates a text value
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Bool creates a boolean value
func Bool(b bool) Value { return Value{kind: KindBool, boolVal: b} }

// DateText creates a date-like value from its textual form.
func DateText(s string) Value { return Value{kind: KindDate, str: s} }

// Date creates a date-like value from a time, kept as RFC 3339 text in UTC.
// Times at midnight are kept as a plain date.
func Date(t time.Time) Value {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return DateText(t.Format("2006-01-02"))
	}
	return DateText(t.Format(time.RFC3339))
}

// LargeObject creates a placeholder for an oversized text or binary value.
func LargeObject(preview string, truncated bool) Value {
	return Value{kind: KindLargeObject, str: preview, truncated: truncated}
}

// Kind returns the value's tag
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumber reports whether v holds a number (not a numeric-looking text)
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// Truncated reports whether a large-object placeholder lost content
func (v Value) Truncated() bool { return v.truncated }

// Float coerces the value to a finite number. Text and date text are parsed
// strictly after trimming, booleans count as 1 and 0. Null, empty text,
// large objects and anything non-finite are not numeric.
func (v Value) Float() (float64, bool) {
	var n float64
	switch v.kind {
	case KindNumber:
		n = v.num
	case KindBool:
		if v.boolVal {
			return 1, true
		}
		return 0, true
	case KindText, KindDate:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Time parses the value as a date. Numbers are never dates.
func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case KindText, KindDate:
		return ParseDate(v.str)
	}
	return time.Time{}, false
}

// String returns the display form of the value. Null is the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindText, KindDate, KindLargeObject:
		return v.str
	case KindBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.boolVal == o.boolVal
	case KindNull:
		return true
	case KindLargeObject:
		return v.str == o.str && v.truncated == o.truncated
	default:
		return v.str == o.str
	}
}

// Interface returns the value as a plain Go value (nil, float64, string or bool).
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText, KindDate, KindLargeObject:
		return v.str
	case KindBool:
		return v.boolVal
	default:
		return nil
	}
}

// FormatNumber formats n in its shortest decimal form: 125000, 0.5, 1e+21.
func FormatNumber(n float64) string {
	if n == 0 {
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// FromAny converts a value produced by a decoder or driver into a Value.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return Text(t.String())
	case bool:
		return Bool(t)
	case string:
		return textOrLarge(t)
	case time.Time:
		return Date(t)
	case *time.Time:
		if t == nil {
			return Null()
		}
		return Date(*t)
	case []byte:
		if utf8.Valid(t) {
			return textOrLarge(string(t))
		}
		return binaryPlaceholder(t)
	case map[string]any:
		if p, ok := t["preview"].(string); ok {
			truncated, _ := t["truncated"].(bool)
			return LargeObject(p, truncated)
		}
		return encodeNested(t)
	default:
		return encodeNested(t)
	}
}

func textOrLarge(s string) Value {
	if len(s) <= LargeObjectLimit {
		return Text(s)
	}
	cut := PreviewLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return LargeObject(s[:cut], true)
}

func binaryPlaceholder(b []byte) Value {
	return LargeObject(fmt.Sprintf("<binary %d bytes>", len(b)), true)
}

func encodeNested(x any) Value {
	data, err := json.Marshal(x)
	if err != nil {
		return Text(fmt.Sprint(x))
	}
	return textOrLarge(string(data))
}

// MarshalJSON encodes the value as its natural JSON scalar. Large objects
// become {"preview": ..., "truncated": ...}; non-finite numbers become null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindText, KindDate:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.boolVal)
	case KindLargeObject:
		return json.Marshal(struct {
			Preview   string `json:"preview"`
			Truncated bool   `json:"truncated"`
		}{v.str, v.truncated})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON value into a Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var x any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&x); err != nil {
		return err
	}
	*v = FromAny(x)
	return nil
}
