// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchattr

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind is the scalar type of a Value.
type Kind uint8

const (
	KindString Kind = iota
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// A Value is a scalar attribute value: a string, a number, or a
// boolean. The zero Value is the empty string, which is also the
// placeholder for attributes a run does not have.
//
// Values are comparable with ==, except that NaN numbers are never ==.
// Use Equal to treat all NaNs as one value.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// String returns a string Value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number returns a numeric Value. Negative zero is stored as zero.
func Number(f float64) Value {
	if f == 0 {
		f = 0
	}
	return Value{kind: KindNumber, num: f}
}

// Int returns a numeric Value for an integer.
func Int(i int64) Value {
	return Number(float64(i))
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// ValueOf converts a Go scalar into a Value. It accepts strings,
// booleans, all integer and float types, and json.Number, which are
// the forms produced by decoding JSON. nil converts to the empty
// string. Any other type is an error.
func ValueOf(x interface{}) (Value, error) {
	switch x := x.(type) {
	case nil:
		return String(""), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Number(float64(x)), nil
	case uint8:
		return Number(float64(x)), nil
	case uint16:
		return Number(float64(x)), nil
	case uint32:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f), nil
		}
		return String(x.String()), nil
	}
	return Value{}, fmt.Errorf("%T is not a scalar attribute value", x)
}

// Kind returns the scalar type of v.
func (v Value) Kind() Kind {
	return v.kind
}

// Float returns v's number and whether v is a number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Bool returns v's boolean and whether v is a boolean.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// IsEmpty reports whether v is the empty string.
func (v Value) IsEmpty() bool {
	return v.kind == KindString && v.str == ""
}

// Equal reports whether v and o have the same kind and value.
// Unlike ==, it considers NaN equal to NaN.
func (v Value) Equal(o Value) bool {
	if v.kind == KindNumber && o.kind == KindNumber && math.IsNaN(v.num) && math.IsNaN(o.num) {
		return true
	}
	return v == o
}

// String returns the value as text. Integral numbers print without a
// fractional part.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1e15 {
			return strconv.FormatFloat(v.num, 'f', -1, 64)
		}
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return v.str
}

// Interface returns v as a string, float64, or bool.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	}
	return v.str
}

// MarshalJSON encodes v as a JSON string, number, or boolean.
// Non-finite numbers are encoded as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Interface())
}

// Parse reconstructs a Value from its Kind and String form.
func Parse(kind Kind, s string) (Value, error) {
	switch kind {
	case KindString:
		return String(s), nil
	case KindNumber:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	}
	return Value{}, fmt.Errorf("unknown attribute kind %d", kind)
}
