// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchattr

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// An Order compares two Values. It returns <0 if a sorts before b, >0
// if a sorts after b, and 0 if they are equal or unordered. Sorting
// with an Order should be stable so that unordered values keep the
// order in which they were first observed.
type Order func(a, b Value) int

var builtinOrders = map[string]Order{
	"alpha": func(a, b Value) int {
		return strings.Compare(a.String(), b.String())
	},
	"num": numOrder,
}

// LookupOrder returns the built-in Order called name: "alpha" for
// lexical order of the values' string forms, or "num" for numeric
// order. The "first" order, meaning order of first observation, is
// represented by a nil Order and also reported as found.
func LookupOrder(name string) (Order, bool) {
	if name == "first" {
		return nil, true
	}
	o, ok := builtinOrders[name]
	return o, ok
}

// FixedOrder returns an Order that sorts values in the order of
// values, by string form. Values not in the list sort after all values
// in the list and are unordered among themselves.
func FixedOrder(values []string) Order {
	pos := make(map[string]int, len(values))
	for i, v := range values {
		if _, ok := pos[v]; !ok {
			pos[v] = i
		}
	}
	rank := func(v Value) int {
		if i, ok := pos[v.String()]; ok {
			return i
		}
		return len(values)
	}
	return func(a, b Value) int {
		return rank(a) - rank(b)
	}
}

// numOrder sorts numbers and numeric-looking strings numerically, with
// NaNs after other numbers and numbers before anything non-numeric.
func numOrder(a, b Value) int {
	aa, oka := toNum(a)
	bb, okb := toNum(b)
	switch {
	case oka && okb:
		if aa < bb || (!math.IsNaN(aa) && math.IsNaN(bb)) {
			return -1
		}
		if aa > bb || (math.IsNaN(aa) && !math.IsNaN(bb)) {
			return 1
		}
		return 0
	case oka:
		return -1
	case okb:
		return 1
	}
	return 0
}

func toNum(v Value) (float64, bool) {
	if f, ok := v.Float(); ok {
		return f, true
	}
	if v.Kind() != KindString {
		return 0, false
	}
	f, err := parseNum(v.String())
	return f, err == nil
}

const numPrefixes = `KMGTPEZY`

var numRe = regexp.MustCompile(`^([0-9.]+)([k` + numPrefixes + `]i?)?[bB]?$`)

// parseNum is a fuzzy number parser. It accepts plain floats and
// numbers with SI or IEC prefixes, such as "4k", "16Mi", or "1GB".
func parseNum(x string) (float64, error) {
	if v, err := strconv.ParseFloat(x, 64); err == nil {
		return v, nil
	}

	subs := numRe.FindStringSubmatch(x)
	if subs == nil {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseFloat(subs[1], 64)
	if err != nil {
		return 0, strconv.ErrSyntax
	}
	exp := 0
	if len(subs[2]) > 0 {
		pre := subs[2][0]
		if pre == 'k' {
			pre = 'K'
		}
		exp = 1 + strings.IndexByte(numPrefixes, pre)
	}
	if strings.HasSuffix(subs[2], "i") {
		return v * math.Pow(1024, float64(exp)), nil
	}
	return v * math.Pow(1000, float64(exp)), nil
}
