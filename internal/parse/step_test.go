// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"reflect"
	"testing"
)

func TestParseStep(t *testing.T) {
	check := func(step string, want ...string) {
		t.Helper()
		attrs, err := ParseStep(step)
		if err != nil {
			t.Errorf("%s: unexpected error %s", step, err)
			return
		}
		var got []string
		for _, a := range attrs {
			got = append(got, a.String())
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: got %v, want %v", step, got, want)
		}
	}
	checkErr := func(step, msg string, pos int) {
		t.Helper()
		_, err := ParseStep(step)
		if se, _ := err.(*SyntaxError); se == nil || se.Msg != msg || se.Off != pos {
			t.Errorf("%s: want error %s at %d; got %v", step, msg, pos, err)
		}
	}

	check("")
	check("a,b", "a", "b")
	check("a, b", "a", "b")
	check("a b", "a", "b")
	checkErr("a,,b", "expected attribute name", 2)

	check("version@num, os@alpha", "version@num", "os@alpha")
	checkErr("a@", "expected named sort order or parenthesized list", 2)
	checkErr("a@,b", "expected named sort order or parenthesized list", 2)

	check("location@(local remote), b", "location@(local remote)", "b")
	checkErr("a@(", "missing )", 3)
	checkErr("a@(,", "missing )", 3)
	checkErr("a@()", "nothing to match", 3)

	check(`"a b"@("x y")`, `"a b"@("x y")`)
}

func TestParseStepOffsets(t *testing.T) {
	attrs, err := ParseStep("os, version@num")
	if err != nil {
		t.Fatal(err)
	}
	want := []Attr{
		{Name: "os", Order: "first", NameOff: 0, OrderOff: 2},
		{Name: "version", Order: "num", NameOff: 4, OrderOff: 12},
	}
	if !reflect.DeepEqual(attrs, want) {
		t.Errorf("got %+v, want %+v", attrs, want)
	}
}
