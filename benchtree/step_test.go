// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchtree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/benchart/internal/parse"
)

func TestParseStep(t *testing.T) {
	for _, test := range []struct {
		expr  string
		attrs []string
		str   string
	}{
		{"version", []string{"version"}, "partition version"},
		{"version,flush", []string{"version", "flush"}, "partition version,flush"},
		{"flush@num, os@alpha", []string{"flush", "os"}, "partition flush@num,os@alpha"},
		{"loc@(local remote)", []string{"loc"}, "partition loc@(local remote)"},
		{"", nil, "partition"},
	} {
		t.Run(test.expr, func(t *testing.T) {
			s, err := ParseStep(PartitionStep, test.expr)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.attrs, s.Attrs); diff != "" {
				t.Errorf("Attrs mismatch (-want +got):\n%s", diff)
			}
			if got := s.String(); got != test.str {
				t.Errorf("String() = %q, want %q", got, test.str)
			}
		})
	}
}

func TestParseStepErrors(t *testing.T) {
	for _, test := range []struct {
		expr string
		msg  string
		off  int
	}{
		{"a,a", `duplicate attribute "a"`, 2},
		{"a@bogus", `unknown order "bogus"`, 2},
		{"a@", "expected named sort order or parenthesized list", 2},
	} {
		t.Run(test.expr, func(t *testing.T) {
			_, err := ParseStep(SkipStep, test.expr)
			var se *parse.SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("want *parse.SyntaxError, got %v", err)
			}
			if se.Msg != test.msg || se.Off != test.off {
				t.Errorf("got %q at %d, want %q at %d", se.Msg, se.Off, test.msg, test.off)
			}
		})
	}
}

func TestStepNub(t *testing.T) {
	s := Skip("a", "b", "a")
	if diff := cmp.Diff([]string{"a", "b"}, s.Attrs); diff != "" {
		t.Errorf("Attrs mismatch (-want +got):\n%s", diff)
	}
	if got, want := s.String(), "skip a,b"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestValidateSteps(t *testing.T) {
	if err := ValidateSteps(Partition("a"), Skip("b"), Skip("c")); err != nil {
		t.Errorf("valid plan: %v", err)
	}
	err := ValidateSteps(Partition("a"), Skip("b"), Partition("c"))
	if !errors.Is(err, ErrStepOrder) {
		t.Fatalf("want ErrStepOrder, got %v", err)
	}
	want := "partition step after skip step: step 3 (partition c) follows step 2 (skip b)"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err, want)
	}
}

func TestMustParseStep(t *testing.T) {
	if s := MustParseStep(SkipStep, "hp,machine_id"); s.String() != "skip hp,machine_id" {
		t.Errorf("MustParseStep = %q, want %q", s, "skip hp,machine_id")
	}
	defer func() {
		if recover() == nil {
			t.Errorf("MustParseStep of a bad order did not panic")
		}
	}()
	MustParseStep(PartitionStep, "flush@bogus")
}
