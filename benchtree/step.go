// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchtree

import (
	"fmt"
	"strings"

	"github.com/aclements/go-gg/generic/slice"
	"golang.org/x/benchart/benchattr"
	"golang.org/x/benchart/internal/parse"
)

// StepKind distinguishes partition steps from skip steps.
type StepKind int

const (
	// PartitionStep splits each frontier group by the values of
	// the step's attributes.
	PartitionStep StepKind = iota
	// SkipStep excludes the step's attributes from grouping and
	// stops partitioning: the groups it is applied to keep their
	// runs as leaves.
	SkipStep
)

func (k StepKind) String() string {
	switch k {
	case PartitionStep:
		return "partition"
	case SkipStep:
		return "skip"
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// A Step is one level of a partition plan.
type Step struct {
	Kind StepKind

	// Attrs are the attribute names of this step, without
	// duplicates, in declaration order.
	Attrs []string

	// orders gives the sibling order for each attribute in Attrs.
	// A nil Order means order of first appearance. orders is nil if
	// every attribute uses first appearance.
	orders []benchattr.Order

	// decl is the step expression of each attribute, for String.
	decl []string
}

// Partition returns a partition step on attrs. Groups produced by it
// appear in the order their values were first seen.
func Partition(attrs ...string) Step {
	return newStep(PartitionStep, attrs)
}

// Skip returns a skip step on attrs.
func Skip(attrs ...string) Step {
	return newStep(SkipStep, attrs)
}

func newStep(kind StepKind, attrs []string) Step {
	if len(attrs) > 0 {
		attrs = slice.Nub(attrs).([]string)
	}
	return Step{Kind: kind, Attrs: attrs, decl: attrs}
}

// ParseStep parses a step expression, such as
// "application_version@num, machine_location@(local remote)", into a
// step of the given kind. Each attribute may name a sibling order:
// "first" (the default), "alpha", "num", or a parenthesized list of
// values. Orders only matter for partition steps.
func ParseStep(kind StepKind, expr string) (Step, error) {
	attrs, err := parse.ParseStep(expr)
	if err != nil {
		return Step{}, err
	}
	s := Step{Kind: kind}
	seen := make(map[string]bool)
	ordered := false
	var orders []benchattr.Order
	for _, a := range attrs {
		if seen[a.Name] {
			return Step{}, &parse.SyntaxError{Query: expr, Off: a.NameOff, Msg: fmt.Sprintf("duplicate attribute %q", a.Name)}
		}
		seen[a.Name] = true

		var order benchattr.Order
		if a.Order == "fixed" {
			order = benchattr.FixedOrder(a.Fixed)
		} else {
			var ok bool
			if order, ok = benchattr.LookupOrder(a.Order); !ok {
				return Step{}, &parse.SyntaxError{Query: expr, Off: a.OrderOff, Msg: fmt.Sprintf("unknown order %q", a.Order)}
			}
		}
		if order != nil {
			ordered = true
		}
		s.Attrs = append(s.Attrs, a.Name)
		s.decl = append(s.decl, a.String())
		orders = append(orders, order)
	}
	if ordered {
		s.orders = orders
	}
	return s, nil
}

// MustParseStep is like ParseStep but panics on error.
func MustParseStep(kind StepKind, expr string) Step {
	s, err := ParseStep(kind, expr)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns s as "kind expr", such as "partition version@num".
func (s Step) String() string {
	if len(s.decl) == 0 {
		return s.Kind.String()
	}
	return s.Kind.String() + " " + strings.Join(s.decl, ",")
}

// checkOrder returns an error wrapping ErrStepOrder if a partition
// step follows a skip step.
func checkOrder(steps []Step) error {
	skip := -1
	for i, s := range steps {
		switch {
		case s.Kind == SkipStep && skip < 0:
			skip = i
		case s.Kind == PartitionStep && skip >= 0:
			return fmt.Errorf("%w: step %d (%s) follows step %d (%s)", ErrStepOrder, i+1, s, skip+1, steps[skip])
		}
	}
	return nil
}

// ValidateSteps reports whether steps is a valid partition plan: no
// partition step may follow a skip step.
func ValidateSteps(steps ...Step) error {
	return checkOrder(steps)
}
