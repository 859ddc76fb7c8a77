// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
	"strings"
)

// An Attr is one attribute name in a step declaration together with
// the order its values should take among sibling groups.
type Attr struct {
	Name string

	// Order is "first" for order of first appearance, "fixed" for
	// the explicit value order in Fixed, or a named order such as
	// "alpha" or "num".
	Order string

	// Fixed is the explicit value order for "fixed" ordering.
	Fixed []string

	// NameOff and OrderOff are byte offsets for error reporting.
	NameOff, OrderOff int
}

// String returns a as a valid step expression.
func (a Attr) String() string {
	switch a.Order {
	case "first":
		return quoteWord(a.Name)
	case "fixed":
		words := make([]string, 0, len(a.Fixed))
		for _, word := range a.Fixed {
			words = append(words, quoteWord(word))
		}
		return fmt.Sprintf("%s@(%s)", quoteWord(a.Name), strings.Join(words, " "))
	}
	return fmt.Sprintf("%s@%s", quoteWord(a.Name), quoteWord(a.Order))
}

// ParseStep parses a step declaration such as "version@num, os" into
// its attributes. Attributes may be separated by commas or spaces. An
// empty declaration yields no attributes.
func ParseStep(q string) ([]Attr, error) {
	var attrs []Attr
	toks := newTokenizer(q)
	for {
		tk, rest := toks.keyOrOp()
		if tk.Kind == tokEOF {
			break
		} else if tk.Kind == ',' && len(attrs) > 0 {
			toks = rest
		}

		var a Attr
		a, toks = parseAttr(toks)
		attrs = append(attrs, a)
		if toks.errt.err != nil {
			break
		}
	}
	toks = toks.end()
	if toks.errt.err != nil {
		return nil, toks.errt.err
	}
	return attrs, nil
}

func parseAttr(toks tokenizer) (Attr, tokenizer) {
	var a Attr

	name, rest := toks.keyOrOp()
	if !name.isWord() {
		_, toks = toks.error("expected attribute name")
		return a, toks
	}
	toks = rest
	a.Name = name.Tok
	a.NameOff = name.Off
	a.Order = "first"
	a.OrderOff = name.Off + len(name.Tok)

	sep, rest := toks.keyOrOp()
	if sep.Kind != '@' {
		return a, toks
	}
	toks = rest

	order, rest := toks.keyOrOp()
	a.OrderOff = order.Off
	switch {
	case order.isWord():
		a.Order = order.Tok
		return a, rest
	case order.Kind == '(':
		a.Order = "fixed"
		toks = rest
		for {
			tk, rest := toks.keyOrOp()
			if tk.isWord() {
				toks = rest
				a.Fixed = append(a.Fixed, tk.Tok)
				continue
			}
			if tk.Kind != ')' {
				_, toks = toks.error("missing )")
			} else if len(a.Fixed) == 0 {
				_, toks = toks.error("nothing to match")
			} else {
				toks = rest
			}
			return a, toks
		}
	}
	_, toks = toks.error("expected named sort order or parenthesized list")
	return a, toks
}
