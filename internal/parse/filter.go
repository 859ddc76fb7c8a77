// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// A Filter is a node in a boolean filter tree. It is either a
// *FilterOp or a *FilterMatch.
type Filter interface {
	isFilter()
	String() string
}

// A FilterMatch tests one attribute against a literal or a regexp.
type FilterMatch struct {
	Key string

	// Regexp, if non-nil, is matched against the value. Otherwise
	// the value must equal Lit.
	Regexp *regexp.Regexp
	Lit    string

	// Off is the byte offset of Key in the query.
	Off int
}

func (q *FilterMatch) isFilter() {}

func (q *FilterMatch) String() string {
	if q.Regexp != nil {
		return quoteWord(q.Key) + ":/" + q.Regexp.String() + "/"
	}
	return quoteWord(q.Key) + ":" + quoteWord(q.Lit)
}

// MatchString reports whether value satisfies q.
func (q *FilterMatch) MatchString(value string) bool {
	if q.Regexp != nil {
		return q.Regexp.MatchString(value)
	}
	return q.Lit == value
}

// A FilterOp is a boolean operator. OpNot has exactly one operand.
// OpAnd and OpOr have zero or more; an empty OpAnd is "*" and an
// empty OpOr is "-*".
type FilterOp struct {
	Op    Op
	Exprs []Filter
}

func (q *FilterOp) isFilter() {}

func (q *FilterOp) String() string {
	var sep string
	switch q.Op {
	case OpNot:
		return "-" + q.Exprs[0].String()
	case OpAnd:
		if len(q.Exprs) == 0 {
			return "*"
		}
		sep = " AND "
	case OpOr:
		if len(q.Exprs) == 0 {
			return "-*"
		}
		sep = " OR "
	}
	parts := make([]string, len(q.Exprs))
	for i, e := range q.Exprs {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Op is a boolean operator.
type Op int

const (
	OpAnd Op = 1 + iota
	OpOr
	OpNot
)

func (o Op) String() string {
	switch o {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpNot:
		return "NOT"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// ParseFilter parses a filter expression into a Filter tree.
func ParseFilter(q string) (Filter, error) {
	var p filterParser
	f, toks := p.expr(newTokenizer(q))
	toks = toks.end()
	if toks.errt.err != nil {
		return nil, toks.errt.err
	}
	return f, nil
}

// filterParser is a recursive-descent parser for:
//
//	expr  = and { "OR" and }
//	and   = match { ["AND"] match }
//	match = "(" expr ")" | "-" match | "*" | key ":" values
//	values = value | "(" value { "OR" value } ")"
type filterParser struct{}

func (p *filterParser) fail(toks tokenizer, msg string) (Filter, tokenizer) {
	_, toks = toks.error(msg)
	return nil, toks
}

func (p *filterParser) expr(toks tokenizer) (Filter, tokenizer) {
	var terms []Filter
	for {
		var q Filter
		q, toks = p.and(toks)
		terms = append(terms, q)
		op, rest := toks.keyOrOp()
		if op.Kind != tokOr {
			break
		}
		toks = rest
	}
	if len(terms) == 1 {
		return terms[0], toks
	}
	return &FilterOp{OpOr, terms}, toks
}

func (p *filterParser) and(toks tokenizer) (Filter, tokenizer) {
	q, toks := p.match(toks)
	terms := []Filter{q}
	for {
		op, rest := toks.keyOrOp()
		switch op.Kind {
		case tokAnd:
			// Juxtaposition already means AND.
			toks = rest
			continue
		case '(', '-', '*', tokWord, tokQuoted:
			q, toks = p.match(toks)
			terms = append(terms, q)
			continue
		case ')', tokOr, tokEOF:
		default:
			return p.fail(toks, "unexpected "+strconv.Quote(op.Tok))
		}
		break
	}
	if len(terms) == 1 {
		return terms[0], toks
	}
	return &FilterOp{OpAnd, terms}, toks
}

func (p *filterParser) match(start tokenizer) (Filter, tokenizer) {
	tk, rest := start.keyOrOp()
	switch tk.Kind {
	case '(':
		q, rest := p.expr(rest)
		op, rest2 := rest.keyOrOp()
		if op.Kind != ')' {
			return p.fail(rest, "missing \")\"")
		}
		return q, rest2
	case '-':
		q, rest := p.match(rest)
		return &FilterOp{OpNot, []Filter{q}}, rest
	case '*':
		return &FilterOp{OpAnd, nil}, rest
	case tokWord, tokQuoted:
		key, off := tk.Tok, tk.Off
		op, rest2 := rest.keyOrOp()
		if op.Kind != ':' {
			return p.fail(start, "expected key:value")
		}
		val, rest3 := rest2.valueOrOp()
		switch val.Kind {
		case tokWord, tokQuoted, tokRegexp:
			return mkMatch(off, key, val), rest3
		case '(':
			return p.valueList(off, key, rest3)
		}
		return p.fail(start, "expected key:value")
	}
	return p.fail(start, "expected key:value or subexpression")
}

// valueList parses the remainder of key:(v1 OR v2 ...).
func (p *filterParser) valueList(off int, key string, toks tokenizer) (Filter, tokenizer) {
	var terms []Filter
	for {
		val, rest := toks.valueOrOp()
		switch val.Kind {
		case tokWord, tokQuoted, tokRegexp:
			terms = append(terms, mkMatch(off, key, val))
		default:
			return p.fail(toks, "expected value")
		}
		toks = rest

		sep, rest := toks.valueOrOp()
		switch sep.Kind {
		case ')':
			return &FilterOp{OpOr, terms}, rest
		case tokOr:
			toks = rest
		default:
			return p.fail(toks, "value list must be separated by OR")
		}
	}
}

func mkMatch(off int, key string, val tok) Filter {
	if val.Kind == tokRegexp {
		return &FilterMatch{Key: key, Regexp: val.Regexp, Off: off}
	}
	return &FilterMatch{Key: key, Lit: val.Tok, Off: off}
}
