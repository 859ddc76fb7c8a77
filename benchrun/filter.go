// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchrun

import (
	"fmt"

	"golang.org/x/benchart/benchattr"
	"golang.org/x/benchart/internal/parse"
)

// SourceKey is the filter key that matches a record's source label
// rather than one of its attributes.
const SourceKey = ".source"

// A Filter is a discard predicate over run records. Records that do
// not match are dropped before a Run is constructed for them.
//
// A nil *Filter matches everything.
type Filter struct {
	query string
	match filterFn
}

type filterFn func(source string, attrs benchattr.Map) bool

// NewFilter parses a boolean filter expression, such as
// "machine_os:Linux -hp:off". A match compares the string form of an
// attribute's value; attributes a record lacks match as "". The key
// ".source" matches the record's source label.
//
// To create a filter that matches everything, pass "*" for query.
func NewFilter(query string) (*Filter, error) {
	q, err := parse.ParseFilter(query)
	if err != nil {
		return nil, err
	}
	var walk func(q parse.Filter) filterFn
	walk = func(q parse.Filter) filterFn {
		switch q := q.(type) {
		case *parse.FilterOp:
			subs := make([]filterFn, len(q.Exprs))
			for i, sub := range q.Exprs {
				subs[i] = walk(sub)
			}
			return filterOp(q.Op, subs)

		case *parse.FilterMatch:
			if q.Key == SourceKey {
				return func(source string, _ benchattr.Map) bool {
					return q.MatchString(source)
				}
			}
			return func(_ string, attrs benchattr.Map) bool {
				v, _ := attrs.Get(q.Key)
				return q.MatchString(v.String())
			}
		}
		panic(fmt.Sprintf("unknown filter node type %T", q))
	}
	return &Filter{query, walk(q)}, nil
}

func filterOp(op parse.Op, subs []filterFn) filterFn {
	switch op {
	case parse.OpNot:
		sub := subs[0]
		return func(source string, attrs benchattr.Map) bool {
			return !sub(source, attrs)
		}
	case parse.OpAnd:
		return func(source string, attrs benchattr.Map) bool {
			for _, sub := range subs {
				if !sub(source, attrs) {
					return false
				}
			}
			return true
		}
	case parse.OpOr:
		return func(source string, attrs benchattr.Map) bool {
			for _, sub := range subs {
				if sub(source, attrs) {
					return true
				}
			}
			return false
		}
	}
	panic(fmt.Sprintf("unknown filter op %v", op))
}

// Match reports whether a record from source with attributes attrs
// should be kept.
func (f *Filter) Match(source string, attrs benchattr.Map) bool {
	if f == nil {
		return true
	}
	return f.match(source, attrs)
}

// MatchRun is Match for an already constructed Run.
func (f *Filter) MatchRun(r *Run) bool {
	return f.Match(r.Source, r.Attrs)
}

// String returns the query f was parsed from.
func (f *Filter) String() string {
	if f == nil {
		return "*"
	}
	return f.query
}
