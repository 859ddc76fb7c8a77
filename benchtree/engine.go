// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchtree

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/benchart/benchattr"
	"golang.org/x/benchart/benchrun"
)

var (
	// ErrNoRuns indicates an attempt to build a tree from no runs.
	ErrNoRuns = errors.New("no runs")

	// ErrSchema indicates that runs have different attribute keys.
	// Loaders should normalize their runs with benchrun.Normalize.
	ErrSchema = benchrun.ErrSchema

	// ErrDuplicateID indicates that two runs have the same ID.
	ErrDuplicateID = errors.New("duplicate run ID")

	// ErrStepOrder indicates a partition step declared after a
	// skip step.
	ErrStepOrder = errors.New("partition step after skip step")
)

// An Engine builds a partition tree from a batch of runs and an ordered
// list of declared steps.
//
// Before the declared steps, the engine applies two automatic
// partition steps. The first is on the attributes that have the same
// value in every run; it always produces exactly one group, the root,
// which records those shared attributes. The second is on the
// attributes that are neither shared nor named by any declared step;
// it separates runs that differ in ways the caller did not mention,
// and is omitted when there are no such attributes.
//
// An Engine is not safe for concurrent use, but the Trees it returns
// are never modified and may be read concurrently.
type Engine struct {
	// AllowTruncation permits partition steps after a skip step.
	// Such steps have no effect: the first skip step ends
	// partitioning on every branch. By default, Run rejects them
	// with ErrStepOrder.
	AllowTruncation bool

	// Warn, if non-nil, is called for suspicious but non-fatal
	// conditions, such as a step naming an attribute no run has.
	Warn func(format string, args ...interface{})

	runs  []*benchrun.Run
	steps []Step
}

// NewEngine returns an Engine for runs. Runs must be non-empty and
// should all have the same attribute keys.
func NewEngine(runs []*benchrun.Run) (*Engine, error) {
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return &Engine{runs: runs}, nil
}

// Add appends steps to the plan.
func (e *Engine) Add(steps ...Step) *Engine {
	e.steps = append(e.steps, steps...)
	return e
}

// Partition appends a partition step on attrs.
func (e *Engine) Partition(attrs ...string) *Engine {
	return e.Add(Partition(attrs...))
}

// Skip appends a skip step on attrs. Skip steps must come last.
func (e *Engine) Skip(attrs ...string) *Engine {
	return e.Add(Skip(attrs...))
}

// Build is shorthand for NewEngine(runs) followed by adding steps and
// calling Run.
func Build(runs []*benchrun.Run, steps ...Step) (*Tree, error) {
	e, err := NewEngine(runs)
	if err != nil {
		return nil, err
	}
	return e.Add(steps...).Run()
}

func (e *Engine) warn(format string, args ...interface{}) {
	if e.Warn != nil {
		e.Warn(format, args...)
	}
}

// Run builds the partition tree. It either returns a complete tree or
// fails before building anything.
func (e *Engine) Run() (*Tree, error) {
	if len(e.runs) == 0 {
		return nil, ErrNoRuns
	}
	if err := benchrun.CheckSchema(e.runs); err != nil {
		return nil, err
	}
	seen := make(map[benchrun.ID]bool, len(e.runs))
	for _, r := range e.runs {
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = true
	}
	if !e.AllowTruncation {
		if err := checkOrder(e.steps); err != nil {
			return nil, err
		}
	}

	shared, unaccounted := e.classify()
	steps := []Step{Partition(shared...)}
	if len(unaccounted) > 0 {
		steps = append(steps, Partition(unaccounted...))
	}
	steps = append(steps, e.steps...)

	b := &builder{t: &Tree{
		shared:      shared,
		unaccounted: unaccounted,
		runGroup:    make(map[benchrun.ID]NodeID, len(e.runs)),
		leaf:        make(map[benchrun.ID]NodeID, len(e.runs)),
		root:        NoNode,
	}}
	b.build(e.runs, steps)
	return b.t, nil
}

// classify splits the batch's attribute keys into those shared by all
// runs and those neither shared nor named by a declared step.
func (e *Engine) classify() (shared, unaccounted []string) {
	schema := e.runs[0].Attrs
	declared := make(map[string]bool)
	for _, s := range e.steps {
		for _, name := range s.Attrs {
			if !schema.Has(name) {
				e.warn("%s: no run has attribute %q", s, name)
			}
			declared[name] = true
		}
	}

	for _, name := range schema.Keys() {
		v, _ := schema.Get(name)
		same := true
		for _, r := range e.runs[1:] {
			if v2, _ := r.Attrs.Get(name); !v2.Equal(v) {
				same = false
				break
			}
		}
		if same {
			shared = append(shared, name)
		} else if !declared[name] {
			unaccounted = append(unaccounted, name)
		}
	}
	return shared, unaccounted
}

type builder struct {
	t *Tree
}

// frontierNode is a group at the deepest level built so far, with the
// runs that belong to it.
type frontierNode struct {
	id   NodeID
	runs []*benchrun.Run
}

func (b *builder) build(runs []*benchrun.Run, steps []Step) {
	t := b.t
	frontier := []frontierNode{{NoNode, runs}}
	for i, step := range steps {
		if step.Kind == SkipStep {
			// Nothing after a skip step has a frontier to
			// work on. Adjacent skip steps act as one.
			j := i + 1
			for j < len(steps) && steps[j].Kind == SkipStep {
				j++
			}
			t.steps = append(steps[:i:i], mergeSkips(steps[i:j]))
			if j < len(steps) {
				t.truncated = steps[j:]
			}
			break
		}
		t.steps = steps[:i+1]
		var next []frontierNode
		for _, f := range frontier {
			for _, g := range partition(f.runs, step) {
				id := b.addGroup(f.id, g.metadata, i)
				next = append(next, frontierNode{id, g.runs})
			}
		}
		frontier = next
		t.depth++
	}

	for _, f := range frontier {
		for _, r := range f.runs {
			b.addLeaf(f.id, r)
		}
	}
}

// mergeSkips returns a single skip step on the attributes of skips.
func mergeSkips(skips []Step) Step {
	if len(skips) == 1 {
		return skips[0]
	}
	var attrs []string
	for _, s := range skips {
		attrs = append(attrs, s.Attrs...)
	}
	return Skip(attrs...)
}

func (b *builder) addGroup(parent NodeID, md benchattr.Map, step int) NodeID {
	t := b.t
	id := NodeID(len(t.nodes))
	acc := md
	if parent == NoNode {
		if t.root != NoNode {
			panic("shared attribute step produced more than one group")
		}
		t.root = id
	} else {
		acc = t.nodes[parent].acc.Union(md)
		t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	}
	t.nodes = append(t.nodes, node{
		Node: Node{ID: id, Kind: GroupNode, Parent: parent, Metadata: md, Step: step},
		acc:  acc,
	})
	return id
}

func (b *builder) addLeaf(parent NodeID, r *benchrun.Run) {
	t := b.t
	id := NodeID(len(t.nodes))
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	t.nodes = append(t.nodes, node{
		Node: Node{ID: id, Kind: LeafNode, Parent: parent, Run: r, Step: -1},
		acc:  t.nodes[parent].acc,
	})
	t.runGroup[r.ID] = parent
	t.leaf[r.ID] = id
}

type group struct {
	metadata benchattr.Map
	runs     []*benchrun.Run
}

// partition groups runs by their projection onto step's attributes.
// Groups are in order of first appearance unless the step orders some
// of its attributes, in which case they are sorted by those orders.
func partition(runs []*benchrun.Run, step Step) []group {
	var groups []group
	index := make(map[benchattr.Key]int)
	for _, r := range runs {
		md := r.Attrs.Subset(step.Attrs...)
		k := md.Key()
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{metadata: md})
		}
		groups[i].runs = append(groups[i].runs, r)
	}
	if step.orders != nil {
		sortGroups(groups, step)
	}
	return groups
}

func sortGroups(groups []group, step Step) {
	// Rank each attribute's values by first appearance. This
	// orders attributes using "first" and breaks ties between
	// distinct values that an Order considers unordered.
	type valueKey struct {
		kind benchattr.Kind
		str  string
	}
	ranks := make([]map[valueKey]int, len(step.Attrs))
	rank := func(i int, v benchattr.Value) int {
		return ranks[i][valueKey{v.Kind(), v.String()}]
	}
	for i, name := range step.Attrs {
		ranks[i] = make(map[valueKey]int)
		for _, g := range groups {
			v, _ := g.metadata.Get(name)
			k := valueKey{v.Kind(), v.String()}
			if _, ok := ranks[i][k]; !ok {
				ranks[i][k] = len(ranks[i])
			}
		}
	}
	sort.SliceStable(groups, func(a, b int) bool {
		for i, name := range step.Attrs {
			va, _ := groups[a].metadata.Get(name)
			vb, _ := groups[b].metadata.Get(name)
			if va.Equal(vb) {
				continue
			}
			c := 0
			if order := step.orders[i]; order != nil {
				c = order(va, vb)
			}
			if c == 0 {
				c = rank(i, va) - rank(i, vb)
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}
