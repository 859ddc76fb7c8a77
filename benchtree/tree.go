// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchtree partitions benchmark runs into a tree of groups.
//
// Given a batch of runs and an ordered list of steps, an Engine builds
// a Tree in which each level splits its parent's runs by the values of
// one step's attributes. The root records the attributes every run
// shares. Leaves are the runs themselves.
//
// For example, given five runs on the same Linux machine that vary in
// application_version and application_config_backend_flush_after,
//
//	tree, err := benchtree.Build(runs,
//		benchtree.Partition("application_version"),
//		benchtree.Partition("application_config_backend_flush_after"))
//
// produces a root with metadata {machine_os: Linux}, one child per
// version, and under each version one child per flush setting, each
// holding the runs with that combination.
//
// Trees are stored as arenas of nodes addressed by NodeID. A node is
// either a group (GroupNode), with metadata and children, or a leaf
// (LeafNode), with a run. The children of a node are all groups or all
// leaves.
package benchtree

import (
	"errors"
	"sort"

	"golang.org/x/benchart/benchattr"
	"golang.org/x/benchart/benchrun"
)

// A NodeID identifies a node within a Tree.
type NodeID int

// NoNode is the parent of the root.
const NoNode NodeID = -1

// NodeKind distinguishes groups from leaves.
type NodeKind uint8

const (
	GroupNode NodeKind = iota
	LeafNode
)

// A Node is one node of a Tree.
type Node struct {
	ID   NodeID
	Kind NodeKind

	// Parent is the node's parent, or NoNode for the root.
	Parent NodeID

	// Metadata is the projection, onto the attributes of the step
	// that created this group, shared by every run beneath it. It
	// is empty for leaves.
	Metadata benchattr.Map

	// Children are the group's children in order. They are either
	// all groups or all leaves. The caller must not modify this
	// slice.
	Children []NodeID

	// Run is the leaf's run. It is nil for groups.
	Run *benchrun.Run

	// Step is the index in Tree.Steps of the step that created
	// this group, or -1 for leaves.
	Step int
}

// IsLeaf reports whether n is a leaf.
func (n Node) IsLeaf() bool {
	return n.Kind == LeafNode
}

type node struct {
	Node
	// acc is the union of the metadata from the root to this node.
	// Leaves share their group's.
	acc benchattr.Map
}

// A Tree is the result of partitioning a batch of runs. Trees are
// never modified once built.
type Tree struct {
	nodes []node
	root  NodeID
	depth int

	steps, truncated    []Step
	shared, unaccounted []string

	// runGroup maps a run to the group that directly contains it.
	runGroup map[benchrun.ID]NodeID
	// leaf maps a run to its leaf node.
	leaf map[benchrun.ID]NodeID
}

// Root returns the root group. Its metadata is the set of attributes
// shared by every run.
func (t *Tree) Root() NodeID {
	return t.root
}

// Len returns the number of nodes in t, groups and leaves.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Depth returns the number of group levels of t: the number of steps
// that produced groups. Leaves are one level below that.
func (t *Tree) Depth() int {
	return t.depth
}

// Node returns node id.
func (t *Tree) Node(id NodeID) Node {
	return t.nodes[id].Node
}

// Parent returns the parent of id, or NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].Parent
}

// Children returns the children of id. The caller must not modify the
// returned slice.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.nodes[id].Children
}

// Metadata returns the metadata of group id.
func (t *Tree) Metadata(id NodeID) benchattr.Map {
	return t.nodes[id].Metadata
}

// Run returns the run of leaf id, or nil if id is a group.
func (t *Tree) Run(id NodeID) *benchrun.Run {
	return t.nodes[id].Run
}

// GroupOf returns the group that directly contains the run with the
// given ID.
func (t *Tree) GroupOf(run benchrun.ID) (NodeID, bool) {
	id, ok := t.runGroup[run]
	return id, ok
}

// LeafOf returns the leaf node of the run with the given ID.
func (t *Tree) LeafOf(run benchrun.ID) (NodeID, bool) {
	id, ok := t.leaf[run]
	return id, ok
}

// Steps returns the steps that were evaluated to build t, starting
// with the automatic steps. If partitioning ended at a skip step, that
// step is the last one; adjacent skip steps are merged into it. The caller must not modify the returned slice.
func (t *Tree) Steps() []Step {
	return t.steps
}

// Truncated returns the declared steps that had no effect because they
// followed a skip step. It is empty unless the Engine allowed
// truncation.
func (t *Tree) Truncated() []Step {
	return t.truncated
}

// Shared returns the attributes whose value is the same in every run.
func (t *Tree) Shared() []string {
	return t.shared
}

// Unaccounted returns the attributes that vary between runs but were
// not named by any declared step.
func (t *Tree) Unaccounted() []string {
	return t.unaccounted
}

// AccumulatedMetadata returns the union of the metadata of id and all
// of its ancestors. For a leaf, this is its group's.
func (t *Tree) AccumulatedMetadata(id NodeID) benchattr.Map {
	return t.nodes[id].acc
}

// AccumulatedAttrs returns the attribute names explained by the path
// from the root to id, in sorted order. A consumer labeling a run need
// not repeat these.
func (t *Tree) AccumulatedAttrs(id NodeID) []string {
	return t.nodes[id].acc.Keys()
}

// Label returns the attributes of leaf id's run that are not explained
// by its ancestors, excluding any attributes named in occlude.
func (t *Tree) Label(id NodeID, occlude ...string) benchattr.Map {
	n := t.nodes[id]
	if n.Kind != LeafNode {
		return benchattr.Map{}
	}
	return n.Run.Attrs.Except(n.acc.Keys()...).Except(occlude...)
}

// Title returns the accumulated metadata of id without the attributes
// shared by every run, which are recorded once at the root.
func (t *Tree) Title(id NodeID) benchattr.Map {
	return t.nodes[id].acc.Minus(t.nodes[t.root].Metadata)
}

// SortedChildren returns the children of group id sorted by the content
// key of their metadata. Leaves are sorted by run ID, numerically if
// the IDs are numbers. Use it when output must not depend on the order
// runs were read in.
func (t *Tree) SortedChildren(id NodeID) []NodeID {
	kids := append([]NodeID(nil), t.nodes[id].Children...)
	sort.SliceStable(kids, func(i, j int) bool {
		a, b := t.nodes[kids[i]], t.nodes[kids[j]]
		if a.Kind == LeafNode {
			return idLess(a.Run.ID, b.Run.ID)
		}
		return a.Metadata.Key() < b.Metadata.Key()
	})
	return kids
}

var numOrder, _ = benchattr.LookupOrder("num")

func idLess(a, b benchrun.ID) bool {
	if c := numOrder(benchattr.String(string(a)), benchattr.String(string(b))); c != 0 {
		return c < 0
	}
	return a < b
}

// Runs returns the runs beneath id in walk order.
func (t *Tree) Runs(id NodeID) []*benchrun.Run {
	var runs []*benchrun.Run
	t.walk(id, 0, func(id NodeID, _ int) error {
		if r := t.nodes[id].Run; r != nil {
			runs = append(runs, r)
		}
		return nil
	})
	return runs
}

// SkipChildren may be returned by a Walk function to skip the
// children of the current node.
var SkipChildren = errors.New("skip children")

// Walk calls fn for every node of t in depth-first preorder, starting
// at the root with depth 0. Parents are visited before their children,
// and children in order. If fn returns SkipChildren, Walk does not
// visit the node's children. If fn returns any other error, Walk stops
// and returns it.
func (t *Tree) Walk(fn func(id NodeID, depth int) error) error {
	return t.walk(t.root, 0, fn)
}

func (t *Tree) walk(id NodeID, depth int, fn func(NodeID, int) error) error {
	if err := fn(id, depth); err != nil {
		if err == SkipChildren {
			return nil
		}
		return err
	}
	for _, kid := range t.nodes[id].Children {
		if err := t.walk(kid, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}
