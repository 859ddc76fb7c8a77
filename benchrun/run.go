// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchrun provides benchmark runs and the tools for loading
// them: reading run records, flattening their nested metadata into
// attribute maps, discarding unwanted records, and normalizing a batch
// so every run has the same attribute keys.
//
// A typical loader reads records with Files, which applies a Filter to
// each record before constructing its Run, and finishes the batch with
// Normalize. The resulting runs are ready to be partitioned by
// golang.org/x/benchart/benchtree.
package benchrun

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/benchart/benchattr"
)

// An ID identifies a Run within a batch. IDs are assigned by whatever
// produced the Run and must be distinct across a batch.
type ID string

// IntID returns the ID for an integer identifier.
func IntID(n int) ID {
	return ID(strconv.Itoa(n))
}

// A Run is one benchmark execution: its data and the attributes that
// describe it.
//
// Runs are immutable once handed to a consumer. In particular, a Run
// does not know which group of a tree contains it; trees keep that
// index themselves.
type Run struct {
	ID ID

	// Data is the run's payload. It is opaque to this package and
	// to the partitioning engine.
	Data interface{}

	// Attrs describes the run's configuration.
	Attrs benchattr.Map

	// Source identifies where the run came from, such as the file
	// it was read from. It is used only in diagnostics.
	Source string
}

// New returns a Run with the given ID, payload, and attributes.
func New(id ID, data interface{}, attrs benchattr.Map) *Run {
	return &Run{ID: id, Data: data, Attrs: attrs}
}

func (r *Run) String() string {
	return fmt.Sprintf("Run %s", r.ID)
}

// ErrSchema indicates that the runs of a batch do not all have the
// same attribute keys.
var ErrSchema = errors.New("runs have different attribute keys")

// Normalize gives every run in runs the union of all of their attribute
// keys. Attributes a run lacks are set to the empty string.
//
// Normalize replaces the Attrs of runs that lack attributes, so it
// must be called before the runs are shared with any consumer.
func Normalize(runs []*Run) {
	var all benchattr.Map
	for _, r := range runs {
		all = all.Union(r.Attrs)
	}
	for _, r := range runs {
		if r.Attrs.Len() == all.Len() {
			continue
		}
		attrs := r.Attrs
		for _, k := range all.Keys() {
			if !attrs.Has(k) {
				attrs = attrs.With(k, benchattr.String(""))
			}
		}
		r.Attrs = attrs
	}
}

// CheckSchema returns an error wrapping ErrSchema if any run's
// attribute keys differ from those of the first run.
func CheckSchema(runs []*Run) error {
	if len(runs) == 0 {
		return nil
	}
	first := runs[0]
	for _, r := range runs[1:] {
		if key, ok := first.Attrs.SameKeys(r.Attrs); !ok {
			return fmt.Errorf("%w: run %s and run %s differ in %q", ErrSchema, first.ID, r.ID, key)
		}
	}
	return nil
}
