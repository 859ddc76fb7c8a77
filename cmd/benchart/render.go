// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/benchart/benchattr"
	"golang.org/x/benchart/benchchart"
	"golang.org/x/benchart/benchtree"
	"golang.org/x/benchart/internal/texttab"
)

type renderer func(w io.Writer, t *benchtree.Tree, cfg *config) error

var renderers = map[string]renderer{
	"text":  renderText,
	"table": renderTable,
	"csv":   renderCSV,
	"json":  renderJSON,
}

// runLabel returns "Run <id>", followed by the attributes of leaf id's
// run that its group does not explain.
func runLabel(t *benchtree.Tree, id benchtree.NodeID, cfg *config) string {
	s := "Run " + string(t.Run(id).ID)
	if l := t.Label(id, cfg.Occlude...); l.Len() > 0 {
		s += ": " + l.Format(cfg.Relabel)
	}
	return s
}

// renderText prints t as an outline, indenting each level by two
// spaces.
func renderText(w io.Writer, t *benchtree.Tree, cfg *config) error {
	return t.Walk(func(id benchtree.NodeID, depth int) error {
		var line string
		if t.Node(id).IsLeaf() {
			line = runLabel(t, id, cfg)
		} else {
			line = t.Metadata(id).Format(cfg.Relabel)
			if line == "" {
				line = "all runs"
			}
		}
		_, err := fmt.Fprintf(w, "%*s%s\n", 2*depth, "", line)
		return err
	})
}

// levelAttrs returns the attributes that split each level below the
// root, in level order.
func levelAttrs(t *benchtree.Tree) [][]string {
	var levels [][]string
	for _, s := range t.Steps()[1:t.Depth()] {
		levels = append(levels, s.Attrs)
	}
	return levels
}

// leafRow is one run of the tree together with its groups.
type leafRow struct {
	leaf benchtree.NodeID
	// groups are the leaf's ancestors below the root, top first.
	groups []benchtree.NodeID
	// first[i] reports whether this is the first run under groups[i].
	first []bool
}

// leafRows returns a row for every run of t, in walk order.
func leafRows(t *benchtree.Tree) []leafRow {
	var rows []leafRow
	var path []benchtree.NodeID
	var fresh []bool
	t.Walk(func(id benchtree.NodeID, depth int) error {
		if !t.Node(id).IsLeaf() {
			if depth > 0 {
				path = append(path[:depth-1], id)
				fresh = append(fresh[:depth-1], true)
			}
			return nil
		}
		row := leafRow{leaf: id, groups: append([]benchtree.NodeID(nil), path...), first: append([]bool(nil), fresh...)}
		for i := range fresh {
			fresh[i] = false
		}
		rows = append(rows, row)
		return nil
	})
	return rows
}

func relabel(name string, cfg *config) string {
	if r, ok := cfg.Relabel[name]; ok {
		return r
	}
	return name
}

func attrString(m benchattr.Map, name string) string {
	if v, ok := m.Get(name); ok {
		return v.String()
	}
	return ""
}

// renderTable prints the shared attributes followed by a table with a
// row per run. A group's values are printed only on its first row.
func renderTable(w io.Writer, t *benchtree.Tree, cfg *config) error {
	if shared := t.Metadata(t.Root()).Format(cfg.Relabel); shared != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", shared); err != nil {
			return err
		}
	}

	levels := levelAttrs(t)
	tab := new(texttab.Table)
	tab.Row()
	for _, attrs := range levels {
		for _, name := range attrs {
			tab.Cell(relabel(name, cfg))
		}
	}
	tab.Cell("run").Cell("label")

	for _, row := range leafRows(t) {
		tab.Row()
		for i, attrs := range levels {
			md := t.Metadata(row.groups[i])
			for _, name := range attrs {
				if row.first[i] {
					tab.Cell(attrString(md, name))
				} else {
					tab.Cell("")
				}
			}
		}
		tab.Cell(string(t.Run(row.leaf).ID))
		tab.Cell(t.Label(row.leaf, cfg.Occlude...).Format(cfg.Relabel))
	}
	return tab.Format(w)
}

// renderCSV prints a row per run with every grouping attribute,
// including the shared ones.
func renderCSV(w io.Writer, t *benchtree.Tree, cfg *config) error {
	shared := t.Shared()
	levels := levelAttrs(t)

	cw := csv.NewWriter(w)
	var header []string
	for _, name := range shared {
		header = append(header, relabel(name, cfg))
	}
	for _, attrs := range levels {
		for _, name := range attrs {
			header = append(header, relabel(name, cfg))
		}
	}
	header = append(header, "run", "label")
	cw.Write(header)

	root := t.Metadata(t.Root())
	for _, row := range leafRows(t) {
		var rec []string
		for _, name := range shared {
			rec = append(rec, attrString(root, name))
		}
		for i, attrs := range levels {
			md := t.Metadata(row.groups[i])
			for _, name := range attrs {
				rec = append(rec, attrString(md, name))
			}
		}
		rec = append(rec, string(t.Run(row.leaf).ID))
		rec = append(rec, t.Label(row.leaf, cfg.Occlude...).Format(cfg.Relabel))
		cw.Write(rec)
	}
	cw.Flush()
	return cw.Error()
}

type jsonNode struct {
	Metadata *benchattr.Map `json:"metadata,omitempty"`
	Run      string         `json:"run,omitempty"`
	Source   string         `json:"source,omitempty"`
	Label    *benchattr.Map `json:"label,omitempty"`
	Children []*jsonNode    `json:"children,omitempty"`
}

// renderJSON prints t as nested JSON objects. Groups have metadata and
// children; runs have an ID, a source, and a label.
func renderJSON(w io.Writer, t *benchtree.Tree, cfg *config) error {
	var conv func(id benchtree.NodeID) *jsonNode
	conv = func(id benchtree.NodeID) *jsonNode {
		n := t.Node(id)
		if n.IsLeaf() {
			label := t.Label(id, cfg.Occlude...)
			return &jsonNode{Run: string(n.Run.ID), Source: n.Run.Source, Label: &label}
		}
		jn := &jsonNode{Metadata: &n.Metadata}
		for _, kid := range n.Children {
			jn.Children = append(jn.Children, conv(kid))
		}
		return jn
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(conv(t.Root()))
}

// writeCharts writes a chart of each group of runs in t to dir, named
// chartN.format. Groups without time series are skipped with a
// warning.
func writeCharts(dir, format string, t *benchtree.Tree, opts *benchchart.Options, warn func(string, ...interface{})) error {
	known := false
	for _, f := range benchchart.Formats {
		known = known || f == format
	}
	if !known {
		return fmt.Errorf("%w: unknown -chart-format %q", errUsage, format)
	}
	charts, err := benchchart.Charts(t, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}
	for i, c := range charts {
		path := filepath.Join(dir, fmt.Sprintf("chart%d.%s", i+1, format))
		if err := writeChart(path, format, c); err != nil {
			if errors.Is(err, benchchart.ErrNoSeries) {
				warn("chart %q: %v", strings.TrimSpace(c.Title), err)
				continue
			}
			return err
		}
	}
	return nil
}

func writeChart(path, format string, c *benchchart.Chart) error {
	if len(c.Subjects) == 0 {
		return benchchart.ErrNoSeries
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Render(f, format); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
