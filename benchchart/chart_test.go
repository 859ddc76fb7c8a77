// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchchart

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/benchart/benchattr"
	"golang.org/x/benchart/benchrun"
	"golang.org/x/benchart/benchtree"
)

func mkRun(id string, data string, kvs ...interface{}) *benchrun.Run {
	m := make(map[string]benchattr.Value)
	for i := 0; i < len(kvs); i += 2 {
		v, err := benchattr.ValueOf(kvs[i+1])
		if err != nil {
			panic(err)
		}
		m[kvs[i].(string)] = v
	}
	return benchrun.New(benchrun.ID(id), json.RawMessage(data), benchattr.New(m))
}

func testTree(t *testing.T) *benchtree.Tree {
	t.Helper()
	runs := []*benchrun.Run{
		mkRun("1", `{"tps": [10, 12, null, 14], "lat": [1, 2, 3, 4]}`, "os", "Linux", "version", 12, "hp", "on"),
		mkRun("2", `{"tps": [11, 13, 15]}`, "os", "Linux", "version", 12, "hp", "off"),
		mkRun("3", `{"tps": [20, 21], "note": "cold"}`, "os", "Linux", "version", 13, "hp", "on"),
	}
	tree, err := benchtree.Build(runs, benchtree.Partition("version"), benchtree.Skip("hp"))
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

type chartSummary struct {
	Title    string
	Subjects []string
	Labels   []string
}

func summarize(charts []*Chart) []chartSummary {
	var out []chartSummary
	for _, c := range charts {
		s := chartSummary{Title: c.Title, Subjects: c.Subjects}
		for _, l := range c.Lines {
			s.Labels = append(s.Labels, l.Label)
		}
		out = append(out, s)
	}
	return out
}

func TestCharts(t *testing.T) {
	tree := testTree(t)

	charts, err := Charts(tree, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []chartSummary{
		{"version: 12", []string{"lat", "tps"}, []string{"Run 1: hp: on", "Run 2: hp: off"}},
		{"version: 13", []string{"tps"}, []string{"Run 3: hp: on"}},
	}
	if diff := cmp.Diff(want, summarize(charts)); diff != "" {
		t.Errorf("charts mismatch (-want +got):\n%s", diff)
	}

	opts := &Options{
		Relabels: map[string]string{"version": "v"},
		Occlude:  []string{"hp"},
		Subjects: []string{"tps", "missing"},
	}
	charts, err = Charts(tree, opts)
	if err != nil {
		t.Fatal(err)
	}
	want = []chartSummary{
		{"v: 12", []string{"tps"}, []string{"Run 1", "Run 2"}},
		{"v: 13", []string{"tps"}, []string{"Run 3"}},
	}
	if diff := cmp.Diff(want, summarize(charts)); diff != "" {
		t.Errorf("charts with options mismatch (-want +got):\n%s", diff)
	}
}

func TestChartsRoot(t *testing.T) {
	runs := []*benchrun.Run{
		mkRun("a", `{"tps": [1]}`, "os", "Linux"),
		mkRun("b", `{"tps": [2]}`, "os", "Linux"),
	}
	tree, err := benchtree.Build(runs)
	if err != nil {
		t.Fatal(err)
	}
	charts, err := Charts(tree, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(charts) != 1 || charts[0].Title != "all runs" || charts[0].Group != tree.Root() {
		t.Errorf("got %+v, want one untitled chart of the root", summarize(charts))
	}
}

func TestSeriesPoints(t *testing.T) {
	ss, err := runSeries(mkRun("1", `{"tps": [10, 12, null, 14, 15], "note": "x", "mixed": [1, "a"]}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ss["note"]; ok {
		t.Errorf("string member decoded as a series")
	}
	if _, ok := ss["mixed"]; ok {
		t.Errorf("mixed array decoded as a series")
	}
	for _, test := range []struct {
		start, end, interval float64
		want                 []float64
	}{
		{0, 0, 1, []float64{0, 10, 1, 12, 3, 14, 4, 15}},
		{1, 3, 1, []float64{1, 12, 3, 14}},
		{3, 0, 1, []float64{3, 14, 4, 15}},
		{0, 0, 0.5, []float64{0, 10, 0.5, 12, 1.5, 14, 2, 15}},
		{1, 4, 2, []float64{2, 12}},
		{1, 0, 2, []float64{2, 12, 6, 14, 8, 15}},
	} {
		var got []float64
		for _, p := range ss["tps"].points(test.start, test.end, test.interval) {
			got = append(got, p.X, p.Y)
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("points(%v, %v, %v) mismatch (-want +got):\n%s", test.start, test.end, test.interval, diff)
		}
	}
}

func TestRender(t *testing.T) {
	charts, err := Charts(testTree(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		format string
		magic  string
	}{
		{"svg", "<svg"},
		{"png", "\x89PNG"},
	} {
		var buf bytes.Buffer
		if err := charts[0].Render(&buf, test.format); err != nil {
			t.Fatalf("%s: %v", test.format, err)
		}
		if !bytes.Contains(buf.Bytes(), []byte(test.magic)) {
			t.Errorf("%s output does not contain %q", test.format, test.magic)
		}
	}
	if err := charts[0].Render(new(bytes.Buffer), "gif"); err == nil {
		t.Errorf("Render(gif) succeeded")
	}

	empty := &Chart{Title: "empty", opts: new(Options)}
	if err := empty.Render(new(bytes.Buffer), "svg"); !errors.Is(err, ErrNoSeries) {
		t.Errorf("Render of chart without series: got %v, want ErrNoSeries", err)
	}
}

func TestSubjects(t *testing.T) {
	for _, test := range []struct {
		data string
		want []string
	}{
		{`{"tps": [1, 2], "lat": [null, 3], "note": "x"}`, []string{"lat", "tps"}},
		{`{"note": "x"}`, []string{}},
		{`[1, 2]`, []string{}},
	} {
		got, err := Subjects(mkRun("1", test.data))
		if err != nil {
			t.Errorf("%s: %v", test.data, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("%s: Subjects mismatch (-want +got):\n%s", test.data, diff)
		}
	}
}
