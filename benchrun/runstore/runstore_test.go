// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runstore_test

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/benchart/benchattr"
	"golang.org/x/benchart/benchrun"
	"golang.org/x/benchart/benchrun/runstore/storetest"
)

func testRuns() []*benchrun.Run {
	mk := func(id, source, data string, m map[string]benchattr.Value) *benchrun.Run {
		r := benchrun.New(benchrun.ID(id), json.RawMessage(data), benchattr.New(m))
		r.Source = source
		return r
	}
	return []*benchrun.Run{
		mk("b", "a.json", `{"samples":[1,2]}`, map[string]benchattr.Value{
			"machine_os":  benchattr.String("Linux"),
			"version":     benchattr.Int(12),
			"hugepages":   benchattr.Bool(true),
			"flush_ratio": benchattr.Number(0.25),
		}),
		mk("a", "a.json", `{"samples":[3]}`, map[string]benchattr.Value{
			"machine_os":  benchattr.String("Linux"),
			"version":     benchattr.Int(13),
			"hugepages":   benchattr.Bool(false),
			"flush_ratio": benchattr.Number(math.Inf(1)),
		}),
		mk("c", "b.json", `null`, map[string]benchattr.Value{
			"machine_os":  benchattr.String("12"),
			"version":     benchattr.Int(13),
			"hugepages":   benchattr.Bool(false),
			"flush_ratio": benchattr.Number(1e20),
		}),
	}
}

type storedRun struct {
	ID     benchrun.ID
	Source string
	Data   string
	Attrs  string
}

func summarize(runs []*benchrun.Run) []storedRun {
	var out []storedRun
	for _, r := range runs {
		data, _ := r.Data.(json.RawMessage)
		out = append(out, storedRun{r.ID, r.Source, string(data), string(r.Attrs.Key())})
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, cleanup := storetest.NewDB(t)
	defer cleanup()

	runs := testRuns()
	for _, r := range runs {
		if err := db.InsertRun(ctx, r); err != nil {
			t.Fatalf("InsertRun(%s): %v", r.ID, err)
		}
	}
	n, err := db.CountRuns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(runs) {
		t.Errorf("CountRuns = %d, want %d", n, len(runs))
	}

	got, err := db.Runs(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Attribute keys encode kinds, so a string "12" and a number
	// 12 must come back distinct.
	if diff := cmp.Diff(summarize(runs), summarize(got)); diff != "" {
		t.Errorf("stored runs mismatch (-want +got):\n%s", diff)
	}
}

func TestDuplicateID(t *testing.T) {
	ctx := context.Background()
	db, cleanup := storetest.NewDB(t)
	defer cleanup()

	r := testRuns()[0]
	if err := db.InsertRun(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertRun(ctx, r); err == nil {
		t.Fatal("inserting a duplicate run succeeded")
	}
	// The failed insert must not leave partial rows behind.
	got, err := db.Runs(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Attrs.Len() != r.Attrs.Len() {
		t.Errorf("after failed insert, store has %v", summarize(got))
	}
}

func TestRunsFilter(t *testing.T) {
	ctx := context.Background()
	db, cleanup := storetest.NewDB(t)
	defer cleanup()

	for _, r := range testRuns() {
		if err := db.InsertRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	for _, test := range []struct {
		query string
		want  []benchrun.ID
	}{
		{"*", []benchrun.ID{"b", "a", "c"}},
		{"version:13", []benchrun.ID{"a", "c"}},
		{".source:b.json", []benchrun.ID{"c"}},
		{"hugepages:true OR flush_ratio:+Inf", []benchrun.ID{"b", "a"}},
		{"-machine_os:Linux", []benchrun.ID{"c"}},
	} {
		t.Run(test.query, func(t *testing.T) {
			f, err := benchrun.NewFilter(test.query)
			if err != nil {
				t.Fatal(err)
			}
			runs, err := db.Runs(ctx, f)
			if err != nil {
				t.Fatal(err)
			}
			var got []benchrun.ID
			for _, r := range runs {
				got = append(got, r.ID)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Runs(%q) mismatch (-want +got):\n%s", test.query, diff)
			}
		})
	}
}
