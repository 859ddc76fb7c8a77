// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/benchart/benchrun"
	"golang.org/x/benchart/benchrun/runstore"
	"golang.org/x/benchart/benchtree"
	"golang.org/x/benchart/internal/diff"
)

func TestText(t *testing.T) {
	golden(t, "partition", "-partition", "application_version", "-partition", "application_config_backend_flush_after", "runs.json")
	golden(t, "config", "-config", "config.yaml", "-occlude", "machine_id", "runs.json")
	// Command-line partitions go before the file's ignore.
	golden(t, "refine", "-config", "config.yaml", "-partition", "application_config_backend_flush_after", "runs.json")
}

func TestTable(t *testing.T) {
	golden(t, "table", "-format", "table", "-config", "config.yaml", "runs.json")
	golden(t, "csv", "-format", "csv", "-config", "config.yaml", "runs.json")
}

func TestFilter(t *testing.T) {
	// Filtering out the only hp:off run leaves hp and machine_id
	// shared by every run.
	golden(t, "filter", "-filter", "-hp:off", "-partition", "application_version@num", "runs.json")
}

func TestTruncate(t *testing.T) {
	args := []string{"-ignore", "hp,machine_id", "-partition", "application_version", "runs.json"}
	err := run(t, new(bytes.Buffer), new(bytes.Buffer), args...)
	if !errors.Is(err, benchtree.ErrStepOrder) {
		t.Fatalf("want ErrStepOrder, got %v", err)
	}
	golden(t, "truncate", append([]string{"-truncate"}, args...)...)
}

func TestWarnings(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(t, &stdout, &stderr, "-partition", "application_verison", "runs.json"); err != nil {
		t.Fatal(err)
	}
	want := "warning: partition application_verison: no run has attribute \"application_verison\"\n"
	if got := stderr.String(); got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"-format", "html", "runs.json"},
		{"-db", "sqlite3::memory:", "runs.json"},
		{"-db", "nocolon"},
		{"-chart", t.TempDir(), "-chart-format", "gif", "runs.json"},
		{"-chart", t.TempDir(), "-timebounds", "10", "runs.json"},
		{"-chart", t.TempDir(), "-interval", "0", "runs.json"},
	} {
		err := run(t, new(bytes.Buffer), new(bytes.Buffer), args...)
		if !errors.Is(err, errUsage) {
			t.Errorf("benchart %s: want usage error, got %v", strings.Join(args, " "), err)
		}
	}
}

func TestErrors(t *testing.T) {
	for _, test := range []struct {
		args []string
		want string
	}{
		{[]string{"-partition", "a@bogus", "runs.json"}, `parsing -partition: syntax error: unknown order "bogus"`},
		{[]string{"-filter", "hp:", "runs.json"}, "parsing -filter: syntax error"},
		{[]string{"-filter", "hp:maybe", "runs.json"}, "no runs"},
		{[]string{"missing.json"}, "missing.json"},
		{[]string{"-config", "missing.yaml", "runs.json"}, "missing.yaml"},
	} {
		err := run(t, new(bytes.Buffer), new(bytes.Buffer), test.args...)
		if err == nil || !strings.Contains(err.Error(), test.want) {
			t.Errorf("benchart %s: got %v, want error containing %q", strings.Join(test.args, " "), err, test.want)
		}
	}
}

func TestJSON(t *testing.T) {
	var stdout bytes.Buffer
	if err := run(t, &stdout, new(bytes.Buffer), "-format", "json", "-config", "config.yaml", "runs.json"); err != nil {
		t.Fatal(err)
	}
	var root struct {
		Metadata map[string]interface{}
		Children []struct {
			Metadata map[string]interface{}
			Children []struct {
				Metadata map[string]interface{}
				Children []struct {
					Run, Source string
					Label       map[string]interface{}
				}
			}
		}
	}
	if err := json.Unmarshal(stdout.Bytes(), &root); err != nil {
		t.Fatal(err)
	}
	if got := root.Metadata["machine_os"]; got != "Linux" {
		t.Errorf("root machine_os = %v, want Linux", got)
	}
	if n := len(root.Children); n != 3 {
		t.Fatalf("root has %d children, want 3", n)
	}
	last := root.Children[2].Children[0]
	if got := last.Metadata["application_version"]; got != 12.0 {
		t.Errorf("application_version = %v, want 12", got)
	}
	if n := len(last.Children); n != 2 {
		t.Fatalf("last group has %d runs, want 2", n)
	}
	r := last.Children[1]
	if r.Run != "5" || r.Source != "runs.json" || r.Label["hp"] != "off" || r.Label["machine_id"] != 222.0 {
		t.Errorf("last run = %+v", r)
	}
}

func TestDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := runstore.OpenSQL("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	files := benchrun.Files{Paths: []string{filepath.Join("testdata", "runs.json")}}
	for files.Scan() {
		if err := store.InsertRun(context.Background(), files.Run()); err != nil {
			t.Fatal(err)
		}
	}
	if err := files.Err(); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	if err := run(t, &stdout, new(bytes.Buffer), "-db", "sqlite3:"+path, "-partition", "application_version", "-partition", "application_config_backend_flush_after"); err != nil {
		t.Fatal(err)
	}
	want, err := os.ReadFile(filepath.Join("testdata", "partition.stdout"))
	if err != nil {
		t.Fatal(err)
	}
	if d := diff.Diff(string(want), stdout.String()); d != "" {
		t.Errorf("output from run store differs from file output:\n%s", d)
	}
}

func TestCharts(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer
	if err := run(t, new(bytes.Buffer), &stderr, "-config", "config.yaml", "-chart", dir, "-timebounds", "1:", "runs.json"); err != nil {
		t.Fatal(err)
	}
	if stderr.Len() > 0 {
		t.Errorf("unexpected warnings:\n%s", stderr.String())
	}
	for _, name := range []string{"chart1.svg", "chart2.svg", "chart3.svg", "chart4.svg"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Error(err)
			continue
		}
		if !bytes.Contains(data, []byte("<svg")) {
			t.Errorf("%s is not an SVG", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "chart5.svg")); err == nil {
		t.Errorf("wrote more charts than groups of runs")
	}
}

func TestChartInterval(t *testing.T) {
	// At 10 seconds per sample, every series extends past 10s, so
	// bounding the time range still leaves a line in every chart.
	dir := t.TempDir()
	var stderr bytes.Buffer
	if err := run(t, new(bytes.Buffer), &stderr, "-chart", dir, "-chart-format", "png", "-interval", "10", "-timebounds", "10:", "runs.json"); err != nil {
		t.Fatal(err)
	}
	if stderr.Len() > 0 {
		t.Errorf("unexpected warnings:\n%s", stderr.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "chart1.png"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("chart1.png is not a PNG")
	}
}

// run runs benchart in the testdata directory.
func run(t *testing.T, stdout, stderr *bytes.Buffer, args ...string) error {
	t.Helper()
	// The paths in args are relative to testdata, except for temp
	// directories, which are absolute.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir("testdata"); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)
	t.Logf("benchart %s", strings.Join(args, " "))
	return benchart(stdout, stderr, args)
}

func golden(t *testing.T, name string, args ...string) {
	t.Helper()
	var got, gotErr bytes.Buffer
	if err := run(t, &got, &gotErr, args...); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	compare(t, name, "stdout", got.Bytes())
	compare(t, name, "stderr", gotErr.Bytes())
}

func compare(t *testing.T, name, sub string, got []byte) {
	t.Helper()

	wantPath := filepath.Join("testdata", name+"."+sub)
	want, err := os.ReadFile(wantPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Treat a missing file as empty.
			want = nil
		} else {
			t.Fatal(err)
		}
	}
	if d := diff.Diff(string(want), string(got)); d != "" {
		t.Errorf("%s differs:\n%s", wantPath, d)

		// Write a "got" file for reference.
		gotPath := filepath.Join("testdata", name+".got-"+sub)
		if err := os.WriteFile(gotPath, got, 0666); err != nil {
			t.Fatalf("error writing %s: %s", gotPath, err)
		}
	}
}
