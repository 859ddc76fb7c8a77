// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchrun

import (
	"errors"
	"testing"

	"golang.org/x/benchart/benchattr"
)

func attrs(t *testing.T, kvs ...interface{}) benchattr.Map {
	t.Helper()
	var entries []benchattr.Entry
	for i := 0; i < len(kvs); i += 2 {
		v, err := benchattr.ValueOf(kvs[i+1])
		if err != nil {
			t.Fatal(err)
		}
		entries = append(entries, benchattr.Entry{Key: kvs[i].(string), Value: v})
	}
	m, err := benchattr.FromEntries(entries...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNormalize(t *testing.T) {
	runs := []*Run{
		New(IntID(1), nil, attrs(t, "os", "Linux", "hp", "on")),
		New(IntID(2), nil, attrs(t, "os", "Linux", "kernel", "5.18.5")),
		New(IntID(3), nil, attrs(t, "os", "Linux", "hp", "off", "kernel", "6.1")),
	}
	if err := CheckSchema(runs); !errors.Is(err, ErrSchema) {
		t.Fatalf("before Normalize: want ErrSchema, got %v", err)
	}
	third := runs[2].Attrs

	Normalize(runs)

	want := []string{
		"{hp: on, kernel: , os: Linux}",
		"{hp: , kernel: 5.18.5, os: Linux}",
		"{hp: off, kernel: 6.1, os: Linux}",
	}
	for i, r := range runs {
		if got := r.Attrs.String(); got != want[i] {
			t.Errorf("run %s: got %s, want %s", r.ID, got, want[i])
		}
	}
	if !runs[2].Attrs.Equal(third) {
		t.Errorf("complete run was changed by Normalize")
	}
	if err := CheckSchema(runs); err != nil {
		t.Errorf("after Normalize: %v", err)
	}
}

func TestCheckSchema(t *testing.T) {
	if err := CheckSchema(nil); err != nil {
		t.Errorf("empty batch: %v", err)
	}
	runs := []*Run{
		New("a", nil, attrs(t, "os", "Linux", "version", 12)),
		New("b", nil, attrs(t, "os", "Linux", "release", 12)),
	}
	err := CheckSchema(runs)
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("want ErrSchema, got %v", err)
	}
	if want := `runs have different attribute keys: run a and run b differ in "release"`; err.Error() != want {
		t.Errorf("got %q, want %q", err, want)
	}
}

func TestIntID(t *testing.T) {
	if got := IntID(42); got != "42" {
		t.Errorf("got %q", got)
	}
	if got := New(IntID(7), nil, benchattr.Map{}).String(); got != "Run 7" {
		t.Errorf("got %q", got)
	}
}
