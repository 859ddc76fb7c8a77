// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchrun

import "testing"

func TestFilter(t *testing.T) {
	a := attrs(t,
		"machine_instance_hostinfo_Hostname", "vm-7",
		"machine_disk_caching", "ReadOnly",
		"benchmark_config_scale", 100,
		"hp", "on",
	)
	check := func(query string, want bool) {
		t.Helper()
		f, err := NewFilter(query)
		if err != nil {
			t.Errorf("%s: unexpected error %s", query, err)
			return
		}
		if got := f.Match("results/vm-7.json", a); got != want {
			t.Errorf("%s: got %v, want %v", query, got, want)
		}
	}

	check("*", true)
	check("-*", false)
	check("machine_instance_hostinfo_Hostname:vm-7", true)
	check("-machine_instance_hostinfo_Hostname:vm-7", false)
	check("benchmark_config_scale:100", true)
	check("benchmark_config_scale:(10 OR 100)", true)
	check("benchmark_config_scale:/^1/ hp:off", false)
	check("benchmark_config_scale:/^1/ OR hp:off", true)
	check("machine_disk_caching:ReadOnly -(hp:on)", false)
	check("missing:\"\"", true)
	check("missing:x", false)
	check(".source:/vm-7/", true)
	check("-.source:results/vm-7.json", false)
}

func TestFilterNil(t *testing.T) {
	var f *Filter
	if !f.Match("", attrs(t, "a", 1)) {
		t.Errorf("nil Filter should match everything")
	}
	if f.String() != "*" {
		t.Errorf("nil Filter String = %q", f.String())
	}
}

func TestFilterSyntaxError(t *testing.T) {
	if _, err := NewFilter("hp:"); err == nil {
		t.Errorf("want syntax error")
	}
}

func TestFilterMatchRun(t *testing.T) {
	f, err := NewFilter(".source:old.json hp:on")
	if err != nil {
		t.Fatal(err)
	}
	r := New(IntID(1), nil, attrs(t, "hp", "on"))
	r.Source = "old.json"
	if !f.MatchRun(r) {
		t.Errorf("%s: want match for %s from %s", f, r, r.Source)
	}
	r.Source = "new.json"
	if f.MatchRun(r) {
		t.Errorf("%s: want no match for %s from %s", f, r, r.Source)
	}
}
