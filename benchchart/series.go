// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchchart

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/vec"
	"golang.org/x/benchart/benchrun"
	"gonum.org/v1/plot/plotter"
)

// A series is a run's samples of one subject, evenly spaced in time.
// Missing samples are NaN.
type series []float64

// runSeries decodes the time series in a run's payload. Every payload
// member that is an array of numbers and nulls is a series, named by
// the member. Other members are ignored.
func runSeries(r *benchrun.Run) (map[string]series, error) {
	var raw []byte
	switch data := r.Data.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		raw = data
	default:
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		// Not an object, so there is nothing to plot.
		return nil, nil
	}
	out := make(map[string]series)
	for name, m := range members {
		var vals []*float64
		if err := json.Unmarshal(m, &vals); err != nil {
			continue
		}
		s := make(series, len(vals))
		for i, v := range vals {
			if v == nil {
				s[i] = nan
			} else {
				s[i] = *v
			}
		}
		out[name] = s
	}
	return out, nil
}

// Subjects returns the names of the time series in r's payload, in
// sorted order.
func Subjects(r *benchrun.Run) ([]string, error) {
	ss, err := runSeries(r)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ss))
	for name := range ss {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// points returns the samples of s that fall in [start, end] seconds as
// plot points, taking samples to be interval seconds apart. An end <=
// start means no upper bound. Missing samples are dropped, so a line
// through the points interpolates across them.
func (s series) points(start, end, interval float64) plotter.XYs {
	if len(s) == 0 {
		return nil
	}
	xs := []float64{0}
	if len(s) > 1 {
		xs = vec.Linspace(0, float64(len(s)-1)*interval, len(s))
	}
	pts := make(plotter.XYs, 0, len(s))
	for i, x := range xs {
		if x < start || (end > start && x > end) || math.IsNaN(s[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: s[i]})
	}
	return pts
}
