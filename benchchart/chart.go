// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchchart draws the runs of a partition tree as line charts.
//
// Each group whose children are runs becomes one chart. A chart has one
// panel per subject, a time series found in the runs' payloads, and one
// line per run. Run payloads are JSON objects; every member that is an
// array of numbers is a series sampled at a fixed interval, once per
// second unless Options say otherwise, and nulls are missing samples.
package benchchart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"

	"golang.org/x/benchart/benchrun"
	"golang.org/x/benchart/benchtree"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"
)

var nan = math.NaN()

// ErrNoSeries indicates a chart none of whose runs have a time series.
var ErrNoSeries = errors.New("no time series to plot")

// Options control how charts are labeled and drawn.
type Options struct {
	// Relabels gives short display names for attributes.
	Relabels map[string]string

	// Occlude lists attributes left out of run labels.
	Occlude []string

	// Subjects, if non-empty, selects and orders the series to
	// plot. Otherwise every series found in a chart's runs is
	// plotted, in sorted order.
	Subjects []string

	// Start and End bound the plotted time range, in seconds. An
	// End <= Start means the range is unbounded above.
	Start, End float64

	// Interval is the time between samples of a series, in
	// seconds. Zero means one second.
	Interval float64

	// Width and PanelHeight size the drawing. Zero means a default.
	Width, PanelHeight vg.Length
}

func (o *Options) width() vg.Length {
	if o.Width == 0 {
		return 15 * vg.Centimeter
	}
	return o.Width
}

func (o *Options) interval() float64 {
	if o.Interval <= 0 {
		return 1
	}
	return o.Interval
}

func (o *Options) panelHeight() vg.Length {
	if o.PanelHeight == 0 {
		return 6 * vg.Centimeter
	}
	return o.PanelHeight
}

// A Chart is the set of runs of one group of a partition tree.
type Chart struct {
	// Group is the tree node the chart was made from.
	Group benchtree.NodeID

	// Title describes what the chart's runs have in common beyond
	// the attributes shared by every run.
	Title string

	// Subjects are the series plotted, one panel each.
	Subjects []string

	// Lines are the chart's runs, in tree order.
	Lines []Line

	opts   *Options
	series []map[string]series
}

// A Line is one run of a chart.
type Line struct {
	Run *benchrun.Run

	// Label is "Run <id>", followed by the run's attributes that
	// its group does not explain.
	Label string
}

// Charts returns a chart for every group of t whose children are runs,
// in walk order.
func Charts(t *benchtree.Tree, opts *Options) ([]*Chart, error) {
	if opts == nil {
		opts = new(Options)
	}
	var charts []*Chart
	err := t.Walk(func(id benchtree.NodeID, depth int) error {
		kids := t.Children(id)
		if len(kids) == 0 || !t.Node(kids[0]).IsLeaf() {
			return nil
		}
		c, err := newChart(t, id, opts)
		if err != nil {
			return err
		}
		charts = append(charts, c)
		return benchtree.SkipChildren
	})
	return charts, err
}

func newChart(t *benchtree.Tree, id benchtree.NodeID, opts *Options) (*Chart, error) {
	c := &Chart{Group: id, opts: opts}
	c.Title = t.Title(id).Format(opts.Relabels)
	if c.Title == "" {
		c.Title = "all runs"
	}

	found := make(map[string]bool)
	for _, leaf := range t.Children(id) {
		r := t.Run(leaf)
		label := "Run " + string(r.ID)
		if l := t.Label(leaf, opts.Occlude...); l.Len() > 0 {
			label += ": " + l.Format(opts.Relabels)
		}
		c.Lines = append(c.Lines, Line{Run: r, Label: label})

		ss, err := runSeries(r)
		if err != nil {
			return nil, err
		}
		for name := range ss {
			found[name] = true
		}
		c.series = append(c.series, ss)
	}

	if len(opts.Subjects) > 0 {
		for _, name := range opts.Subjects {
			if found[name] {
				c.Subjects = append(c.Subjects, name)
			}
		}
	} else {
		for name := range found {
			c.Subjects = append(c.Subjects, name)
		}
		sort.Strings(c.Subjects)
	}
	return c, nil
}

// Plots returns one plot per subject of c. The first carries the
// chart's title.
func (c *Chart) Plots() ([]*plot.Plot, error) {
	if len(c.Subjects) == 0 {
		return nil, ErrNoSeries
	}
	var plots []*plot.Plot
	for _, subject := range c.Subjects {
		p := plot.New()
		p.Y.Label.Text = subject
		p.X.Tick.Marker = clockTicks{}
		p.Legend.Top = true
		p.Add(plotter.NewGrid())
		for i, line := range c.Lines {
			s, ok := c.series[i][subject]
			if !ok {
				continue
			}
			pts := s.points(c.opts.Start, c.opts.End, c.opts.interval())
			if len(pts) == 0 {
				continue
			}
			l, err := plotter.NewLine(pts)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", line.Run, subject, err)
			}
			l.LineStyle.Color = plotutil.Color(i)
			l.LineStyle.Width = vg.Points(1)
			p.Add(l)
			p.Legend.Add(line.Label, l)
		}
		plots = append(plots, p)
	}
	plots[0].Title.Text = c.Title
	return plots, nil
}

// Formats are the image formats Render supports.
var Formats = []string{"png", "svg"}

// Render draws c in the given format, "png" or "svg", and writes it
// to w. The panels are stacked vertically and share a time axis.
func (c *Chart) Render(w io.Writer, format string) error {
	plots, err := c.Plots()
	if err != nil {
		return err
	}
	width := c.opts.width()
	height := c.opts.panelHeight() * vg.Length(len(plots))

	var canvas vg.CanvasWriterTo
	switch format {
	case "png":
		canvas = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseBackgroundColor(color.White))}
	case "svg":
		canvas = vgsvg.New(width, height)
	default:
		return fmt.Errorf("unknown chart format %q", format)
	}

	// Share the time axis across panels.
	var xmin, xmax float64 = math.Inf(1), math.Inf(-1)
	for _, p := range plots {
		xmin = math.Min(xmin, p.X.Min)
		xmax = math.Max(xmax, p.X.Max)
	}
	grid := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		if xmin <= xmax {
			p.X.Min, p.X.Max = xmin, xmax
		}
		grid[i] = []*plot.Plot{p}
	}
	tiles := draw.Tiles{Rows: len(plots), Cols: 1, PadY: vg.Millimeter}
	canvases := plot.Align(grid, tiles, draw.New(canvas))
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}

	_, err = canvas.WriteTo(w)
	return err
}

// clockTicks labels a time axis in seconds as MM:SS.
type clockTicks struct{}

func (clockTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label == "" {
			continue
		}
		s := int(math.Round(ticks[i].Value))
		ticks[i].Label = fmt.Sprintf("%02d:%02d", s/60, s%60)
	}
	return ticks
}
