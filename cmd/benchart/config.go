// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/benchart/benchchart"
	"golang.org/x/benchart/benchrun"
	"golang.org/x/benchart/benchrun/runstore"
	"golang.org/x/benchart/benchtree"
	"gopkg.in/yaml.v3"

	_ "github.com/go-sql-driver/mysql"
	_ "golang.org/x/benchart/benchrun/runstore/sqlite3"
)

// config is the contents of a -config file, merged with the command
// line.
type config struct {
	Partition []string          `yaml:"partition"`
	Ignore    string            `yaml:"ignore"`
	Filter    string            `yaml:"filter"`
	Occlude   []string          `yaml:"occlude"`
	Relabel   map[string]string `yaml:"relabel"`

	steps []stepDecl
}

func loadConfig(path string) (*config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := new(config)
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// merge adds the command line's settings to cfg. Command-line steps
// go between the file's partitions and its ignore, a command-line
// filter replaces the file's, and occluded attributes accumulate.
func (cfg *config) merge(steps []stepDecl, filter string, occlude []string) {
	for _, expr := range cfg.Partition {
		cfg.steps = append(cfg.steps, stepDecl{false, expr})
	}
	cfg.steps = append(cfg.steps, steps...)
	if cfg.Ignore != "" {
		cfg.steps = append(cfg.steps, stepDecl{true, cfg.Ignore})
	}
	if filter != "" {
		cfg.Filter = filter
	}
	cfg.Occlude = append(cfg.Occlude, occlude...)
}

// build partitions runs by cfg's steps.
func (cfg *config) build(runs []*benchrun.Run, truncate bool, warn func(string, ...interface{})) (*benchtree.Tree, error) {
	e, err := benchtree.NewEngine(runs)
	if err != nil {
		return nil, err
	}
	e.AllowTruncation = truncate
	e.Warn = warn
	for _, decl := range cfg.steps {
		kind, flag := benchtree.PartitionStep, "-partition"
		if decl.ignore {
			kind, flag = benchtree.SkipStep, "-ignore"
		}
		step, err := benchtree.ParseStep(kind, decl.expr)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", flag, err)
		}
		e.Add(step)
	}
	return e.Run()
}

// loadRuns reads runs from the run store named by db, or from the
// input files if db is empty.
func loadRuns(query, db string, paths []string) ([]*benchrun.Run, error) {
	var filter *benchrun.Filter
	if query != "" {
		var err error
		if filter, err = benchrun.NewFilter(query); err != nil {
			return nil, fmt.Errorf("parsing -filter: %w", err)
		}
	}

	if db == "" {
		files := benchrun.Files{Paths: paths, AllowStdin: true, AllowLabels: true, Filter: filter}
		return files.ReadAll()
	}

	i := strings.Index(db, ":")
	if i < 0 {
		return nil, fmt.Errorf("%w: -db must be driver:dsn", errUsage)
	}
	store, err := runstore.OpenSQL(db[:i], db[i+1:])
	if err != nil {
		return nil, err
	}
	defer store.Close()
	runs, err := store.Runs(context.Background(), filter)
	if err != nil {
		return nil, err
	}
	benchrun.Normalize(runs)
	return runs, nil
}

// chartOptions returns chart options for cfg and the chart flags.
func chartOptions(cfg *config, subjects []string, timebounds string, interval float64) (*benchchart.Options, error) {
	if !(interval > 0) {
		return nil, fmt.Errorf("%w: -interval must be positive", errUsage)
	}
	opts := &benchchart.Options{
		Relabels: cfg.Relabel,
		Occlude:  cfg.Occlude,
		Subjects: subjects,
		Interval: interval,
	}
	if timebounds == "" {
		return opts, nil
	}
	start, end, ok := strings.Cut(timebounds, ":")
	var err error
	if ok && start != "" {
		opts.Start, err = strconv.ParseFloat(start, 64)
	}
	if err == nil && ok && end != "" {
		opts.End, err = strconv.ParseFloat(end, 64)
	}
	if !ok || err != nil {
		return nil, fmt.Errorf("%w: -timebounds must be start:end", errUsage)
	}
	return opts, nil
}
