// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Benchart partitions benchmark runs into a tree of groups and prints
// the tree.
//
// Usage:
//
//	benchart [flags] inputs...
//
// Each input is a file of JSON run records, or "-" for standard input.
// A record has a "metadata" object describing the run's configuration,
// an optional "id", and any other members, which are the run's data.
// For example:
//
//	{"id": 1, "metadata": {"machine": {"os": "Linux"}, "application": {"version": 12}}, "tps": [812, 830]}
//
// Nested metadata is flattened into attributes by joining keys with
// "_", so this run has the attributes machine_os and
// application_version. Inputs may be given as label=path to use label
// as the runs' source.
//
// # Partitioning
//
// Benchart groups runs in levels. The root groups every run and records
// the attributes whose value is the same in every run. If some
// attributes vary but are not mentioned by any -partition or -ignore
// flag, the next level splits runs by those attributes. Then each
// -partition flag adds a level that splits every group by the values of
// the given attributes. For example,
//
//	benchart -partition application_version -partition flush runs.json
//
// groups runs by version and then, within each version, by flush.
//
// Each -partition flag takes a comma-separated list of attributes.
// An attribute may be followed by a sort order for its groups:
// "@first" (the default, order of first appearance), "@alpha",
// "@num", or a fixed list of values, as in "machine_location@(local
// remote)".
//
// The -ignore flag names attributes that should not be used for
// grouping. Ignoring an attribute stops partitioning: the groups at
// that point list their runs directly, each labeled with the
// attributes that distinguish it. Ignore must come after every
// -partition, unless -truncate is given, in which case any later
// -partition flags have no effect.
//
// # Filtering
//
// The -filter flag discards runs that do not match a query before
// they are grouped. A query is a sequence of attribute:value matches,
// combined with AND (the default), OR, and "-" for negation, and
// grouped with parentheses. A value may be a /regexp/, or a
// parenthesized list of alternatives. The special attribute .source
// matches the run's input file, and "*" matches everything. For
// example,
//
//	benchart -filter 'machine_os:Linux -hp:off' runs.json
//
// # Configuration
//
// The -config flag reads defaults from a YAML file:
//
//	partition:
//	  - application_version
//	ignore: hp
//	filter: machine_os:Linux
//	occlude: [machine_id]
//	relabel:
//	  application_config_backend_flush_after: flush
//
// The file's partitions come before the steps given on the command
// line and its ignore comes after them, so the command line can refine
// a configuration. Consecutive ignores act as one. -filter overrides
// the file's filter, and -occlude adds to its list.
// Relabels give short display names to attributes.
//
// # Output
//
// The -format flag selects the output: "text" (the default) prints the
// tree as an indented outline; "table" prints one row per run with a
// column per grouping attribute; "csv" prints the same as CSV with the
// shared attributes included; "json" prints the tree as nested JSON.
//
// The -chart flag writes one line chart per group of runs to the given
// directory. Every run data member that is an array of numbers is a
// time series and gets its own panel. Samples are taken to be one
// second apart; the -interval flag sets a different spacing.
//
// The -db flag reads runs from a run store, given as driver:dsn, such
// as sqlite3:runs.db, instead of from input files. Use benchsave to
// store runs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

func usage(flags *flag.FlagSet) {
	fmt.Fprintf(flags.Output(), `Usage: benchart [flags] inputs...

benchart partitions benchmark runs into a tree of groups by their
attributes. See https://pkg.go.dev/golang.org/x/benchart/cmd/benchart
for details.

Flags:
`)
	flags.PrintDefaults()
}

// errUsage indicates a command line the flag package accepted but
// benchart cannot use.
var errUsage = errors.New("usage error")

func main() {
	log.SetPrefix("benchart: ")
	log.SetFlags(0)

	if err := benchart(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		if errors.Is(err, errUsage) {
			log.Print(err)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

// stepList collects -partition and -ignore flags in command-line order.
type stepList struct {
	kind  string
	steps *[]stepDecl
}

type stepDecl struct {
	ignore bool
	expr   string
}

func (l stepList) String() string {
	if l.steps == nil {
		return ""
	}
	var exprs []string
	for _, s := range *l.steps {
		if s.ignore == (l.kind == "ignore") {
			exprs = append(exprs, s.expr)
		}
	}
	return strings.Join(exprs, " ")
}

func (l stepList) Set(expr string) error {
	*l.steps = append(*l.steps, stepDecl{l.kind == "ignore", expr})
	return nil
}

// listFlag is a comma-separated list that may be given more than once.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(s string) error {
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			*l = append(*l, f)
		}
	}
	return nil
}

func benchart(w, wErr io.Writer, args []string) error {
	flags := flag.NewFlagSet("benchart", flag.ContinueOnError)
	flags.SetOutput(wErr)
	flags.Usage = func() { usage(flags) }

	var steps []stepDecl
	var occlude, subjects listFlag
	flags.Var(stepList{"partition", &steps}, "partition", "add a grouping level on `attrs`; may be repeated")
	flags.Var(stepList{"ignore", &steps}, "ignore", "do not group by `attrs`; ends partitioning")
	flagFilter := flags.String("filter", "", "discard runs that do not match `query`")
	flagConfig := flags.String("config", "", "read steps and display options from YAML `file`")
	flagDB := flags.String("db", "", "read runs from the run store `driver:dsn` instead of inputs")
	flags.Var(&occlude, "occlude", "leave `attrs` out of run labels")
	flagFormat := flags.String("format", "text", "print the tree as `format`: text, table, csv, or json")
	flagTruncate := flags.Bool("truncate", false, "allow -partition after -ignore; such levels have no effect")
	flagChart := flags.String("chart", "", "write a chart of each group of runs to `dir`")
	flagChartFormat := flags.String("chart-format", "svg", "write charts as `format`: svg or png")
	flags.Var(&subjects, "subject", "chart only the time series `names`")
	flagTime := flags.String("timebounds", "", "chart only the time range `start:end`, in seconds")
	flagInterval := flags.Float64("interval", 1, "chart series as sampled every `seconds`")
	if err := flags.Parse(args); err != nil {
		return err
	}

	render, ok := renderers[*flagFormat]
	if !ok {
		return fmt.Errorf("%w: unknown -format %q", errUsage, *flagFormat)
	}
	if *flagDB == "" && flags.NArg() == 0 {
		return fmt.Errorf("%w: no inputs", errUsage)
	}
	if *flagDB != "" && flags.NArg() > 0 {
		return fmt.Errorf("%w: -db and inputs are mutually exclusive", errUsage)
	}

	cfg := new(config)
	if *flagConfig != "" {
		var err error
		if cfg, err = loadConfig(*flagConfig); err != nil {
			return err
		}
	}
	cfg.merge(steps, *flagFilter, occlude)

	runs, err := loadRuns(cfg.Filter, *flagDB, flags.Args())
	if err != nil {
		return err
	}

	warn := func(format string, args ...interface{}) {
		fmt.Fprintf(wErr, "warning: "+format+"\n", args...)
	}
	tree, err := cfg.build(runs, *flagTruncate, warn)
	if err != nil {
		return err
	}

	if err := render(w, tree, cfg); err != nil {
		return err
	}

	if *flagChart != "" {
		co, err := chartOptions(cfg, subjects, *flagTime, *flagInterval)
		if err != nil {
			return err
		}
		if err := writeCharts(*flagChart, *flagChartFormat, tree, co, warn); err != nil {
			return err
		}
	}
	return nil
}
