// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// benchfilter reads benchmark runs from input files, filters them, and
// writes the matching runs to stdout as JSON records. If no inputs are
// provided, it reads from stdin.
//
// The filter language is described at
// https://pkg.go.dev/golang.org/x/benchart/cmd/benchart#hdr-Filtering
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/benchart/benchrun"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: benchfilter query [inputs...]

benchfilter reads benchmark runs from input files, filters them, and
writes the matching runs to stdout as JSON records. If no inputs are
provided, it reads from stdin.

The filter language is described at
https://pkg.go.dev/golang.org/x/benchart/cmd/benchart#hdr-Filtering
`)
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix("")
	log.SetFlags(0)

	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	if err := filter(os.Stdout, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatal(err)
	}
}

func filter(w io.Writer, query string, paths []string) error {
	f, err := benchrun.NewFilter(query)
	if err != nil {
		return err
	}

	writer := benchrun.NewWriter(w)
	files := benchrun.Files{Paths: paths, AllowStdin: true, AllowLabels: true, Filter: f}
	for files.Scan() {
		if err := writer.Write(files.Run()); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return files.Err()
}
