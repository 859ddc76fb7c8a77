// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Benchsave stores benchmark runs in a run store.
//
// Usage:
//
//	benchsave [-v] [-filter query] -db driver:dsn file...
//
// Each input file should contain JSON run records, as read by
// benchart. Benchsave inserts every run that matches the filter into
// the run store, which benchart can then read with its -db flag.
// Supported drivers are sqlite3 and mysql. Run IDs must be unique
// within the store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"golang.org/x/benchart/benchrun"
	"golang.org/x/benchart/benchrun/runstore"
	_ "golang.org/x/benchart/benchrun/runstore/sqlite3"
)

func usage(flags *flag.FlagSet) {
	fmt.Fprintf(flags.Output(), `Usage of benchsave:
	benchsave [flags] file...
`)
	flags.PrintDefaults()
}

func main() {
	log.SetPrefix("benchsave: ")
	log.SetFlags(0)
	if err := benchsave(context.Background(), os.Stderr, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func benchsave(ctx context.Context, wErr io.Writer, args []string) error {
	flags := flag.NewFlagSet("benchsave", flag.ContinueOnError)
	flags.SetOutput(wErr)
	flags.Usage = func() { usage(flags) }
	db := flags.String("db", "", "store runs in the run store `driver:dsn`")
	query := flags.String("filter", "", "store only runs that match `query`")
	verbose := flags.Bool("v", false, "print verbose log messages")
	if err := flags.Parse(args); err != nil {
		return err
	}

	files := flags.Args()
	if len(files) == 0 {
		return fmt.Errorf("no files to store")
	}
	i := strings.Index(*db, ":")
	if i < 0 {
		return fmt.Errorf("-db must be driver:dsn")
	}

	var filter *benchrun.Filter
	if *query != "" {
		var err error
		if filter, err = benchrun.NewFilter(*query); err != nil {
			return err
		}
	}

	store, err := runstore.OpenSQL((*db)[:i], (*db)[i+1:])
	if err != nil {
		return err
	}
	defer store.Close()

	start := time.Now()
	in := benchrun.Files{Paths: files, AllowStdin: true, AllowLabels: true, Filter: filter}
	n := 0
	for in.Scan() {
		r := in.Run()
		if err := store.InsertRun(ctx, r); err != nil {
			return err
		}
		if *verbose {
			fmt.Fprintf(wErr, "stored run %s from %s\n", r.ID, r.Source)
		}
		n++
	}
	if err := in.Err(); err != nil {
		return err
	}

	if *verbose {
		s := ""
		if n != 1 {
			s = "s"
		}
		fmt.Fprintf(wErr, "%d run%s stored in %.2f seconds.\n", n, s, time.Since(start).Seconds())
	}
	return nil
}
