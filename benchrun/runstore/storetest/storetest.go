// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storetest opens run stores for tests.
package storetest

import (
	"context"
	"flag"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"golang.org/x/benchart/benchrun/runstore"
	_ "golang.org/x/benchart/benchrun/runstore/sqlite3"
)

var mysqlDSN = flag.String("mysql", "", "run store tests against the MySQL database at `dsn` instead of in-memory SQLite")

// NewDB makes a connection to a testing database, either in-memory
// sqlite3 or MySQL depending on the -mysql flag. cleanup must be
// called when done with the testing database, instead of calling
// db.Close().
func NewDB(t *testing.T) (*runstore.DB, func()) {
	t.Helper()
	driverName, dataSourceName := "sqlite3", ":memory:"
	if *mysqlDSN != "" {
		driverName, dataSourceName = "mysql", *mysqlDSN
	}
	d, err := runstore.OpenSQL(driverName, dataSourceName)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	cleanup := func() {
		d.Close()
	}
	// Make sure the database really is empty.
	n, err := d.CountRuns(context.Background())
	if err != nil {
		cleanup()
		t.Fatal(err)
	}
	if n != 0 {
		cleanup()
		t.Fatalf("found %d row(s) in Runs, want 0", n)
	}
	return d, cleanup
}
