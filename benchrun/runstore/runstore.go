// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runstore stores benchmark runs in a SQL database.
//
// A store has two tables: Runs, holding each run's ID, source, and
// JSON payload, and RunAttrs, holding one row per attribute. Attribute
// rows record the value's kind so that numbers and booleans survive a
// round trip.
package runstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/benchart/benchattr"
	"golang.org/x/benchart/benchrun"
)

// DB is a run store backed by a SQL database. It's safe for concurrent
// use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertRun *sql.Stmt
	countRuns *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
//
// To use sqlite3, import golang.org/x/benchart/benchrun/runstore/sqlite3.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. The sqlite3 package uses it to configure
// the connection pool. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Runs (
	Seq {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	RunID VARCHAR(255) NOT NULL UNIQUE,
	Source VARCHAR(1024),
	Data BLOB
);
CREATE TABLE IF NOT EXISTS RunAttrs (
	RunID VARCHAR(255) NOT NULL,
	Name VARCHAR(255) NOT NULL,
	Kind TINYINT NOT NULL,
	Value VARCHAR(8192),
	PRIMARY KEY (RunID, Name),
{{if not .sqlite3}}
	Index (Name(100), Value(100)),
{{end}}
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS RunAttrsNameValue ON RunAttrs(Name, Value);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertRun, err = db.sql.Prepare("INSERT INTO Runs(RunID, Source, Data) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	db.countRuns, err = db.sql.Prepare("SELECT COUNT(*) FROM Runs")
	if err != nil {
		return err
	}
	return nil
}

// InsertRun stores r. Its Data is stored as JSON. Inserting a run
// whose ID is already in the store fails.
func (db *DB) InsertRun(ctx context.Context, r *benchrun.Run) (err error) {
	data, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("run %s: encoding data: %w", r.ID, err)
	}

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if _, err = tx.StmtContext(ctx, db.insertRun).ExecContext(ctx, string(r.ID), r.Source, data); err != nil {
		return fmt.Errorf("run %s: %w", r.ID, err)
	}
	var args []interface{}
	for _, e := range r.Attrs.Entries() {
		args = append(args, string(r.ID), e.Key, int(e.Value.Kind()), e.Value.String())
	}
	if len(args) > 0 {
		query := "INSERT INTO RunAttrs(RunID, Name, Kind, Value) VALUES " + strings.Repeat("(?, ?, ?, ?), ", len(args)/4)
		query = strings.TrimSuffix(query, ", ")
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("run %s: %w", r.ID, err)
		}
	}
	return nil
}

// CountRuns returns the number of runs in the store.
func (db *DB) CountRuns(ctx context.Context) (int, error) {
	var n int
	err := db.countRuns.QueryRowContext(ctx).Scan(&n)
	return n, err
}

// Runs returns the stored runs that match f, in the order they were
// inserted. A nil Filter matches every run. Each run's Data is a
// json.RawMessage.
//
// Runs are returned as stored. Callers that read runs inserted from
// different sources should pass them through benchrun.Normalize.
func (db *DB) Runs(ctx context.Context, f *benchrun.Filter) ([]*benchrun.Run, error) {
	all, err := db.runs(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := db.attrs(ctx)
	if err != nil {
		return nil, err
	}

	var runs []*benchrun.Run
	for _, r := range all {
		attrs, err := benchattr.FromEntries(entries[r.ID]...)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		r.Attrs = attrs
		if f.Match(r.Source, r.Attrs) {
			runs = append(runs, r)
		}
	}
	return runs, nil
}

// runs reads every row of Runs, without attributes.
func (db *DB) runs(ctx context.Context) ([]*benchrun.Run, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT RunID, Source, Data FROM Runs ORDER BY Seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []*benchrun.Run
	for rows.Next() {
		var id, source sql.NullString
		var data []byte
		if err := rows.Scan(&id, &source, &data); err != nil {
			return nil, err
		}
		r := &benchrun.Run{ID: benchrun.ID(id.String), Source: source.String}
		if data != nil {
			r.Data = json.RawMessage(data)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// attrs reads every attribute row, grouped by run.
func (db *DB) attrs(ctx context.Context) (map[benchrun.ID][]benchattr.Entry, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT RunID, Name, Kind, Value FROM RunAttrs")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make(map[benchrun.ID][]benchattr.Entry)
	for rows.Next() {
		var id, name, value string
		var kind int
		if err := rows.Scan(&id, &name, &kind, &value); err != nil {
			return nil, err
		}
		v, err := benchattr.Parse(benchattr.Kind(kind), value)
		if err != nil {
			return nil, fmt.Errorf("run %s: attribute %q: %w", id, name, err)
		}
		entries[benchrun.ID(id)] = append(entries[benchrun.ID(id)], benchattr.Entry{Key: name, Value: v})
	}
	return entries, rows.Err()
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	if err := db.insertRun.Close(); err != nil {
		return err
	}
	if err := db.countRuns.Close(); err != nil {
		return err
	}
	return db.sql.Close()
}
