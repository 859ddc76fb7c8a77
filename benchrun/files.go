// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchrun

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// A Files reads run records from a sequence of JSON files.
//
// Each file holds a stream of JSON objects, one per run record. A
// record's "metadata" member is a nested object that is flattened into
// the Run's attributes (see Flatten). Its optional "id" member, a
// string or an integer, becomes the Run's ID; records without one are
// numbered by their 1-based position across all files. All other
// members are kept verbatim as the Run's Data, a json.RawMessage.
//
// Each Run's Source is the path it was read from. Duplicate paths are
// disambiguated by appending "#N". If AllowLabels is true, entries in
// Paths may be of the form label=path, and the label is used as the
// Source instead.
type Files struct {
	// Paths is the list of file names to read in.
	Paths []string

	// AllowStdin indicates that the path "-" should be treated as
	// stdin and that an empty Paths means stdin.
	AllowStdin bool

	// AllowLabels indicates that Paths may contain label=path
	// entries.
	AllowLabels bool

	// Filter, if non-nil, discards records that do not match it.
	// Discarded records still count toward automatic numbering.
	Filter *Filter

	// inputs is the sequence of remaining inputs, or nil if this
	// Files has not started yet.
	inputs []input

	cur     input
	file    *os.File
	dec     *json.Decoder
	records int
	run     *Run
	err     error
}

type input struct {
	path      string
	label     string
	isStdin   bool
	isLabeled bool
}

func (f *Files) init() {
	f.inputs = []input{}

	pathCount := make(map[string]int)
	if f.AllowStdin && len(f.Paths) == 0 {
		f.inputs = append(f.inputs, input{"-", "-", true, false})
	}
	for _, path := range f.Paths {
		label := path
		isLabeled := false
		if i := strings.Index(path, "="); f.AllowLabels && i >= 0 {
			label, path = path[:i], path[i+1:]
			isLabeled = true
		} else {
			pathCount[path]++
		}
		isStdin := f.AllowStdin && path == "-"
		f.inputs = append(f.inputs, input{path, label, isStdin, isLabeled})
	}

	// Reading the same unlabeled path twice would produce runs
	// that differ only in ID, so give each copy its own source.
	pathI := make(map[string]int)
	for i := range f.inputs {
		inp := &f.inputs[i]
		if inp.isLabeled || pathCount[inp.path] <= 1 {
			continue
		}
		inp.label = fmt.Sprintf("%s#%d", inp.path, pathI[inp.path])
		pathI[inp.path]++
	}
}

// Scan advances to the next run that passes Filter and reports whether
// there is one. When Scan returns false, the caller should check Err.
func (f *Files) Scan() bool {
	if f.err != nil {
		return false
	}
	if f.inputs == nil {
		f.init()
	}

	for {
		if f.dec == nil {
			if len(f.inputs) == 0 {
				return false
			}
			f.cur, f.inputs = f.inputs[0], f.inputs[1:]
			if f.cur.isStdin {
				f.dec = json.NewDecoder(os.Stdin)
			} else {
				file, err := os.Open(f.cur.path)
				if err != nil {
					f.err = err
					return false
				}
				f.file = file
				f.dec = json.NewDecoder(file)
			}
			f.dec.UseNumber()
		}

		var rec map[string]json.RawMessage
		err := f.dec.Decode(&rec)
		if err == io.EOF {
			f.closeFile()
			continue
		}
		f.records++
		if err != nil {
			f.fail(err)
			return false
		}
		run, err := f.decodeRecord(rec)
		if err != nil {
			f.fail(err)
			return false
		}
		if !f.Filter.Match(run.Source, run.Attrs) {
			continue
		}
		f.run = run
		return true
	}
}

func (f *Files) fail(err error) {
	f.err = fmt.Errorf("%s: record %d: %w", f.cur.path, f.records, err)
	f.closeFile()
}

func (f *Files) closeFile() {
	if f.file != nil {
		f.file.Close()
		f.file = nil
	}
	f.dec = nil
}

func (f *Files) decodeRecord(rec map[string]json.RawMessage) (*Run, error) {
	if rec == nil {
		return nil, errors.New("record is not a JSON object")
	}
	rawMeta, ok := rec["metadata"]
	if !ok {
		return nil, errors.New("record has no metadata")
	}
	dec := json.NewDecoder(bytes.NewReader(rawMeta))
	dec.UseNumber()
	var nested map[string]interface{}
	if err := dec.Decode(&nested); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	attrs, err := Flatten(nested)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}

	id := IntID(f.records)
	if rawID, ok := rec["id"]; ok {
		if id, err = decodeID(rawID); err != nil {
			return nil, err
		}
	}

	payload := make(map[string]json.RawMessage, len(rec))
	for k, v := range rec {
		if k != "metadata" && k != "id" {
			payload[k] = v
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Run{ID: id, Data: json.RawMessage(data), Attrs: attrs, Source: f.cur.label}, nil
}

func decodeID(raw json.RawMessage) (ID, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ID(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := n.Int64(); err == nil {
			return ID(n.String()), nil
		}
	}
	return "", fmt.Errorf("id %s is not a string or integer", raw)
}

// Run returns the run that was just read by Scan.
func (f *Files) Run() *Run {
	return f.run
}

// Err returns the error that stopped Scan, if any. If Scan stopped
// because it read every file to completion, Err returns nil.
func (f *Files) Err() error {
	return f.err
}

// ReadAll reads every remaining run and normalizes the batch.
func (f *Files) ReadAll() ([]*Run, error) {
	var runs []*Run
	for f.Scan() {
		runs = append(runs, f.Run())
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	Normalize(runs)
	return runs, nil
}
