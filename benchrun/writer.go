// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchrun

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// A Writer writes runs as a stream of JSON records that Files can read
// back.
//
// The record's "metadata" member holds the run's flattened attributes,
// so reading a written run yields the same attributes, except that
// non-finite numbers come back as strings. The members of the run's
// Data, which must be a JSON object, become the record's other members.
type Writer struct {
	w   io.Writer
	buf bytes.Buffer
}

// NewWriter returns a writer that writes runs to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes r as one line of JSON.
func (w *Writer) Write(r *Run) error {
	members, err := payloadMembers(r.Data)
	if err != nil {
		return fmt.Errorf("run %s: %w", r.ID, err)
	}
	if _, ok := members["metadata"]; ok {
		return fmt.Errorf("run %s: payload has a metadata member", r.ID)
	}
	if _, ok := members["id"]; ok {
		return fmt.Errorf("run %s: payload has an id member", r.ID)
	}

	w.buf.Reset()
	w.buf.WriteString(`{"id":`)
	id, _ := json.Marshal(string(r.ID))
	w.buf.Write(id)
	w.buf.WriteString(`,"metadata":`)
	md, err := json.Marshal(r.Attrs)
	if err != nil {
		return fmt.Errorf("run %s: %w", r.ID, err)
	}
	w.buf.Write(md)

	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name, _ := json.Marshal(k)
		w.buf.WriteByte(',')
		w.buf.Write(name)
		w.buf.WriteByte(':')
		if err := json.Compact(&w.buf, members[k]); err != nil {
			return fmt.Errorf("run %s: member %s: %w", r.ID, name, err)
		}
	}
	w.buf.WriteString("}\n")

	_, err = w.w.Write(w.buf.Bytes())
	return err
}

// payloadMembers returns the members of a run's Data. A nil Data or a
// JSON null has no members.
func payloadMembers(data interface{}) (map[string]json.RawMessage, error) {
	var raw []byte
	switch data := data.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		raw = data
	default:
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return nil, err
		}
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object")
	}
	return members, nil
}
