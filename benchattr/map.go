// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchattr implements attribute maps: the flat key/value
// descriptions attached to benchmark runs.
//
// A Map is immutable. Its projections (Subset, Except) and
// combinations (Union, Minus) return new Maps. Every Map has a content
// Key that depends only on its set of entries, not on the order they
// were added, so Keys can be used to group runs in a Go map.
package benchattr

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// An Entry is one key/value pair of a Map.
type Entry struct {
	Key   string
	Value Value
}

// A Map is an immutable mapping from attribute names to Values.
// The zero Map is empty and ready to use.
type Map struct {
	// entries is sorted by Key, with no duplicates.
	entries []Entry
}

// New returns a Map with the entries of m.
func New(m map[string]Value) Map {
	entries := make([]Entry, 0, len(m))
	for k, v := range m {
		entries = append(entries, Entry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return Map{entries}
}

// FromEntries returns a Map with the given entries. It is an error for
// two entries to have the same key.
func FromEntries(entries ...Entry) (Map, error) {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Key == sorted[i-1].Key {
			return Map{}, fmt.Errorf("duplicate attribute %q", sorted[i].Key)
		}
	}
	return Map{sorted}, nil
}

// Len returns the number of entries in m.
func (m Map) Len() int {
	return len(m.entries)
}

func (m Map) find(key string) (int, bool) {
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].Key >= key })
	return i, i < len(m.entries) && m.entries[i].Key == key
}

// Get returns the value of key and whether m has key.
func (m Map) Get(key string) (Value, bool) {
	if i, ok := m.find(key); ok {
		return m.entries[i].Value, true
	}
	return Value{}, false
}

// Has reports whether m has key.
func (m Map) Has(key string) bool {
	_, ok := m.find(key)
	return ok
}

// Keys returns the keys of m in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns the entries of m sorted by key.
func (m Map) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// With returns a copy of m with key set to v.
func (m Map) With(key string, v Value) Map {
	i, ok := m.find(key)
	out := make([]Entry, 0, len(m.entries)+1)
	out = append(out, m.entries[:i]...)
	out = append(out, Entry{key, v})
	if ok {
		i++
	}
	out = append(out, m.entries[i:]...)
	return Map{out}
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// Subset returns the entries of m whose keys are in keys. Keys that m
// does not have are ignored.
func (m Map) Subset(keys ...string) Map {
	set := keySet(keys)
	var out []Entry
	for _, e := range m.entries {
		if set[e.Key] {
			out = append(out, e)
		}
	}
	return Map{out}
}

// Except returns the entries of m whose keys are not in keys.
func (m Map) Except(keys ...string) Map {
	set := keySet(keys)
	var out []Entry
	for _, e := range m.entries {
		if !set[e.Key] {
			out = append(out, e)
		}
	}
	return Map{out}
}

// Union returns the entries of both m and o. If both have a key, the
// value from o is used.
func (m Map) Union(o Map) Map {
	out := make([]Entry, 0, len(m.entries)+len(o.entries))
	i, j := 0, 0
	for i < len(m.entries) && j < len(o.entries) {
		switch a, b := m.entries[i], o.entries[j]; {
		case a.Key < b.Key:
			out = append(out, a)
			i++
		case a.Key > b.Key:
			out = append(out, b)
			j++
		default:
			out = append(out, b)
			i++
			j++
		}
	}
	out = append(out, m.entries[i:]...)
	out = append(out, o.entries[j:]...)
	return Map{out}
}

// Minus returns the entries of m that o does not have with the same
// value.
func (m Map) Minus(o Map) Map {
	var out []Entry
	for _, e := range m.entries {
		if v, ok := o.Get(e.Key); ok && v.Equal(e.Value) {
			continue
		}
		out = append(out, e)
	}
	return Map{out}
}

// Equal reports whether m and o have the same keys with equal values.
func (m Map) Equal(o Map) bool {
	if len(m.entries) != len(o.entries) {
		return false
	}
	for i, e := range m.entries {
		if e.Key != o.entries[i].Key || !e.Value.Equal(o.entries[i].Value) {
			return false
		}
	}
	return true
}

// SameKeys reports whether m and o have the same key set. If not, it
// also returns a key that is in one but not the other.
func (m Map) SameKeys(o Map) (string, bool) {
	i, j := 0, 0
	for i < len(m.entries) && j < len(o.entries) {
		a, b := m.entries[i].Key, o.entries[j].Key
		switch {
		case a < b:
			return a, false
		case a > b:
			return b, false
		}
		i++
		j++
	}
	if i < len(m.entries) {
		return m.entries[i].Key, false
	}
	if j < len(o.entries) {
		return o.entries[j].Key, false
	}
	return "", true
}

// A Key identifies the contents of a Map. Two Maps have the same Key
// if and only if they are Equal.
type Key string

// Key returns the content key of m.
func (m Map) Key() Key {
	var buf strings.Builder
	for _, e := range m.entries {
		buf.WriteString(strconv.Quote(e.Key))
		buf.WriteByte('=')
		buf.WriteByte("snb"[e.Value.kind])
		if e.Value.kind == KindString {
			buf.WriteString(strconv.Quote(e.Value.str))
		} else {
			buf.WriteString(e.Value.String())
		}
		buf.WriteByte(';')
	}
	return Key(buf.String())
}

// String returns m as "{k1: v1, k2: v2}" in key order.
func (m Map) String() string {
	return "{" + m.Format(nil) + "}"
}

// Format returns m as "k1: v1, k2: v2" in key order, replacing any key
// found in relabels with its relabeled name.
func (m Map) Format(relabels map[string]string) string {
	var buf strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteString(", ")
		}
		name := e.Key
		if r, ok := relabels[name]; ok {
			name = r
		}
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(e.Value.String())
	}
	return buf.String()
}

// MarshalJSON encodes m as a JSON object.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf strings.Builder
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		b, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return []byte(buf.String()), nil
}
