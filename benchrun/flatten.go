// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchrun

import (
	"fmt"
	"strconv"

	"golang.org/x/benchart/benchattr"
)

// KeySep separates the path segments of a flattened attribute name.
const KeySep = "_"

// Flatten turns nested metadata, as decoded from JSON, into a flat
// attribute map. The name of a nested value is the path of keys leading
// to it, joined by KeySep, so {"application": {"version": 12}} becomes
// application_version: 12. Array elements use their index as the path
// segment. Empty objects and arrays contribute no attributes.
//
// It is an error for two paths to flatten to the same name, or for a
// leaf to be something other than a JSON scalar.
func Flatten(nested map[string]interface{}) (benchattr.Map, error) {
	var entries []benchattr.Entry
	var walk func(prefix string, v interface{}) error
	walk = func(prefix string, v interface{}) error {
		switch v := v.(type) {
		case map[string]interface{}:
			for k, sub := range v {
				if err := walk(join(prefix, k), sub); err != nil {
					return err
				}
			}
			return nil
		case []interface{}:
			for i, sub := range v {
				if err := walk(join(prefix, strconv.Itoa(i)), sub); err != nil {
					return err
				}
			}
			return nil
		}
		val, err := benchattr.ValueOf(v)
		if err != nil {
			return fmt.Errorf("attribute %s: %w", prefix, err)
		}
		entries = append(entries, benchattr.Entry{Key: prefix, Value: val})
		return nil
	}
	for k, v := range nested {
		if err := walk(k, v); err != nil {
			return benchattr.Map{}, err
		}
	}
	return benchattr.FromEntries(entries...)
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + KeySep + key
}
