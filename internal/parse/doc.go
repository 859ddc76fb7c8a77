// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parse implements the expression syntax shared by benchart's
// discard filters and partition step declarations.
//
// A filter is a boolean expression over attribute matches:
//
//	machine_os:Linux -hp:off (application_version:12 OR application_version:13)
//	benchmark_workload:/^tpc/
//
// A step declaration is a list of attribute names, each with an
// optional sibling order:
//
//	application_version@num, machine_location@(local remote)
package parse
