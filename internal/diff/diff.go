// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diff compares text for tests.
package diff

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Diff returns a human-readable description of the differences between want and got.
// If the "diff" command is available, it returns the output of unified diff on want and got.
// Otherwise it returns the first differing line.
// If the result is non-empty, the strings differ or the diff command failed.
func Diff(want, got string) string {
	if want == got {
		return ""
	}
	if _, err := exec.LookPath("diff"); err != nil {
		return firstDiff(want, got)
	}

	dir, err := os.MkdirTemp("", "benchart_diff")
	if err != nil {
		return err.Error()
	}
	defer os.RemoveAll(dir)
	if err := os.WriteFile(dir+"/want", []byte(want), 0666); err != nil {
		return err.Error()
	}
	if err := os.WriteFile(dir+"/got", []byte(got), 0666); err != nil {
		return err.Error()
	}

	cmd := exec.Command("diff", "-u", "want", "got")
	cmd.Dir = dir
	data, err := cmd.CombinedOutput()
	if len(data) > 0 {
		// diff exits with a non-zero status when the files don't match.
		// Ignore that failure as long as we get output.
		return string(data)
	}
	if err != nil {
		return err.Error()
	}
	// diff found no difference, so the strings differ only in ways
	// it ignores, such as a missing final newline.
	return firstDiff(want, got)
}

func firstDiff(want, got string) string {
	wl, gl := strings.SplitAfter(want, "\n"), strings.SplitAfter(got, "\n")
	for i := 0; i < len(wl) || i < len(gl); i++ {
		var w, g string
		if i < len(wl) {
			w = wl[i]
		}
		if i < len(gl) {
			g = gl[i]
		}
		if w != g {
			return fmt.Sprintf("line %d:\nwant: %q\ngot:  %q", i+1, w, g)
		}
	}
	return fmt.Sprintf("want: %q\ngot:  %q", want, got)
}
