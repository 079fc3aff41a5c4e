package util

import "path/filepath"

// StemAndExt is a variant of filepath.Ext that detects extended extensions
// while also returning the stem: `filepath.Ext("file.tar.gz")` returns ".gz"
// where StemAndExt returns ".tar.gz" and "file".
//
// Only extensions of 5 characters or less participate, so a name without a
// `.` in its last 6 characters yields an empty ext; longer extensions such as
// ".turbot" are not recognised, which is fine for the archive suffixes this
// package cares about.
func StemAndExt(path string) (stem, ext string) {
	n := len(path) - 1
	for i, j := n, max(0, n-6); i >= j; i-- {
		switch path[i] {
		case '\\', '/':
			stem = path[i+1:]
			return
		case '.':
			ext = path[i:] + ext
			path = path[:i]
			n = len(path)
			i, j = n, max(0, n-6)
			continue
		}
	}

	stem = filepath.Base(path)
	return
}
