package gitsparse

import (
	"path/filepath"
	"strings"
)

// joinSubdir joins a slash-separated repository path onto a local directory.
func joinSubdir(dir, subdir string) string {
	return filepath.Join(dir, filepath.FromSlash(strings.Trim(subdir, "/")))
}

// SubdirPath returns where SparseClone leaves subdir's contents under dir.
func SubdirPath(dir, subdir string) string {
	if strings.Trim(subdir, "/") == "" {
		return dir
	}
	return joinSubdir(dir, subdir)
}
