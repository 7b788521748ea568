// Package fspath resolves "/"-delimited paths into inode numbers by
// repeated ufs.Lookup calls, the way the teacher's BaseDriver.NormalizePath
// turns a path into a sequence of directory lookups.
package fspath

import (
	"strings"

	"github.com/gunrock-fs/ds3fs/ufs"
)

// Resolve walks path component-by-component from the root directory,
// calling fs.Lookup at each step, and returns the inode number the full
// path names. An empty or "/" path resolves to the root directory without
// touching the device.
func Resolve(fs *ufs.FileSystem, path string) (int, error) {
	current := ufs.RootInodeNumber

	for _, component := range strings.Split(path, "/") {
		if component == "" {
			continue
		}
		next, err := fs.Lookup(current, component)
		if err != nil {
			return 0, err
		}
		current = next
	}

	return current, nil
}
