// Package fsutil resolves filesystem locations for the kit, primarily the
// directory the running module was loaded from.
package fsutil

import (
	"os"
	"path/filepath"
)

// RuntimeDir returns the directory containing the running executable. It
// falls back to the current working directory when the executable path
// cannot be determined.
func RuntimeDir() string {
	exe, err := os.Executable()
	if err == nil {
		if resolved, rerr := filepath.EvalSymlinks(exe); rerr == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, werr := os.Getwd(); werr == nil {
		return wd
	}
	return "."
}
