package lockmgr

import (
	"os"
)

// isLinked reports whether the open file f is still the file linked at path
func isLinked(f *os.File, path string) (bool, error) {
	openInfo, err := f.Stat()
	if err != nil {
		return false, err
	}
	pathInfo, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return os.SameFile(openInfo, pathInfo), nil
}
