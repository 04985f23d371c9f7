package util

import "os"

func fsMode(perm uint64) os.FileMode {
	return os.FileMode(perm) & os.ModePerm
}
