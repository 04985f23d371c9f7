//go:build !unix

package lockmgr

import (
	"errors"
	"os"
)

// lock always fails with errors.ErrUnsupported, advisory file locks are only available on unix platforms.
func lock(_ *os.File, _ Mode) error {
	return errors.ErrUnsupported
}

func unlock(_ *os.File) error {
	return nil
}
