package lockmgr

import (
	"errors"
	"io/fs"
	"os"
)

type fileLockMgrImpl struct{}

// NewLockManager creates a lock manager based on advisory file locks (flock).
// The locks are held by the open file, so they are released by the operating system
// when the holding process dies.
func NewLockManager() ILockManager {
	return &fileLockMgrImpl{}
}

func (lm *fileLockMgrImpl) WithFile(path string, flag int, perm os.FileMode, mode Mode, fn func(f *os.File) error) error {
	for {
		f, err := os.OpenFile(path, flag, perm)
		if err != nil {
			return err
		}

		if err := lock(f, mode); err != nil {
			_ = f.Close()
			return &os.PathError{Op: "lock", Path: path, Err: err}
		}

		// The path may have been unlinked (or replaced) while we were waiting for the lock.
		// Holding a lock on an orphaned inode protects nothing.
		linked, err := isLinked(f, path)
		if err != nil || !linked {
			_ = unlock(f)
			_ = f.Close()
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if flag&os.O_CREATE == 0 {
				return &os.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
			}
			continue
		}

		return runLocked(f, fn)
	}
}

// runLocked calls fn and releases the lock and the file afterward
func runLocked(f *os.File, fn func(f *os.File) error) (err error) {
	defer func() {
		unlockErr := unlock(f)
		closeErr := f.Close()
		if err == nil {
			err = errors.Join(unlockErr, closeErr)
		}
	}()
	return fn(f)
}
