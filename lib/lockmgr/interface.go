package lockmgr

import "os"

// Mode is the kind of advisory lock taken on a file.
type Mode int

const (
	Shared    Mode = iota // any number of shared holders, no exclusive holder
	Exclusive             // a single holder
)

func (m Mode) String() string {
	switch m {
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return "unknown"
	}
}

// ILockManager defines the interface for a lockmgr provider.
type ILockManager interface {
	// WithFile opens path with flag and perm (see os.OpenFile), acquires a lock of the given mode
	// on the opened file and calls fn with it. The lock is released and the file is closed
	// exactly once when WithFile returns, on every path.
	//
	// If the file is unlinked or replaced while waiting for the lock, the lock is dropped and
	// the file reopened (when flag contains os.O_CREATE), or an fs.ErrNotExist error is returned.
	// WithFile blocks until the lock is granted, there is no timeout.
	WithFile(path string, flag int, perm os.FileMode, mode Mode, fn func(f *os.File) error) (err error)
}
