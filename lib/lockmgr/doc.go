// Package lockmgr implements cross-process locking on top of advisory file
// locks. It is used by the file store to serialize all access to a key on the
// key's metadata file.
//
// Core Functionality:
//   - Shared and exclusive locks on whole files (flock)
//   - Scoped acquisition: the lock and the file handle are released exactly
//     once when the callback returns, including all error paths
//   - Detection of files that were unlinked while a caller waited for the lock
//
// Implementation Approach:
//
//	Locks are taken with flock(2) on an open file description. They are
//	therefore independent of goroutines and threads: two separate opens of the
//	same file in one process conflict just like two processes do. The kernel
//	drops the lock when the holding process exits, so a crashed holder never
//	leaves a stale lock behind.
//
//	- Unlink Detection: A writer may delete a file while other callers are
//	  blocked on it. After the lock is granted, the opened file is compared to
//	  the file currently linked at the path (os.SameFile). If they differ, the
//	  lock is dropped and the caller either reopens (O_CREATE) or gets an
//	  fs.ErrNotExist error.
//
// Caveats:
//
//	- There is no timeout. A holder that never releases blocks all others.
//	- Advisory locks are not reliable on network filesystems.
//	- Only unix platforms are supported, elsewhere every lock attempt fails
//	  with errors.ErrUnsupported.
//
// Usage Example:
//
//	lm := lockmgr.NewLockManager()
//	err := lm.WithFile(path, os.O_RDWR|os.O_CREATE, 0644, lockmgr.Exclusive, func(f *os.File) error {
//	    // read-modify-write f
//	    return nil
//	})
package lockmgr
