// Package fstore implements the store.IStore interface on top of the local
// filesystem. Every key is persisted as two files, values survive process
// restarts, and any number of processes may share one directory.
//
// On-disk Layout:
//
//	root/
//	  .fkv                      format marker {"format":1,"codec":"json"}
//	  ab/cd/abcd…ef             payload (encoded value or raw bytes)
//	  ab/cd/abcd…ef_meta        metadata mapping (ttl, serialize, custom options)
//
//	The file name is the hex md5 digest of the key, the two shard directory
//	levels are its first and second pair of characters. Keys themselves are never
//	written to disk.
//
// Locking Protocol:
//
//	The metadata file is the lock of the record. Readers (Get, Has, Meta) hold a
//	shared lock while they read the metadata and the payload, writers (Set,
//	Touch, Delete, SetMeta) hold an exclusive lock for the whole
//	read-modify-write sequence. The payload file is never locked on its own, so
//	no reader can see metadata and payload of two different writes. Locks are
//	per key: operations on different keys never wait for each other.
//	Locking is delegated to lockmgr, which releases on every exit path and copes
//	with records deleted while a caller was waiting.
//
// Expiration:
//
//	The ttl is an absolute unix timestamp in seconds. Expired records are
//	reported as missing, but their files stay on disk until the key is deleted
//	or written again. There is no background cleanup, so keys that expire and
//	are never touched again keep using disk space.
//
// Metadata Semantics:
//
//   - Set keeps the existing options of a live record and only replaces the
//     ttl. Setting an expired record starts from empty metadata.
//   - Touch replaces the whole mapping with {ttl}. Custom options and the
//     serialize option are lost.
//   - SetMeta merges one option into the mapping. A missing or expired record
//     is recreated with a null value first.
//
// Durability:
//
//	With Options.Sync both files are fsynced before the lock is released.
//	Files are rewritten in place, a process killed in the middle of a write can
//	leave a truncated record behind, which then fails to decode.
//
// Usage Example:
//
//	s, err := fstore.NewFileStore("/var/lib/app/cache", nil)
//	if err != nil {
//	    // handle error
//	}
//	_ = s.Set("session:123", store.Structured(map[string]any{"user": "alice"}), time.Now().Add(time.Hour).Unix())
//	v, ok, err := s.Get("session:123")
package fstore
