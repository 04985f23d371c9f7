package fstore

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
)

// metaSuffix is appended to the digest to name the metadata file of a record
const metaSuffix = "_meta"

// address holds the paths of the two files of a record
type address struct {
	dir     string // shard directory: root/d[0:2]/d[2:4]
	payload string // root/d[0:2]/d[2:4]/d
	meta    string // root/d[0:2]/d[2:4]/d_meta
}

// digest returns the hex md5 digest of key.
// Keys are only ever stored as their digest, two keys with the same digest share a record.
func digest(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// resolve maps a key to the paths of its record
func (s *fileStoreImpl) resolve(key string) address {
	d := digest(key)
	dir := filepath.Join(s.root, d[0:2], d[2:4])
	payload := filepath.Join(dir, d)
	return address{
		dir:     dir,
		payload: payload,
		meta:    payload + metaSuffix,
	}
}

// ensureShard creates the shard directory of addr if needed.
// Directories created by this store are remembered, concurrent creation by other processes is not an error.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *fileStoreImpl) ensureShard(addr address) error {
	if _, ok := s.shards.Load(addr.dir); ok {
		return nil
	}
	if err := os.MkdirAll(addr.dir, s.opts.DirPerm); err != nil {
		return err
	}
	s.shards.Store(addr.dir, struct{}{})
	return nil
}

// forgetShard drops addr from the directory cache (e.g. after it was removed externally)
func (s *fileStoreImpl) forgetShard(addr address) {
	s.shards.Delete(addr.dir)
}
