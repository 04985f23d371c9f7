package fstore

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/ValentinKolb/fKV/lib/lockmgr"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("fstore")

type fileStoreImpl struct {
	root    string
	codec   codec.ICodec
	opts    Options
	locks   lockmgr.ILockManager
	shards  *xsync.MapOf[string, struct{}] // shard directories known to exist
	metrics *storeMetrics
}

// NewFileStore creates a store in the directory root, creating it if needed.
// Any number of stores (in any number of processes) may be opened on the same root,
// as long as they use the same codec.
// opts is optional, nil means DefaultOptions.
func NewFileStore(root string, opts *Options) (store.IStore, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := opts.withDefaults()

	s := &fileStoreImpl{
		root:    root,
		codec:   o.Codec,
		opts:    o,
		locks:   o.LockManager,
		shards:  xsync.NewMapOf[string, struct{}](),
		metrics: newStoreMetrics(o.Metrics),
	}

	if err := s.initFormat(); err != nil {
		return nil, s.wrapErr(err, "cannot open store at "+root)
	}
	return s, nil
}

func (s *fileStoreImpl) nowUnix() int64 {
	return s.opts.Clock().Unix()
}

// --------------------------------------------------------------------------
// Locked access to a record
// --------------------------------------------------------------------------

// read runs fn with a shared lock on the metadata file of addr.
// fn is not called if the record does not exist.
func (s *fileStoreImpl) read(addr address, fn func(f *os.File) error) error {
	err := s.locks.WithFile(addr.meta, os.O_RDONLY, 0, lockmgr.Shared, fn)
	if isAbsent(err) {
		return nil
	}
	return s.wrapErr(err, "cannot lock metadata")
}

// update runs fn with an exclusive lock on the metadata file of addr.
// fn is not called if the record does not exist.
func (s *fileStoreImpl) update(addr address, fn func(f *os.File) error) error {
	err := s.locks.WithFile(addr.meta, os.O_RDWR, 0, lockmgr.Exclusive, fn)
	if isAbsent(err) {
		return nil
	}
	return s.wrapErr(err, "cannot lock metadata")
}

// write runs fn with an exclusive lock on the metadata file of addr, creating the file
// (and the shard directories) if needed. An empty metadata file is passed to fn for new records.
func (s *fileStoreImpl) write(addr address, fn func(f *os.File) error) error {
	if err := s.ensureShard(addr); err != nil {
		return store.WrapError(store.RetCIOError, "cannot create shard directory", err)
	}
	err := s.locks.WithFile(addr.meta, os.O_RDWR|os.O_CREATE, s.opts.FilePerm, lockmgr.Exclusive, fn)
	if isAbsent(err) {
		// the shard directory was removed behind our back
		Logger.Warningf("shard directory %s vanished, recreating it", addr.dir)
		s.forgetShard(addr)
		if err := s.ensureShard(addr); err != nil {
			return store.WrapError(store.RetCIOError, "cannot create shard directory", err)
		}
		err = s.locks.WithFile(addr.meta, os.O_RDWR|os.O_CREATE, s.opts.FilePerm, lockmgr.Exclusive, fn)
	}
	return s.wrapErr(err, "cannot lock metadata")
}

// isAbsent reports whether err means that the metadata file does not exist.
// Errors produced inside a locked callback are always *store.Error and never count as absence.
func isAbsent(err error) bool {
	var se *store.Error
	return err != nil && !errors.As(err, &se) && errors.Is(err, fs.ErrNotExist)
}

// wrapErr converts errors of the lock manager into *store.Error, store errors are passed through
func (s *fileStoreImpl) wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var se *store.Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, errors.ErrUnsupported) {
		return store.WrapError(store.RetCUnsupportedOperation, "advisory file locks are not supported on this platform", err)
	}
	return store.WrapError(store.RetCIOError, msg, err)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *fileStoreImpl) Set(key string, value store.Value, ttl int64) (err error) {
	defer s.metrics.observe(opSet, time.Now(), &err)
	addr := s.resolve(key)

	return s.write(addr, func(f *os.File) error {
		meta, _, err := s.readMeta(f)
		if err != nil {
			return err
		}

		// an expired record is replaced by a fresh one, including its options
		if meta.Expired(s.nowUnix()) {
			Logger.Debugf("set: discarding expired metadata of %s", addr.meta)
			meta = store.Meta{}
		}

		if err := s.writePayload(addr, meta, value); err != nil {
			return err
		}
		meta[store.MetaTTL] = ttl
		return s.writeMeta(f, meta)
	})
}

func (s *fileStoreImpl) Get(key string) (value store.Value, loaded bool, err error) {
	defer s.metrics.observe(opGet, time.Now(), &err)
	addr := s.resolve(key)

	err = s.read(addr, func(f *os.File) error {
		meta, live, err := s.loadMeta(f)
		if err != nil || !live {
			return err
		}
		value, err = s.readPayload(addr, meta)
		loaded = err == nil
		return err
	})
	if err != nil {
		return store.Value{}, false, err
	}
	return value, loaded, nil
}

func (s *fileStoreImpl) Has(key string) (loaded bool, err error) {
	defer s.metrics.observe(opHas, time.Now(), &err)
	addr := s.resolve(key)

	err = s.read(addr, func(f *os.File) error {
		_, live, err := s.loadMeta(f)
		loaded = live
		return err
	})
	return loaded && err == nil, err
}

func (s *fileStoreImpl) Touch(key string, ttl int64) (err error) {
	defer s.metrics.observe(opTouch, time.Now(), &err)
	addr := s.resolve(key)

	return s.update(addr, func(f *os.File) error {
		info, err := f.Stat()
		if err != nil {
			return store.WrapError(store.RetCIOError, "cannot stat metadata", err)
		}
		// record is still being created
		if info.Size() == 0 {
			return nil
		}
		// everything but the ttl is dropped, including the serialize option
		return s.writeMeta(f, store.Meta{store.MetaTTL: ttl})
	})
}

func (s *fileStoreImpl) Delete(key string) (err error) {
	defer s.metrics.observe(opDelete, time.Now(), &err)
	addr := s.resolve(key)

	return s.update(addr, func(_ *os.File) error {
		return s.removeRecord(addr)
	})
}

func (s *fileStoreImpl) Meta(key, name string) (value any, loaded bool, err error) {
	defer s.metrics.observe(opMeta, time.Now(), &err)
	addr := s.resolve(key)

	err = s.read(addr, func(f *os.File) error {
		meta, live, err := s.loadMeta(f)
		if err != nil || !live {
			return err
		}
		value, loaded = meta[name]
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, loaded, nil
}

func (s *fileStoreImpl) SetMeta(key, name string, value any) (err error) {
	defer s.metrics.observe(opSetMeta, time.Now(), &err)
	if err := store.ValidateMeta(name, value); err != nil {
		return err
	}
	if name == store.MetaTTL {
		value, _ = store.ToInt64(value)
	}
	addr := s.resolve(key)

	return s.write(addr, func(f *os.File) error {
		meta, present, err := s.readMeta(f)
		if err != nil {
			return err
		}

		// missing and expired records are (re)created with a null value
		fresh := !present || meta.Expired(s.nowUnix())
		if fresh {
			meta = store.Meta{store.MetaTTL: int64(0)}
		}
		meta[name] = value

		if fresh {
			// written after the merge so a new record honors its own serialize option
			if err := s.writePayload(addr, meta, store.Value{}); err != nil {
				return err
			}
		}
		return s.writeMeta(f, meta)
	})
}

func (s *fileStoreImpl) GetStoreInfo() (store.StoreInfo, error) {
	return store.StoreInfo{
		Root:          s.root,
		Codec:         s.codec.Name(),
		FormatVersion: formatVersion,
		Sync:          s.opts.Sync,
	}, nil
}
