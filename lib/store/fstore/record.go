package fstore

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/ValentinKolb/fKV/lib/store"
)

// --------------------------------------------------------------------------
// Record files (all helpers expect the metadata lock to be held)
// --------------------------------------------------------------------------

// readMeta reads the metadata file f.
// present is false if the file is empty, i.e. the record was never completely written.
func (s *fileStoreImpl) readMeta(f *os.File) (meta store.Meta, present bool, err error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false, store.WrapError(store.RetCIOError, "cannot read metadata", err)
	}
	if len(data) == 0 {
		return store.Meta{}, false, nil
	}

	var m map[string]any
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, false, store.WrapError(store.RetCDecodeError, "cannot decode metadata", err)
	}
	meta = store.Meta(m)
	if meta == nil {
		meta = store.Meta{}
	}
	if ttl, ok := store.ToInt64(meta[store.MetaTTL]); ok {
		meta[store.MetaTTL] = ttl
	}
	return meta, true, nil
}

// loadMeta reads the metadata file f for a reader.
// live is false if the record is incomplete or expired.
func (s *fileStoreImpl) loadMeta(f *os.File) (meta store.Meta, live bool, err error) {
	meta, present, err := s.readMeta(f)
	if err != nil || !present {
		return nil, false, err
	}
	if meta.Expired(s.nowUnix()) {
		s.metrics.expired.Inc()
		return nil, false, nil
	}
	return meta, true, nil
}

// writeMeta replaces the content of the metadata file f with meta
func (s *fileStoreImpl) writeMeta(f *os.File, meta store.Meta) error {
	data, err := s.codec.Marshal(map[string]any(meta))
	if err != nil {
		return store.WrapError(store.RetCInvalidOperation, "cannot encode metadata", err)
	}
	if err := f.Truncate(0); err != nil {
		return store.WrapError(store.RetCIOError, "cannot truncate metadata", err)
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		return store.WrapError(store.RetCIOError, "cannot write metadata", err)
	}
	return s.sync(f)
}

// encodeValue returns the payload bytes of value according to the serialize option of meta
func (s *fileStoreImpl) encodeValue(meta store.Meta, value store.Value) ([]byte, error) {
	if !meta.Serialize() {
		return value.Bytes(), nil
	}
	data, err := s.codec.Marshal(value.Interface())
	if err != nil {
		return nil, store.WrapError(store.RetCInvalidOperation, "cannot encode value", err)
	}
	return data, nil
}

// writePayload replaces the payload file of addr with value
func (s *fileStoreImpl) writePayload(addr address, meta store.Meta, value store.Value) error {
	data, err := s.encodeValue(meta, value)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(addr.payload, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.opts.FilePerm)
	if err != nil {
		return store.WrapError(store.RetCIOError, "cannot open payload", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return store.WrapError(store.RetCIOError, "cannot write payload", err)
	}
	if err := s.sync(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return store.WrapError(store.RetCIOError, "cannot close payload", err)
	}
	return nil
}

// readPayload reads and decodes the payload file of addr according to the serialize option of meta
func (s *fileStoreImpl) readPayload(addr address, meta store.Meta) (store.Value, error) {
	data, err := os.ReadFile(addr.payload)
	if err != nil {
		// metadata without payload is a damaged record, not a missing key
		return store.Value{}, store.WrapError(store.RetCIOError, "cannot read payload", err)
	}
	if !meta.Serialize() {
		return store.Raw(data), nil
	}

	var v any
	if err := s.codec.Unmarshal(data, &v); err != nil {
		return store.Value{}, store.WrapError(store.RetCDecodeError, "cannot decode payload", err)
	}
	return store.LoadedStructured(v, data, s.codec.Unmarshal), nil
}

// removeRecord unlinks the payload and the metadata file of addr. A missing payload is not an error.
func (s *fileStoreImpl) removeRecord(addr address) error {
	if err := os.Remove(addr.payload); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return store.WrapError(store.RetCIOError, "cannot remove payload", err)
	}
	if err := os.Remove(addr.meta); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return store.WrapError(store.RetCIOError, "cannot remove metadata", err)
	}
	return nil
}

func (s *fileStoreImpl) sync(f *os.File) error {
	if !s.opts.Sync {
		return nil
	}
	if err := f.Sync(); err != nil {
		return store.WrapError(store.RetCIOError, "cannot sync "+f.Name(), err)
	}
	return nil
}
