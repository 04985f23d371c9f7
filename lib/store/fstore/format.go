package fstore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ValentinKolb/fKV/lib/lockmgr"
	"github.com/ValentinKolb/fKV/lib/store"
)

// --------------------------------------------------------------------------
// Format marker
// --------------------------------------------------------------------------

const (
	formatFile    = ".fkv" // name of the marker file in the root directory
	formatVersion = 1      // on-disk record format version
)

// formatMarker describes how the records below a root directory are encoded.
// It is always JSON so that it can be read without knowing the codec.
type formatMarker struct {
	Format int    `json:"format"`
	Codec  string `json:"codec"`
}

// initFormat creates the root directory and its format marker, or validates an existing marker.
// Concurrent initialization by several processes is serialized with an exclusive lock on the marker.
func (s *fileStoreImpl) initFormat() error {
	if err := os.MkdirAll(s.root, s.opts.DirPerm); err != nil {
		return store.WrapError(store.RetCIOError, "cannot create root directory", err)
	}

	want := formatMarker{Format: formatVersion, Codec: s.codec.Name()}
	path := filepath.Join(s.root, formatFile)

	return s.locks.WithFile(path, os.O_RDWR|os.O_CREATE, s.opts.FilePerm, lockmgr.Exclusive, func(f *os.File) error {
		data, err := io.ReadAll(f)
		if err != nil {
			return store.WrapError(store.RetCIOError, "cannot read format marker", err)
		}

		// new store
		if len(data) == 0 {
			data, err = json.Marshal(want)
			if err != nil {
				return store.WrapError(store.RetCInternalError, "cannot encode format marker", err)
			}
			if _, err := f.WriteAt(data, 0); err != nil {
				return store.WrapError(store.RetCIOError, "cannot write format marker", err)
			}
			Logger.Infof("initialized store at %s (format %d, codec %s)", s.root, want.Format, want.Codec)
			return s.sync(f)
		}

		var got formatMarker
		if err := json.Unmarshal(data, &got); err != nil {
			return store.WrapError(store.RetCDecodeError, "cannot decode format marker", err)
		}
		if got != want {
			return store.NewError(store.RetCInvalidOperation, fmt.Sprintf(
				"store at %s uses format %d with codec %s, cannot open with format %d and codec %s",
				s.root, got.Format, got.Codec, want.Format, want.Codec))
		}
		return nil
	})
}
