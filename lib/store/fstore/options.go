package fstore

import (
	"os"
	"time"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/ValentinKolb/fKV/lib/common"
	"github.com/ValentinKolb/fKV/lib/lockmgr"
	"github.com/VictoriaMetrics/metrics"
)

// Options configures the file store during initialization
type Options struct {
	Codec       codec.ICodec         // Encoding of metadata and serialized values (nil = json)
	Sync        bool                 // fsync both files of a record before a write returns
	DirPerm     os.FileMode          // Permissions of new directories (0 = 0755)
	FilePerm    os.FileMode          // Permissions of new files (0 = 0644)
	Clock       func() time.Time     // Source of the current time for ttl checks (nil = time.Now)
	LockManager lockmgr.ILockManager // Cross-process lock provider (nil = flock based)
	Metrics     *metrics.Set         // Set the store registers its metrics in (nil = private set)
}

// DefaultOptions returns the default file store options
func DefaultOptions() *Options {
	return &Options{
		Codec:    codec.NewJSONCodec(),
		Sync:     true,
		DirPerm:  0o755,
		FilePerm: 0o644,
		Clock:    time.Now,
	}
}

// OptionsFromConfig converts a common.StoreConfig into Options
func OptionsFromConfig(c common.StoreConfig) (*Options, error) {
	cdc, err := codec.ByName(c.Codec)
	if err != nil {
		return nil, err
	}
	opts := DefaultOptions()
	opts.Codec = cdc
	opts.Sync = c.Sync
	if c.DirPerm != 0 {
		opts.DirPerm = c.DirPerm
	}
	if c.FilePerm != 0 {
		opts.FilePerm = c.FilePerm
	}
	return opts, nil
}

// withDefaults fills all unset fields
func (o Options) withDefaults() Options {
	if o.Codec == nil {
		o.Codec = codec.NewJSONCodec()
	}
	if o.DirPerm == 0 {
		o.DirPerm = 0o755
	}
	if o.FilePerm == 0 {
		o.FilePerm = 0o644
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.LockManager == nil {
		o.LockManager = lockmgr.NewLockManager()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewSet()
	}
	return o
}
