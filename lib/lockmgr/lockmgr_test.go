package lockmgr

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitShort = 100 * time.Millisecond

func TestSharedLocksCoexist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	lm := NewLockManager()

	inner := make(chan error, 1)
	err := lm.WithFile(path, os.O_RDONLY, 0, Shared, func(_ *os.File) error {
		go func() {
			inner <- lm.WithFile(path, os.O_RDONLY, 0, Shared, func(_ *os.File) error { return nil })
		}()
		select {
		case err := <-inner:
			return err
		case <-time.After(5 * time.Second):
			return errors.New("second shared lock was not granted")
		}
	})
	require.NoError(t, err)
}

func TestExclusiveLockBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	lm := NewLockManager()

	locked := make(chan struct{})
	release := make(chan struct{})
	holderDone := make(chan error, 1)
	go func() {
		holderDone <- lm.WithFile(path, os.O_RDWR, 0, Exclusive, func(_ *os.File) error {
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	readerDone := make(chan error, 1)
	go func() {
		readerDone <- lm.WithFile(path, os.O_RDONLY, 0, Shared, func(_ *os.File) error { return nil })
	}()

	select {
	case <-readerDone:
		t.Fatal("shared lock was granted while an exclusive lock was held")
	case <-time.After(waitShort):
	}

	close(release)
	require.NoError(t, <-holderDone)

	select {
	case err := <-readerDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shared lock was not granted after the exclusive lock was released")
	}
}

func TestMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	called := false
	err := NewLockManager().WithFile(path, os.O_RDONLY, 0, Shared, func(_ *os.File) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.False(t, called)
}

func TestUnlinkedWhileWaiting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	lm := NewLockManager()

	locked := make(chan struct{})
	release := make(chan struct{})
	holderDone := make(chan error, 1)
	go func() {
		holderDone <- lm.WithFile(path, os.O_RDWR, 0, Exclusive, func(_ *os.File) error {
			close(locked)
			<-release
			return os.Remove(path)
		})
	}()
	<-locked

	readerDone := make(chan error, 1)
	writerDone := make(chan error, 1)
	go func() {
		readerDone <- lm.WithFile(path, os.O_RDONLY, 0, Shared, func(_ *os.File) error { return nil })
	}()
	go func() {
		writerDone <- lm.WithFile(path, os.O_RDWR|os.O_CREATE, 0o644, Exclusive, func(f *os.File) error {
			info, err := f.Stat()
			if err != nil {
				return err
			}
			if info.Size() != 0 {
				return errors.New("writer locked the unlinked file")
			}
			_, err = f.WriteString("new")
			return err
		})
	}()
	time.Sleep(waitShort)

	close(release)
	require.NoError(t, <-holderDone)

	// the reader either observed the removal or ran after the writer recreated the file
	if err := <-readerDone; err != nil {
		assert.ErrorIs(t, err, fs.ErrNotExist)
	}
	require.NoError(t, <-writerDone)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCallbackErrorReleasesLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta")
	lm := NewLockManager()
	boom := errors.New("boom")

	err := lm.WithFile(path, os.O_RDWR|os.O_CREATE, 0o644, Exclusive, func(_ *os.File) error { return boom })
	assert.ErrorIs(t, err, boom)

	done := make(chan error, 1)
	go func() {
		done <- lm.WithFile(path, os.O_RDWR, 0, Exclusive, func(_ *os.File) error { return nil })
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lock was not released after the callback failed")
	}
}
