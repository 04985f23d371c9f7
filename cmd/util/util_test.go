package util

import (
	"os"
	"strings"
	"testing"

	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 40)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
}

func TestGetStoreConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	viper.Set("data-dir", dir)
	viper.Set("codec", "gob")
	viper.Set("sync", false)
	viper.Set("dir-perm", "0700")
	viper.Set("file-perm", "0600")
	viper.Set("log-level", "error")

	conf, err := GetStoreConfig()
	require.NoError(t, err)
	assert.Equal(t, dir, conf.DataDir)
	assert.Equal(t, "gob", conf.Codec)
	assert.False(t, conf.Sync)
	assert.Equal(t, os.FileMode(0o700), conf.DirPerm)
	assert.Equal(t, os.FileMode(0o600), conf.FilePerm)

	viper.Set("dir-perm", "rwx")
	_, err = GetStoreConfig()
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("data-dir", t.TempDir())
	viper.Set("codec", "json")
	viper.Set("dir-perm", "0755")
	viper.Set("file-perm", "0644")
	viper.Set("log-level", "warn")

	conf, err := GetStoreConfig()
	require.NoError(t, err)

	set := metrics.NewSet()
	s, err := OpenStore(conf, set)
	require.NoError(t, err)

	require.NoError(t, s.Set("key", store.Structured("value"), 0))
	ok, err := s.Has("key")
	require.NoError(t, err)
	assert.True(t, ok)

	var sb strings.Builder
	set.WritePrometheus(&sb)
	assert.Contains(t, sb.String(), `fkv_store_ops_total{op="set"} 1`)

	// a second store in the same process with another log level
	second := *conf
	second.DataDir = t.TempDir()
	second.LogLevel = "debug"
	var other store.IStore
	require.NotPanics(t, func() {
		other, err = OpenStore(&second, nil)
	})
	require.NoError(t, err)
	require.NoError(t, other.Set("key", store.Structured("other"), 0))

	conf.Codec = "xml"
	_, err = OpenStore(conf, nil)
	assert.Error(t, err)
}
