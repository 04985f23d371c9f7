package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerFactory(&buf)("fstore")
	l.SetLevel(logger.WARNING)

	l.Infof("hidden %d", 1)
	l.Warningf("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN  | fstore   | shown 2")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestStoreConfigString(t *testing.T) {
	c := DefaultStoreConfig("/tmp/fkv")
	s := c.String()
	assert.Contains(t, s, "STORAGE")
	assert.Contains(t, s, "/tmp/fkv")
	assert.Contains(t, s, "json")
	assert.Contains(t, s, "LOGGING")
}

func TestInitLoggersTwice(t *testing.T) {
	require.NoError(t, InitLoggers(StoreConfig{LogLevel: "debug"}))
	require.NotPanics(t, func() {
		require.NoError(t, InitLoggers(StoreConfig{LogLevel: "error"}))
	})
	assert.Error(t, InitLoggers(StoreConfig{LogLevel: "verbose"}))
}
