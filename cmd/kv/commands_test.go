package kv

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetaValue(t *testing.T) {
	assert.Equal(t, int64(42), parseMetaValue("42"))
	assert.Equal(t, true, parseMetaValue("true"))
	assert.Equal(t, 1.5, parseMetaValue("1.5"))
	assert.Equal(t, "plain text", parseMetaValue("plain text"))
	assert.Equal(t, map[string]any{"a": 1.0}, parseMetaValue(`{"a":1}`))
	assert.Nil(t, parseMetaValue("null"))
}

func newTTLCommand(t *testing.T, args ...string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Int64("ttl", 0, "")
	cmd.Flags().Duration("expire-in", 0, "")
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestTTLFromFlags(t *testing.T) {
	ttl, err := ttlFromFlags(newTTLCommand(t))
	require.NoError(t, err)
	assert.Equal(t, int64(0), ttl)

	ttl, err = ttlFromFlags(newTTLCommand(t, "--ttl", "1700000000"))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ttl)

	before := time.Now().Add(time.Hour).Unix()
	ttl, err = ttlFromFlags(newTTLCommand(t, "--ttl", "5", "--expire-in", "1h"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ttl, before)

	_, err = ttlFromFlags(newTTLCommand(t, "--ttl=-1"))
	assert.Error(t, err)
}

func TestGetKeys(t *testing.T) {
	perfKeySpread = 3
	getKey, iter := getKeys("x")
	assert.Equal(t, getKey(0), getKey(3))

	var keys []string
	iter(func(k string) { keys = append(keys, k) })
	assert.Equal(t, []string{"__test-x-0", "__test-x-1", "__test-x-2"}, keys)
}
