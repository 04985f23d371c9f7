package fstore

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Environment of the re-executed test binary acting as a writer process
const (
	envHelperDir = "FKV_TEST_HELPER_DIR"
	envHelperID  = "FKV_TEST_HELPER_ID"

	helperRounds    = 50
	helperValueSize = 32 * 1024
	sharedKey       = "shared"
)

func TestMain(m *testing.M) {
	if dir := os.Getenv(envHelperDir); dir != "" {
		os.Exit(runWriterProcess(dir, os.Getenv(envHelperID)))
	}
	os.Exit(m.Run())
}

// helperValue is the value written by writer id, a single repeated letter
func helperValue(id int) string {
	return strings.Repeat(string(rune('a'+id)), helperValueSize)
}

func runWriterProcess(dir, idStr string) int {
	id, err := strconv.Atoi(idStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid helper id:", err)
		return 2
	}
	opts := DefaultOptions()
	opts.Sync = false
	s, err := NewFileStore(dir, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for i := 0; i < helperRounds; i++ {
		if err := s.Set(sharedKey, store.Structured(helperValue(id)), 0); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := s.SetMeta(sharedKey, "writer", int64(id)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	return 0
}

func TestMultiProcessWriters(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns processes")
	}
	const numProcs = 4

	dir := t.TempDir()
	s := newTestStore(t, dir, nil)

	var (
		wg      conc.WaitGroup
		done    atomic.Int32
		outputs = make([]string, numProcs)
		errs    = make([]error, numProcs)
	)
	for p := 0; p < numProcs; p++ {
		p := p // per-iteration copy, go directive is below 1.22
		cmd := exec.Command(os.Args[0], "-test.run=^$")
		cmd.Env = append(os.Environ(), envHelperDir+"="+dir, envHelperID+"="+strconv.Itoa(p))
		wg.Go(func() {
			defer done.Add(1)
			out, err := cmd.CombinedOutput()
			outputs[p], errs[p] = string(out), err
		})
	}

	// read while the writers are running, every observed payload must be complete
	reads := 0
	for done.Load() < numProcs {
		v, ok, err := s.Get(sharedKey)
		require.NoError(t, err)
		if !ok {
			continue
		}
		str, _ := v.Interface().(string)
		require.Len(t, str, helperValueSize)
		require.Equal(t, helperValueSize, strings.Count(str, str[:1]), "torn payload")
		reads++
	}
	wg.Wait()

	for p := 0; p < numProcs; p++ {
		require.NoError(t, errs[p], "writer %d: %s", p, outputs[p])
	}
	t.Logf("%d consistent reads during concurrent writes", reads)

	v, ok, err := s.Get(sharedKey)
	require.NoError(t, err)
	require.True(t, ok)
	matches := 0
	for p := 0; p < numProcs; p++ {
		if v.Interface() == helperValue(p) {
			matches++
		}
	}
	assert.Equal(t, 1, matches, "final value must match exactly one writer")

	writer, ok, err := s.Meta(sharedKey, "writer")
	require.NoError(t, err)
	assert.True(t, ok)
	w, isInt := store.ToInt64(writer)
	assert.True(t, isInt)
	assert.True(t, w >= 0 && w < numProcs)
}
