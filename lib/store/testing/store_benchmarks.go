package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/fKV/lib/store"
)

// RunStoreBenchmarks runs all benchmarks for an IStore implementation
func RunStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, factory(b))
		})

		b.Run("SetExisting", func(b *testing.B) {
			benchmarkSetExisting(b, factory(b))
		})

		b.Run("SetLargeValue", func(b *testing.B) {
			benchmarkSetLargeValue(b, factory(b))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory(b))
		})

		b.Run("Has(not)", func(b *testing.B) {
			benchmarkHasNot(b, factory(b))
		})

		b.Run("MixedUsageWithExpiry", func(b *testing.B) {
			benchmarkMixedUsageWithExpiry(b, factory(b))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Set operation on new keys
func benchmarkSet(b *testing.B, s store.IStore) {
	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := fmt.Sprintf("bench-set-%d", counter.Add(1))
			if err := s.Set(key, store.Structured("value"), 0); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// Benchmark for Set operation on a small set of existing keys
func benchmarkSetExisting(b *testing.B, s store.IStore) {
	const numKeys = 100
	for i := 0; i < numKeys; i++ {
		if err := s.Set(fmt.Sprintf("bench-existing-%d", i), store.Structured("value"), 0); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if err := s.Set(fmt.Sprintf("bench-existing-%d", i%numKeys), store.Structured("updated"), 0); err != nil {
				b.Error(err)
				return
			}
			i++
		}
	})
}

// Benchmark for Set operation with 1 MiB raw values
func benchmarkSetLargeValue(b *testing.B, s store.IStore) {
	value := make([]byte, 1024*1024)
	for i := range value {
		value[i] = byte(i % 256)
	}
	if err := s.SetMeta("bench-large", store.MetaSerialize, false); err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(value)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Set("bench-large", store.Raw(value), 0); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, s store.IStore) {
	const numKeys = 1000
	for i := 0; i < numKeys; i++ {
		if err := s.Set(fmt.Sprintf("bench-get-%d", i), store.Structured(fmt.Sprintf("value-%d", i)), 0); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			if _, _, err := s.Get(fmt.Sprintf("bench-get-%d", r.Intn(numKeys))); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// Benchmark for Has operation on missing keys
func benchmarkHasNot(b *testing.B, s store.IStore) {
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if _, err := s.Has(fmt.Sprintf("bench-missing-%d", i)); err != nil {
				b.Error(err)
				return
			}
			i++
		}
	})
}

// Benchmark for a mix of reads and writes where a third of the keys is expired
func benchmarkMixedUsageWithExpiry(b *testing.B, s store.IStore) {
	const numKeys = 1000
	expired := time.Now().Add(-time.Hour).Unix()
	for i := 0; i < numKeys; i++ {
		ttl := int64(0)
		if i%3 == 0 {
			ttl = expired
		}
		if err := s.Set(fmt.Sprintf("bench-mixed-%d", i), store.Structured("value"), ttl); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			key := fmt.Sprintf("bench-mixed-%d", r.Intn(numKeys))
			var err error
			switch r.Intn(10) {
			case 0:
				err = s.Set(key, store.Structured("updated"), 0)
			case 1:
				err = s.Touch(key, 0)
			default:
				_, _, err = s.Get(key)
			}
			if err != nil {
				b.Error(err)
				return
			}
		}
	})
}
