package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/lib/store"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for fKV stores",
		Long:    "",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

// perfTest is a single benchmark of the perf command
type perfTest struct {
	name string
	// prepare is called once with the key accessor before the timer starts (optional)
	prepare func(getKey func(int) string, iter func(func(string))) error
	// op is the measured operation, i is a per goroutine counter
	op func(getKey func(int) string, i int) error
}

// perfResult combines the testing result with the latency distribution of a test
type perfResult struct {
	bench  testing.BenchmarkResult
	timer  gometrics.Timer
	errors int64
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
	key = "prometheus"
	perfTestCmd.Flags().Bool(key, false, util.WrapString("Print the metrics collected by the store in the Prometheus text format after the run"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for fKV stores")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(storeConfig.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("staring tests...")

	largeValue := make([]byte, perfLargeValueSizeKB*1024)
	for i := range largeValue {
		largeValue[i] = byte('a' + i%26)
	}

	fill := func(getKey func(int) string, iter func(func(string))) error {
		var err error
		iter(func(k string) {
			if err == nil {
				err = fileStore.Set(k, store.Structured("test"), 0)
			}
		})
		return err
	}

	tests := []perfTest{
		{
			name: "set",
			op: func(getKey func(int) string, i int) error {
				return fileStore.Set(getKey(i), store.Structured("test"), 0)
			},
		},
		{
			name: "set-large",
			op: func(getKey func(int) string, i int) error {
				return fileStore.Set(getKey(i), store.Raw(largeValue), 0)
			},
		},
		{
			name:    "get",
			prepare: fill,
			op: func(getKey func(int) string, i int) error {
				_, _, err := fileStore.Get(getKey(i))
				return err
			},
		},
		{
			name:    "has",
			prepare: fill,
			op: func(getKey func(int) string, i int) error {
				_, err := fileStore.Has(getKey(i))
				return err
			},
		},
		{
			name: "has-not",
			op: func(getKey func(int) string, i int) error {
				_, err := fileStore.Has(getKey(i))
				return err
			},
		},
		{
			name:    "touch",
			prepare: fill,
			op: func(getKey func(int) string, i int) error {
				return fileStore.Touch(getKey(i), time.Now().Add(time.Hour).Unix())
			},
		},
		{
			name:    "meta",
			prepare: fill,
			op: func(getKey func(int) string, i int) error {
				return fileStore.SetMeta(getKey(i), "counter", int64(i))
			},
		},
		{
			name:    "delete",
			prepare: fill,
			op: func(getKey func(int) string, i int) error {
				return fileStore.Delete(getKey(i))
			},
		},
		{
			name: "mixed",
			op: func(getKey func(int) string, i int) error {
				key := getKey(i)
				switch i % 10 {
				case 0, 1, 2:
					// already expired, reads treat the key as absent
					return fileStore.Set(key, store.Structured(i), time.Now().Unix()-1)
				case 3, 4, 5:
					return fileStore.Set(key, store.Structured(i), 0)
				case 6:
					return fileStore.Delete(key)
				default:
					_, _, err := fileStore.Get(key)
					return err
				}
			},
		},
	}

	// Create results map
	results := make(map[string]perfResult)
	order := make([]string, 0, len(tests))

	for _, test := range tests {
		result := runPerfTest(test)
		results[test.name] = result
		order = append(order, test.name)
		printResult(test.name, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, order, results); err != nil {
			return err
		}
	}

	if viper.GetBool("prometheus") {
		fmt.Println()
		storeMetrics.WritePrometheus(os.Stdout)
	}

	return nil
}

// runPerfTest runs a single test with testing.Benchmark and records the latency of every operation
func runPerfTest(test perfTest) perfResult {
	result := perfResult{timer: gometrics.NewTimer()}
	errorCounter := gometrics.NewCounter()

	if shouldSkip(test.name) {
		return result
	}

	result.bench = testing.Benchmark(func(b *testing.B) {
		// prepare keys
		getKey, iter := getKeys(test.name)

		// cleanup
		b.Cleanup(func() {
			cleanupKeys(test.name, iter)
		})

		if test.prepare != nil {
			if err := test.prepare(getKey, iter); err != nil {
				log.Printf("(%s) - error preparing keys: %v\n", test.name, err)
				return
			}
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				err := test.op(getKey, counter)
				result.timer.UpdateSince(start)
				if err != nil {
					errorCounter.Inc(1)
					log.Printf("(%s) - error: %v\n", test.name, err)
				}
				counter++
			}
		})
	})

	result.errors = errorCounter.Count()
	return result
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// cleanupKeys deletes all keys of a test using perfNumThreads workers
func cleanupKeys(test string, iter func(func(string))) {
	p := pool.New().WithMaxGoroutines(perfNumThreads)
	iter(func(k string) {
		p.Go(func() {
			if err := fileStore.Delete(k); err != nil {
				log.Printf("(%s) - error deleting key: %v\n", test, err)
			}
		})
	})
	p.Wait()
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result perfResult) {
	if result.bench.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)
	ps := result.timer.Percentiles([]float64{0.5, 0.99})

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50 %s\tp99 %s\terrors %d\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(ps[0]), time.Duration(ps[1]), result.errors)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, order []string, results map[string]perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50Ns", "P99Ns", "Errors", "Skipped",
		"DataDir", "Codec", "Sync",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for _, test := range order {
		result := results[test]
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.bench.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.bench.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}
		ps := result.timer.Percentiles([]float64{0.5, 0.99})

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			strconv.FormatInt(result.errors, 10),
			skipped,
			storeConfig.DataDir,
			storeConfig.Codec,
			strconv.FormatBool(storeConfig.Sync),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return writer.Error()
}
