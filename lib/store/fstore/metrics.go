package fstore

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/VictoriaMetrics/metrics"
)

// Operation names used as metric labels
const (
	opSet     = "set"
	opGet     = "get"
	opHas     = "has"
	opTouch   = "touch"
	opDelete  = "delete"
	opMeta    = "meta"
	opSetMeta = "set_meta"
)

var allOps = []string{opSet, opGet, opHas, opTouch, opDelete, opMeta, opSetMeta}

// opMetrics holds the metrics of a single operation
type opMetrics struct {
	calls    *metrics.Counter
	errors   *metrics.Counter
	duration *metrics.Histogram
}

// storeMetrics holds all metrics of a store instance
type storeMetrics struct {
	ops     map[string]opMetrics
	expired *metrics.Counter // reads that found an expired record
}

func newStoreMetrics(set *metrics.Set) *storeMetrics {
	m := &storeMetrics{
		ops:     make(map[string]opMetrics, len(allOps)),
		expired: set.GetOrCreateCounter(`fkv_store_expired_reads_total`),
	}
	for _, op := range allOps {
		m.ops[op] = opMetrics{
			calls:    set.GetOrCreateCounter(fmt.Sprintf(`fkv_store_ops_total{op=%q}`, op)),
			errors:   set.GetOrCreateCounter(fmt.Sprintf(`fkv_store_errors_total{op=%q}`, op)),
			duration: set.GetOrCreateHistogram(fmt.Sprintf(`fkv_store_op_duration_seconds{op=%q}`, op)),
		}
	}
	return m
}

// observe records one call of op. It is meant to be deferred with a pointer to the named error result.
func (m *storeMetrics) observe(op string, start time.Time, err *error) {
	om := m.ops[op]
	om.calls.Inc()
	om.duration.UpdateDuration(start)
	if *err != nil {
		om.errors.Inc()
		Logger.Debugf("%s failed (code %s): %v", op, store.CodeOf(*err), *err)
	}
}
